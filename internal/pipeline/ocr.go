package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine is a single OCR provider: one source document in, recognized
// plain text out. Implementations report failure explicitly so the
// chain can fall through to the next ranked engine.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, sourcePath string, languages []string) (string, error)
}

// EngineChain tries ranked engines in order and returns the first
// successful result. Only exhaustion of the whole chain is an error.
type EngineChain struct {
	engines []Engine
}

// NewEngineChain builds a chain from the given engines, skipping nils.
func NewEngineChain(engines ...Engine) *EngineChain {
	chain := &EngineChain{}
	for _, e := range engines {
		if e != nil {
			chain.engines = append(chain.engines, e)
		}
	}
	return chain
}

// Recognize runs the chain.
func (c *EngineChain) Recognize(ctx context.Context, sourcePath string, languages []string) (string, error) {
	if len(c.engines) == 0 {
		return "", fmt.Errorf("no OCR engines configured")
	}
	var lastErr error
	for _, engine := range c.engines {
		text, err := engine.Recognize(ctx, sourcePath, languages)
		if err != nil {
			fmt.Printf("[OCR] engine %s failed, trying next: %v\n", engine.Name(), err)
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("OCR pipeline failed: %w", lastErr)
}

// TesseractEngine is the baseline OCR engine backed by gosseract.
// It handles image inputs (PNG, JPEG); scanned PDFs need an engine
// that understands PDF input, such as CommandEngine.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the Tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs Tesseract over an image file.
func (e *TesseractEngine) Recognize(ctx context.Context, sourcePath string, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return "", fmt.Errorf("tesseract engine cannot read %s input", ext)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}

// CommandEngine shells out to an external OCR command that reads the
// source path as its last argument and writes recognized text to
// stdout. It is the enhanced, optionally-configured engine ranked ahead
// of the Tesseract baseline.
type CommandEngine struct {
	command string
	args    []string
}

// NewCommandEngine returns nil when no command is configured, so the
// chain simply skips it.
func NewCommandEngine(command string, args ...string) *CommandEngine {
	if command == "" {
		return nil
	}
	return &CommandEngine{command: command, args: args}
}

func (e *CommandEngine) Name() string { return filepath.Base(e.command) }

// Recognize invokes the external command.
func (e *CommandEngine) Recognize(ctx context.Context, sourcePath string, languages []string) (string, error) {
	args := append(append([]string{}, e.args...), sourcePath)
	cmd := exec.CommandContext(ctx, e.command, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("running %s: %w", e.command, err)
	}
	return string(out), nil
}

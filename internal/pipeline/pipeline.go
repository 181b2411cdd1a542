// Package pipeline drives one source document through decide, optional
// OCR, table extraction and rendering.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdf2tables/backend/internal/models"
)

// Result is the outcome of a successful pipeline run for one file.
type Result struct {
	HTML     string
	Metadata Metadata
	Tables   []models.Table
	Scanned  bool
	Source   string
}

// Runner is the external-pipeline contract consumed by the scheduler.
type Runner interface {
	Run(ctx context.Context, sourcePath string) (*Result, error)
}

// Config carries the pipeline feature switches.
type Config struct {
	// OCRCommand, when set, ranks an external OCR command ahead of the
	// Tesseract baseline.
	OCRCommand string
	// OCRArgs are passed to OCRCommand before the source path.
	OCRArgs []string
	// Languages are OCR language hints.
	Languages []string
	// DeepTables enables the fallback extraction pass when the primary
	// pass finds nothing.
	DeepTables bool
}

// Pipeline is the default Runner implementation.
type Pipeline struct {
	ocr        *EngineChain
	languages  []string
	deepTables bool
}

// New builds a pipeline with the ranked OCR engine chain.
func New(cfg Config) *Pipeline {
	var enhanced Engine
	if ce := NewCommandEngine(cfg.OCRCommand, cfg.OCRArgs...); ce != nil {
		enhanced = ce
	}
	return &Pipeline{
		ocr:        NewEngineChain(enhanced, NewTesseractEngine()),
		languages:  cfg.Languages,
		deepTables: cfg.DeepTables,
	}
}

// Run executes decide, optional OCR, extraction and rendering for one
// source file.
func (p *Pipeline) Run(ctx context.Context, sourcePath string) (*Result, error) {
	scanned, err := IsScanned(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("deciding pipeline for %s: %w", filepath.Base(sourcePath), err)
	}

	var tables []models.Table
	var ocrText string
	if scanned {
		ocrText, err = p.ocr.Recognize(ctx, sourcePath, p.languages)
		if err != nil {
			return nil, err
		}
		tables = ExtractFromText(ocrText)
	} else {
		tables, err = ExtractNative(sourcePath)
		if err != nil {
			return nil, err
		}
	}

	if len(tables) == 0 && p.deepTables && scanned {
		tables = ExtractDeep(ocrText)
	}

	if tables == nil {
		tables = []models.Table{}
	}

	html, err := RenderTables(tables)
	if err != nil {
		return nil, err
	}

	return &Result{
		HTML: html,
		Metadata: Metadata{
			Tables:      tables,
			Scanned:     scanned,
			TablesFound: len(tables),
			Source:      filepath.Base(sourcePath),
		},
		Tables:  tables,
		Scanned: scanned,
		Source:  sourcePath,
	}, nil
}

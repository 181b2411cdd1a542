// mock_pipeline.go - Mock extraction pipeline for testing
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/pipeline"
)

// MockRunner implements pipeline.Runner for testing. Results and errors
// are keyed by the base name of the source path.
type MockRunner struct {
	mu      sync.Mutex
	results map[string]*pipeline.Result
	errors  map[string]error
	panics  map[string]string
	calls   []string

	// Block, when non-nil, is received from before every Run returns.
	// Close it to release all pending runs.
	Block chan struct{}
}

// NewMockRunner creates a new mock runner with no configured results.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		results: make(map[string]*pipeline.Result),
		errors:  make(map[string]error),
		panics:  make(map[string]string),
	}
}

// SetResult configures the result returned for a source file name.
func (m *MockRunner) SetResult(name string, result *pipeline.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[name] = result
}

// SetError configures the error returned for a source file name.
func (m *MockRunner) SetError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[name] = err
}

// SetPanic makes Run panic with the given message for a source file name.
func (m *MockRunner) SetPanic(name, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics[name] = message
}

// Calls returns the base names Run was invoked with, in order.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Run implements pipeline.Runner.
func (m *MockRunner) Run(ctx context.Context, sourcePath string) (*pipeline.Result, error) {
	name := filepath.Base(sourcePath)

	m.mu.Lock()
	m.calls = append(m.calls, name)
	block := m.Block
	err, hasErr := m.errors[name]
	result, hasResult := m.results[name]
	panicMsg, hasPanic := m.panics[name]
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if hasPanic {
		panic(panicMsg)
	}
	if hasErr {
		return nil, err
	}
	if hasResult {
		return result, nil
	}
	return DefaultResult(), nil
}

// DefaultResult returns a minimal successful extraction result.
func DefaultResult() *pipeline.Result {
	return &pipeline.Result{
		HTML: "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>",
		Metadata: pipeline.Metadata{
			Tables:      []models.Table{defaultTable()},
			Scanned:     false,
			TablesFound: 1,
			Source:      "native",
		},
		Tables:  []models.Table{defaultTable()},
		Scanned: false,
		Source:  "native",
	}
}

func defaultTable() models.Table {
	return models.Table{
		Page:   1,
		Order:  0,
		Flavor: "grid",
		HTML:   "<table></table>",
		Data:   [][]string{{"a", "b"}, {"c", "d"}},
	}
}

// RunError builds a distinguishable error for a file name.
func RunError(name string) error {
	return fmt.Errorf("extraction failed for %s", name)
}

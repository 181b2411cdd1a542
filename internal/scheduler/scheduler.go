// Package scheduler drives uploaded files through the extraction
// pipeline in the background and owns the deferred cleanup lifecycle.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/pipeline"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/storage"
	"github.com/pdf2tables/backend/internal/tablestore"
)

// DefaultRetention is how long a request's working storage survives
// after all its files resolve.
const DefaultRetention = time.Hour

// QueuedFile pairs a file slug with its saved source path.
type QueuedFile struct {
	Slug       string
	SourcePath string
}

// Config wires the scheduler's collaborators.
type Config struct {
	Registry  *registry.Registry
	Workspace *storage.Workspace
	Runner    pipeline.Runner
	Tables    *tablestore.Store // optional
	// Sync runs requests inline instead of in the background, for
	// deterministic testing.
	Sync bool
	// Retention overrides DefaultRetention when positive.
	Retention time.Duration
	// Workers bounds concurrent pipeline invocations; minimum 1.
	Workers int
}

// Scheduler processes one request at a time per orchestration task;
// tasks for different requests run concurrently, sharing a bounded
// worker pool for the pipeline invocations themselves.
type Scheduler struct {
	registry  *registry.Registry
	workspace *storage.Workspace
	runner    pipeline.Runner
	tables    *tablestore.Store
	sync      bool
	retention time.Duration
	sem       chan struct{}

	wg     sync.WaitGroup
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates a scheduler.
func New(cfg Config) *Scheduler {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		registry:  cfg.Registry,
		workspace: cfg.Workspace,
		runner:    cfg.Runner,
		tables:    cfg.Tables,
		sync:      cfg.Sync,
		retention: retention,
		sem:       make(chan struct{}, workers),
		timers:    make(map[string]*time.Timer),
	}
}

// Enqueue starts the orchestration task for a request. Files are
// processed sequentially in upload order inside that task.
func (s *Scheduler) Enqueue(requestID, requestDir string, files []QueuedFile) {
	if s.sync {
		s.processRequest(requestID, requestDir, files)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processRequest(requestID, requestDir, files)
	}()
}

func (s *Scheduler) processRequest(requestID, requestDir string, files []QueuedFile) {
	// Cleanup must be armed even when a file fails or panics mid-batch.
	defer s.scheduleCleanup(requestID, requestDir)

	for _, file := range files {
		if err := s.processFile(requestID, requestDir, file); err != nil {
			// One file's failure never aborts the batch.
			if markErr := s.registry.MarkError(requestID, file.Slug, err.Error()); markErr != nil {
				fmt.Printf("[Job %s] mark error failed for %s: %v\n", shortID(requestID), file.Slug, markErr)
			}
		}
	}
}

func (s *Scheduler) processFile(requestID, requestDir string, file QueuedFile) (err error) {
	// A panicking pipeline fails only its own file; the remaining batch
	// still runs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	entry, ok := s.registry.GetFile(requestID, file.Slug)
	if !ok {
		return fmt.Errorf("file no longer tracked: %s", file.Slug)
	}
	// Terminal covers both cancellation and a duplicate slug already
	// finished earlier in the batch.
	if entry.Status.IsTerminal() {
		fmt.Printf("[Job %s] skipping %s file %s\n", shortID(requestID), entry.Status, shortID(file.Slug))
		return nil
	}

	s.updateStage(requestID, file.Slug, models.StatusProcessing, pipeline.StageDecide)

	result, err := s.runPipeline(file.SourcePath)
	if err != nil {
		return err
	}

	// The pipeline call cannot be interrupted; a result that arrives
	// after cancellation must be discarded, not written back.
	if entry, ok := s.registry.GetFile(requestID, file.Slug); !ok || entry.Status.IsTerminal() {
		fmt.Printf("[Job %s] discarding late result for %s\n", shortID(requestID), shortID(file.Slug))
		return nil
	}

	htmlPath, jsonPath, err := s.writeArtifacts(requestID, requestDir, file.Slug, result)
	if err != nil {
		return err
	}

	if s.tables != nil {
		if err := s.tables.InsertTables(context.Background(), requestID, file.Slug, result.Tables); err != nil {
			fmt.Printf("[Job %s] table store insert failed for %s: %v\n", shortID(requestID), shortID(file.Slug), err)
		}
	}

	finished := models.StatusFinished
	progress := 100
	return s.registry.UpdateFile(requestID, file.Slug, registry.Update{
		Status:   &finished,
		Progress: &progress,
		HTMLPath: &htmlPath,
		JSONPath: &jsonPath,
	})
}

// runPipeline bounds concurrent pipeline invocations; the semaphore
// slot is released even when the runner panics.
func (s *Scheduler) runPipeline(sourcePath string) (*pipeline.Result, error) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()
	return s.runner.Run(context.Background(), sourcePath)
}

// writeArtifacts stores the rendered view and serialized metadata,
// publishing the extract and render checkpoints at the write
// boundaries.
func (s *Scheduler) writeArtifacts(requestID, requestDir, slug string, result *pipeline.Result) (string, string, error) {
	outputDir, err := s.workspace.OutputDir(requestDir, slug)
	if err != nil {
		return "", "", err
	}

	s.updateProgress(requestID, slug, pipeline.StageExtract)

	htmlPath := filepath.Join(outputDir, storage.ArtifactHTML)
	if err := os.WriteFile(htmlPath, []byte(result.HTML), 0644); err != nil {
		return "", "", fmt.Errorf("writing html artifact: %w", err)
	}

	s.updateProgress(requestID, slug, pipeline.StageRender)

	metadata, err := pipeline.SerializeMetadata(result.Metadata)
	if err != nil {
		return "", "", err
	}
	jsonPath := filepath.Join(outputDir, storage.ArtifactJSON)
	if err := os.WriteFile(jsonPath, metadata, 0644); err != nil {
		return "", "", fmt.Errorf("writing json artifact: %w", err)
	}
	return htmlPath, jsonPath, nil
}

func (s *Scheduler) updateStage(requestID, slug string, status models.Status, stage pipeline.Stage) {
	progress := pipeline.StageProgress(stage)
	if err := s.registry.UpdateFile(requestID, slug, registry.Update{Status: &status, Progress: &progress}); err != nil {
		fmt.Printf("[Job %s] stage update failed for %s: %v\n", shortID(requestID), shortID(slug), err)
	}
}

func (s *Scheduler) updateProgress(requestID, slug string, stage pipeline.Stage) {
	progress := pipeline.StageProgress(stage)
	if err := s.registry.UpdateFile(requestID, slug, registry.Update{Progress: &progress}); err != nil {
		fmt.Printf("[Job %s] progress update failed for %s: %v\n", shortID(requestID), shortID(slug), err)
	}
}

// scheduleCleanup arms the deferred removal of a request's working
// storage. The timer is tracked so Shutdown can cancel it; a process
// restart before it fires simply loses the deferred cleanup.
func (s *Scheduler) scheduleCleanup(requestID, requestDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if old, ok := s.timers[requestID]; ok {
		old.Stop()
	}
	s.timers[requestID] = time.AfterFunc(s.retention, func() {
		if err := s.workspace.RemoveRequestDir(requestDir); err != nil {
			fmt.Printf("[Job %s] cleanup failed: %v\n", shortID(requestID), err)
		}
		if s.tables != nil {
			if err := s.tables.DeleteRequest(context.Background(), requestID); err != nil {
				fmt.Printf("[Job %s] table store cleanup failed: %v\n", shortID(requestID), err)
			}
		}
		s.mu.Lock()
		delete(s.timers, requestID)
		s.mu.Unlock()
	})
}

// Shutdown cancels pending cleanup timers and waits for in-flight
// orchestration tasks until the context expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PendingCleanups reports the number of armed cleanup timers.
func (s *Scheduler) PendingCleanups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

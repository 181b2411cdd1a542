package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/pdf2tables/backend/internal/models"
)

// record is the internal mutable state for one upload request.
// Files are keyed by slug; order preserves upload order for listings.
type record struct {
	info  models.RequestInfo
	files map[string]*models.FileStatus
	order []string
}

// Update carries a partial FileStatus mutation. Nil fields are left
// untouched.
type Update struct {
	Status   *models.Status
	Progress *int
	Error    *string
	HTMLPath *string
	JSONPath *string
}

// Registry is the thread-safe in-memory store of all tracked requests.
// It is the sole mutator of request and file state; callers observe
// records only through value copies returned by its methods.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*record)}
}

// CreateRequest registers a new request. The id must be fresh; a
// collision is a programming error, not a recoverable condition.
func (r *Registry) CreateRequest(requestID, directory string) (models.RequestInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[requestID]; exists {
		return models.RequestInfo{}, fmt.Errorf("request already exists: %s", requestID)
	}

	rec := &record{
		info: models.RequestInfo{
			RequestID: requestID,
			Directory: directory,
			CreatedAt: time.Now(),
		},
		files: make(map[string]*models.FileStatus),
	}
	r.records[requestID] = rec
	return rec.info, nil
}

// AddFile inserts a file entry into an existing request, keyed by slug.
func (r *Registry) AddFile(requestID string, status models.FileStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[requestID]
	if !ok {
		return fmt.Errorf("request not found: %s", requestID)
	}

	if _, exists := rec.files[status.Name]; !exists {
		rec.order = append(rec.order, status.Name)
	}
	fs := status
	rec.files[status.Name] = &fs
	return nil
}

// Get returns the request metadata, if tracked.
func (r *Registry) Get(requestID string) (models.RequestInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[requestID]
	if !ok {
		return models.RequestInfo{}, false
	}
	return rec.info, true
}

// ListFiles returns file entries in upload order. An unknown request
// yields an empty slice, not an error.
func (r *Registry) ListFiles(requestID string) []models.FileStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[requestID]
	if !ok {
		return nil
	}

	out := make([]models.FileStatus, 0, len(rec.order))
	for _, name := range rec.order {
		out = append(out, *rec.files[name])
	}
	return out
}

// GetFile returns a copy of one file entry.
func (r *Registry) GetFile(requestID, fileName string) (models.FileStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[requestID]
	if !ok {
		return models.FileStatus{}, false
	}
	fs, ok := rec.files[fileName]
	if !ok {
		return models.FileStatus{}, false
	}
	return *fs, true
}

// UpdateFile applies a partial mutation to a file entry. Terminal
// entries are sticky: once finished, error or cancelled, further
// updates are dropped so a late pipeline result cannot overwrite a
// cancellation. Progress never decreases. The first transition into a
// terminal status stamps FinishedAt exactly once.
func (r *Registry) UpdateFile(requestID, fileName string, up Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[requestID]
	if !ok {
		return fmt.Errorf("request not found: %s", requestID)
	}
	fs, ok := rec.files[fileName]
	if !ok {
		return fmt.Errorf("file not found: %s/%s", requestID, fileName)
	}

	if fs.Status.IsTerminal() {
		return nil
	}

	if up.Status != nil {
		fs.Status = *up.Status
	}
	if up.Progress != nil && *up.Progress > fs.Progress {
		fs.Progress = *up.Progress
	}
	if up.Error != nil {
		fs.Error = *up.Error
	}
	if up.HTMLPath != nil {
		fs.HTMLPath = *up.HTMLPath
	}
	if up.JSONPath != nil {
		fs.JSONPath = *up.JSONPath
	}

	if fs.Status.IsTerminal() {
		fs.Progress = 100
		now := time.Now()
		fs.FinishedAt = &now
	}
	return nil
}

// MarkError transitions a file into the error state with a message.
func (r *Registry) MarkError(requestID, fileName, message string) error {
	status := models.StatusError
	progress := 100
	return r.UpdateFile(requestID, fileName, Update{
		Status:   &status,
		Progress: &progress,
		Error:    &message,
	})
}

// Cancel marks a file cancelled. Unknown requests or files are a
// silent no-op, as is cancelling an already-terminal entry.
func (r *Registry) Cancel(requestID, fileName string) {
	status := models.StatusCancelled
	// UpdateFile drops mutations on terminal entries and errors on
	// missing ones; both outcomes are fine here.
	_ = r.UpdateFile(requestID, fileName, Update{Status: &status})
}

// Cleanup removes a request record entirely. On-disk artifacts are the
// working-storage collaborator's responsibility.
func (r *Registry) Cleanup(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, requestID)
}

// CleanupOldRequests evicts requests whose files are all terminal and
// whose creation is older than maxAge. Returns the number evicted.
func (r *Registry) CleanupOldRequests(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	evicted := 0
	for id, rec := range r.records {
		if rec.info.CreatedAt.After(cutoff) {
			continue
		}
		allDone := true
		for _, fs := range rec.files {
			if !fs.Status.IsTerminal() {
				allDone = false
				break
			}
		}
		if allDone {
			delete(r.records, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked requests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

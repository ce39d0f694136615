package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusChunking   JobStatus = "chunking"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	DocID  string `json:"doc_id"`
	UserID string `json:"user_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	// Force skips the duplicate check.
	Force bool `json:"-"`
	// Chunking is the splitter configuration for this job.
	Chunking chunker.Config `json:"-"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *chunker.Result
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks      int                   `json:"total_chunks"`
	ChunksStored     int                   `json:"chunks_stored"`
	SectionsDetected []doctree.SectionType `json:"sections_detected"`
	TablesSkipped    int                   `json:"tables_skipped"`
	Errors           []string              `json:"errors"`
}

// NewJob returns a queued job for the given upload. The document ID
// defaults to a prefix of the file's content hash.
func NewJob(userID, filename string, data []byte) *Job {
	now := time.Now()
	job := &Job{
		ID:        NewJobID(),
		DocID:     ContentHashHex(data)[:16],
		UserID:    userID,
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Chunking:  chunker.DefaultConfig(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.fileData = data
	return job
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrChunksStored atomically increments the stored chunk count.
func (j *Job) IncrChunksStored() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksStored++
	j.UpdatedAt = time.Now()
}

// SetResult records the chunking result.
func (j *Job) SetResult(res chunker.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &res
	j.Progress.TotalChunks = len(res.Chunks)
	j.Progress.SectionsDetected = res.Summary.SectionsDetected
	j.Progress.TablesSkipped = len(res.SkippedTables)
	j.UpdatedAt = time.Now()
}

// Result returns the chunking result once the job has chunked its document.
func (j *Job) Result() (chunker.Result, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil {
		return chunker.Result{}, false
	}
	return *j.result, true
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	UserID   string    `json:"user_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	sections := append([]doctree.SectionType{}, j.Progress.SectionsDetected...)
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		UserID:   j.UserID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			TotalChunks:      j.Progress.TotalChunks,
			ChunksStored:     j.Progress.ChunksStored,
			SectionsDetected: sections,
			TablesSkipped:    j.Progress.TablesSkipped,
			Errors:           errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

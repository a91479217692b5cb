package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobResult carries the outcome of a finished proofreading job.
type JobResult struct {
	DocumentID    string   `json:"document_id"`
	DownloadURL   string   `json:"download_url"`
	CorrectedText string   `json:"corrected_text"`
	Mistakes      []string `json:"mistakes"`
	Language      string   `json:"language"`
	RenderMode    string   `json:"render_mode"`
}

// Job represents an asynchronous docx proofreading job.
type Job struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Stage       string     `json:"stage,omitempty"`
	Progress    int        `json:"progress"` // 0-100
	Filename    string     `json:"filename"`
	Result      *JobResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
	CompletedAt string     `json:"completed_at,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

// JobStore manages proofreading jobs in memory.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates a new job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

// Create registers a new pending job for the named upload.
func (s *JobStore) Create(filename string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now().UTC().Format(time.RFC3339)

	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobStatusPending,
		Progress:  0,
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.jobs[job.ID] = job
	return job
}

// Get retrieves a job by ID. The returned value is a snapshot.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// Update updates a job's status, stage and progress.
func (s *JobStore) Update(id string, status JobStatus, stage string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if terminal(job.Status) {
		return fmt.Errorf("job already %s: %s", job.Status, id)
	}

	job.Status = status
	if stage != "" {
		job.Stage = stage
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// Complete marks a job as finished with its result.
func (s *JobStore) Complete(id string, result *JobResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if terminal(job.Status) {
		return fmt.Errorf("job already %s: %s", job.Status, id)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = JobStatusCompleted
	job.Progress = 100
	job.Result = result
	job.UpdatedAt = now
	job.CompletedAt = now
	return nil
}

// Fail marks a job as failed with an error message.
func (s *JobStore) Fail(id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if terminal(job.Status) {
		return fmt.Errorf("job already %s: %s", job.Status, id)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = JobStatusFailed
	job.Error = errMsg
	job.UpdatedAt = now
	job.CompletedAt = now
	return nil
}

// Cancel cancels a pending or processing job.
func (s *JobStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	if terminal(job.Status) {
		return fmt.Errorf("job cannot be cancelled (status: %s)", job.Status)
	}

	if job.cancel != nil {
		job.cancel()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	job.Status = JobStatusCancelled
	job.UpdatedAt = now
	job.CompletedAt = now
	return nil
}

// terminal reports whether a job status admits no further transitions.
func terminal(status JobStatus) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Context returns the cancellation context for a job.
func (s *JobStore) Context(id string) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if job, exists := s.jobs[id]; exists && job.ctx != nil {
		return job.ctx
	}
	return context.Background()
}

// List returns snapshots of all jobs.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

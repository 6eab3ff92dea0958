package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

// memoryJobRepository keeps jobs in process memory. It is the default
// backing store when no database is configured, and the store used by
// tests.
type memoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*JobRecord
}

// NewMemoryJobRepository builds an in-memory job repository.
func NewMemoryJobRepository() optimization.Repository {
	return &memoryJobRepository{jobs: make(map[uuid.UUID]*JobRecord)}
}

func (r *memoryJobRepository) Save(_ context.Context, job *optimization.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = toRecord(job)
	return nil
}

func (r *memoryJobRepository) Update(_ context.Context, job *optimization.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = toRecord(job)
	return nil
}

func (r *memoryJobRepository) Get(_ context.Context, id uuid.UUID) (*optimization.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.jobs[id]
	if !ok {
		return nil, optimization.NewNotFoundError(id)
	}
	return toDomain(record), nil
}

func (r *memoryJobRepository) List(_ context.Context) ([]*optimization.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]*optimization.Job, 0, len(r.jobs))
	for _, record := range r.jobs {
		jobs = append(jobs, toDomain(record))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

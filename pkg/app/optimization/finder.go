package optimization

import (
	"context"

	"github.com/google/uuid"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

// Finder answers job status queries.
type Finder struct {
	repo optimization.Repository
}

// NewFinder builds the query use-case.
func NewFinder(repo optimization.Repository) *Finder {
	return &Finder{repo: repo}
}

// Find returns one job by id.
func (f *Finder) Find(ctx context.Context, id uuid.UUID) (*optimization.Job, error) {
	return f.repo.Get(ctx, id)
}

// List returns every known job.
func (f *Finder) List(ctx context.Context) ([]*optimization.Job, error) {
	return f.repo.List(ctx)
}

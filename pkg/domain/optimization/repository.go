package optimization

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists optimization jobs. Implementations must be safe for
// concurrent use; each job is only ever written by its own runner.
type Repository interface {
	Save(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
}

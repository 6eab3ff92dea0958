package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PromptOps/PromptForge/pkg/domain/optimization"
)

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository builds the postgres-backed job repository.
func NewJobRepository(db *gorm.DB) optimization.Repository {
	return &jobRepository{db: db}
}

// Migrate creates the jobs table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&JobRecord{})
}

func (r *jobRepository) Save(ctx context.Context, job *optimization.Job) error {
	return r.db.WithContext(ctx).Create(toRecord(job)).Error
}

func (r *jobRepository) Update(ctx context.Context, job *optimization.Job) error {
	return r.db.WithContext(ctx).Save(toRecord(job)).Error
}

func (r *jobRepository) Get(ctx context.Context, id uuid.UUID) (*optimization.Job, error) {
	var record JobRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, optimization.NewNotFoundError(id)
		}
		return nil, err
	}
	return toDomain(&record), nil
}

func (r *jobRepository) List(ctx context.Context) ([]*optimization.Job, error) {
	var records []JobRecord
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&records).Error; err != nil {
		return nil, err
	}
	jobs := make([]*optimization.Job, len(records))
	for i := range records {
		jobs[i] = toDomain(&records[i])
	}
	return jobs, nil
}

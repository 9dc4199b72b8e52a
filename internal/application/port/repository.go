package port

import (
	"context"
	"errors"
	"time"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
)

var (
	// ErrEngagementNotFound is returned when no engagement has the requested reference
	ErrEngagementNotFound = errors.New("engagement not found")

	// ErrTemplateNotFound is returned when no document template has the requested name
	ErrTemplateNotFound = errors.New("document template not found")

	// ErrVersionConflict is returned when a write was based on a stale engagement version
	ErrVersionConflict = errors.New("engagement was modified concurrently")

	// ErrDuplicateReference is returned when a reference number is already taken
	ErrDuplicateReference = errors.New("reference number already in use")
)

// EngagementFilter narrows List results
type EngagementFilter struct {
	Status string
	Limit  int
	Offset int
}

// EngagementRepository defines persistence operations for Engagement
type EngagementRepository interface {
	// Create inserts a new engagement and sets its ID, Version and timestamps
	Create(ctx context.Context, engagement *entity.Engagement) error

	// GetByReference returns ErrEngagementNotFound when nothing matches
	GetByReference(ctx context.Context, reference string) (*entity.Engagement, error)

	// List returns engagements newest first
	List(ctx context.Context, filter EngagementFilter) ([]*entity.Engagement, error)

	// UpdateDetails writes business fields only, provided the stored version still matches
	UpdateDetails(ctx context.Context, engagement *entity.Engagement, expectedVersion int64) error

	// ApplyTransition writes status and remarks provided the stored version still matches
	ApplyTransition(ctx context.Context, id int64, expectedVersion int64, status, remarks string) error

	// ListOverdue returns one page of open engagements whose target date is before now
	ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*entity.Engagement, error)
}

// HistoryRepository defines persistence operations for TransitionHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.TransitionHistory) error
	GetByEngagementID(ctx context.Context, engagementID int64) ([]*entity.TransitionHistory, error)
}

// TemplateRepository defines persistence operations for DocumentTemplate
type TemplateRepository interface {
	// Upsert inserts the template or replaces the body and display name of an existing one
	Upsert(ctx context.Context, template *entity.DocumentTemplate) error

	// GetByName returns ErrTemplateNotFound when nothing matches
	GetByName(ctx context.Context, name string) (*entity.DocumentTemplate, error)

	List(ctx context.Context) ([]*entity.DocumentTemplate, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

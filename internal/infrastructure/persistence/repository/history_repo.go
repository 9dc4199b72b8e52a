package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.TransitionHistory) error {
	query := `
		INSERT INTO engagement_history (
			engagement_id, actor_id, actor_role, action,
			previous_status, new_status, remarks, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := history.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	createdAt = createdAt.UTC()

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.EngagementID,
		history.ActorID,
		history.ActorRole,
		history.Action,
		history.PreviousStatus,
		history.NewStatus,
		history.Remarks,
		createdAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("engagement_id", history.EngagementID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	history.CreatedAt = createdAt
	return nil
}

// GetByEngagementID retrieves the audit trail of an engagement, oldest first
func (r *HistoryRepository) GetByEngagementID(ctx context.Context, engagementID int64) ([]*entity.TransitionHistory, error) {
	query := `
		SELECT id, engagement_id, actor_id, actor_role, action,
			previous_status, new_status, remarks, created_at
		FROM engagement_history
		WHERE engagement_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, engagementID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("engagement_id", engagementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.TransitionHistory
	for rows.Next() {
		var record entity.TransitionHistory
		err := rows.Scan(
			&record.ID,
			&record.EngagementID,
			&record.ActorID,
			&record.ActorRole,
			&record.Action,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Remarks,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

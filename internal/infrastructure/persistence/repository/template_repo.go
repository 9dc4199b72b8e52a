package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// TemplateRepository implements port.TemplateRepository
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewTemplateRepository creates a new document template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Upsert inserts a template or replaces the display name and body of the existing one
func (r *TemplateRepository) Upsert(ctx context.Context, t *entity.DocumentTemplate) error {
	now := r.now().UTC()
	query := `
		INSERT INTO document_templates (name, display_name, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			body = excluded.body,
			updated_at = excluded.updated_at
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	if _, err := exec.ExecContext(ctx, query, t.Name, t.DisplayName, t.Body, now, now); err != nil {
		r.logger.Error("Failed to upsert template", zap.String("name", t.Name), zap.Error(err))
		return fmt.Errorf("failed to upsert template: %w", err)
	}

	stored, err := r.GetByName(ctx, t.Name)
	if err != nil {
		return err
	}
	*t = *stored
	return nil
}

// GetByName retrieves a template by its unique name
func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*entity.DocumentTemplate, error) {
	query := `
		SELECT id, name, display_name, body, created_at, updated_at
		FROM document_templates
		WHERE name = ?
	`

	var t entity.DocumentTemplate
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, name).Scan(
		&t.ID, &t.Name, &t.DisplayName, &t.Body, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrTemplateNotFound, name)
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &t, nil
}

// List returns every template ordered by name
func (r *TemplateRepository) List(ctx context.Context) ([]*entity.DocumentTemplate, error) {
	query := `
		SELECT id, name, display_name, body, created_at, updated_at
		FROM document_templates
		ORDER BY name ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.DocumentTemplate
	for rows.Next() {
		var t entity.DocumentTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &t)
	}

	return templates, rows.Err()
}

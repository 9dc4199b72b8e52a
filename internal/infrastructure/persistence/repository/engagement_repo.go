package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/infrastructure/persistence/sqlite"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const defaultListLimit = 50

const engagementColumns = `
	id, reference, status, remarks,
	client_name, contact_person, phone, email,
	service_type, scope_of_work, amount,
	consultant_name, consultant_phone, consultant_type,
	standards, surveillance, accreditation_code,
	financial_evaluation, initial_payment,
	start_date, target_date, version, created_at, updated_at`

// EngagementRepository implements port.EngagementRepository
type EngagementRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *sql.DB, logger *zap.Logger) port.EngagementRepository {
	return &EngagementRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Create inserts a new engagement at version 1
func (r *EngagementRepository) Create(ctx context.Context, e *entity.Engagement) error {
	standards, err := encodeStandards(e.Standards)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	query := `
		INSERT INTO engagements (
			reference, status, remarks,
			client_name, contact_person, phone, email,
			service_type, scope_of_work, amount,
			consultant_name, consultant_phone, consultant_type,
			standards, surveillance, accreditation_code,
			financial_evaluation, initial_payment,
			start_date, target_date, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		e.Reference, e.Status, e.Remarks,
		e.ClientName, e.ContactPerson, e.Phone, e.Email,
		e.ServiceType, e.ScopeOfWork, e.Amount,
		e.ConsultantName, e.ConsultantPhone, e.ConsultantType,
		standards, e.Surveillance, e.AccreditationCode,
		e.FinancialEvaluation, e.InitialPayment,
		nullableTime(e.StartDate), nullableTime(e.TargetDate), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", port.ErrDuplicateReference, e.Reference)
		}
		r.logger.Error("Failed to create engagement", zap.String("reference", e.Reference), zap.Error(err))
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	e.ID = id
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetByReference retrieves an engagement by its reference number
func (r *EngagementRepository) GetByReference(ctx context.Context, reference string) (*entity.Engagement, error) {
	query := `SELECT ` + engagementColumns + ` FROM engagements WHERE reference = ?`

	e, err := scanEngagement(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", port.ErrEngagementNotFound, reference)
	}
	if err != nil {
		r.logger.Error("Failed to get engagement", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to get engagement: %w", err)
	}
	return e, nil
}

// List retrieves engagements newest first, optionally filtered by status
func (r *EngagementRepository) List(ctx context.Context, filter port.EngagementFilter) ([]*entity.Engagement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + engagementColumns + ` FROM engagements`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return r.query(ctx, "list engagements", query, args...)
}

// UpdateDetails writes business fields and bumps the version
func (r *EngagementRepository) UpdateDetails(ctx context.Context, e *entity.Engagement, expectedVersion int64) error {
	standards, err := encodeStandards(e.Standards)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	query := `
		UPDATE engagements SET
			client_name = ?, contact_person = ?, phone = ?, email = ?,
			service_type = ?, scope_of_work = ?, amount = ?,
			consultant_name = ?, consultant_phone = ?, consultant_type = ?,
			standards = ?, surveillance = ?, accreditation_code = ?,
			financial_evaluation = ?, initial_payment = ?,
			start_date = ?, target_date = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		e.ClientName, e.ContactPerson, e.Phone, e.Email,
		e.ServiceType, e.ScopeOfWork, e.Amount,
		e.ConsultantName, e.ConsultantPhone, e.ConsultantType,
		standards, e.Surveillance, e.AccreditationCode,
		e.FinancialEvaluation, e.InitialPayment,
		nullableTime(e.StartDate), nullableTime(e.TargetDate),
		now, e.ID, expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update engagement", zap.Int64("id", e.ID), zap.Error(err))
		return fmt.Errorf("failed to update engagement: %w", err)
	}

	if err := r.checkVersionedWrite(ctx, result, e.ID, expectedVersion); err != nil {
		return err
	}

	e.Version = expectedVersion + 1
	e.UpdatedAt = now
	return nil
}

// ApplyTransition writes a workflow outcome and bumps the version
func (r *EngagementRepository) ApplyTransition(ctx context.Context, id int64, expectedVersion int64, status, remarks string) error {
	query := `
		UPDATE engagements
		SET status = ?, remarks = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		status, remarks, r.now().UTC(), id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to apply transition",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to apply transition: %w", err)
	}

	return r.checkVersionedWrite(ctx, result, id, expectedVersion)
}

// ListOverdue returns a page of open engagements whose target date is before now, oldest deadline first
func (r *EngagementRepository) ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*entity.Engagement, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + engagementColumns + ` FROM engagements
		WHERE target_date IS NOT NULL
			AND target_date < ?
			AND status NOT IN (?, ?)
		ORDER BY target_date ASC, id ASC
		LIMIT ? OFFSET ?`

	return r.query(ctx, "list overdue engagements", query,
		now.UTC(), entity.StatusCompleted, entity.StatusCancelled, limit, offset)
}

// checkVersionedWrite distinguishes a missing row from a stale version when nothing was updated
func (r *EngagementRepository) checkVersionedWrite(ctx context.Context, result sql.Result, id, expectedVersion int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var current int64
	err = sqlite.ExecutorFrom(ctx, r.db).
		QueryRowContext(ctx, `SELECT version FROM engagements WHERE id = ?`, id).
		Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", port.ErrEngagementNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read engagement version: %w", err)
	}

	r.logger.Info("Rejected stale engagement write",
		zap.Int64("id", id),
		zap.Int64("expected_version", expectedVersion),
		zap.Int64("current_version", current))
	return fmt.Errorf("%w: expected version %d, current %d", port.ErrVersionConflict, expectedVersion, current)
}

func (r *EngagementRepository) query(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Engagement, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var engagements []*entity.Engagement
	for rows.Next() {
		e, err := scanEngagement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan engagement: %w", err)
		}
		engagements = append(engagements, e)
	}

	return engagements, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEngagement(row rowScanner) (*entity.Engagement, error) {
	var (
		e          entity.Engagement
		standards  string
		startDate  sql.NullTime
		targetDate sql.NullTime
	)

	err := row.Scan(
		&e.ID, &e.Reference, &e.Status, &e.Remarks,
		&e.ClientName, &e.ContactPerson, &e.Phone, &e.Email,
		&e.ServiceType, &e.ScopeOfWork, &e.Amount,
		&e.ConsultantName, &e.ConsultantPhone, &e.ConsultantType,
		&standards, &e.Surveillance, &e.AccreditationCode,
		&e.FinancialEvaluation, &e.InitialPayment,
		&startDate, &targetDate, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if standards != "" {
		if err := json.Unmarshal([]byte(standards), &e.Standards); err != nil {
			return nil, fmt.Errorf("failed to decode standards: %w", err)
		}
	}
	if startDate.Valid {
		t := startDate.Time
		e.StartDate = &t
	}
	if targetDate.Valid {
		t := targetDate.Time
		e.TargetDate = &t
	}

	return &e, nil
}

func encodeStandards(standards []string) (string, error) {
	if len(standards) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(standards)
	if err != nil {
		return "", fmt.Errorf("failed to encode standards: %w", err)
	}
	return string(data), nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
	"github.com/garyjia/engagement-tracker/internal/domain/workflow"
	"github.com/garyjia/engagement-tracker/pkg/utils"
)

const (
	referencePrefix      = "ENG-"
	referenceAttempts    = 3
	generatedRefHexChars = 8
)

// TransitionRequest asks the workflow to fire one action on an engagement
type TransitionRequest struct {
	Reference string
	Action    workflow.Action
	Actor     Actor
	Remarks   string

	// ExpectedVersion, when non-zero, must match the stored version
	ExpectedVersion int64
}

// EngagementService manages engagements and drives them through the workflow
type EngagementService interface {
	Create(ctx context.Context, input EngagementInput, actor Actor) (*entity.Engagement, error)
	Get(ctx context.Context, reference string) (*entity.Engagement, error)
	List(ctx context.Context, filter port.EngagementFilter) ([]*entity.Engagement, error)
	History(ctx context.Context, reference string) ([]*entity.TransitionHistory, error)
	UpdateDetails(ctx context.Context, reference string, expectedVersion int64, input EngagementInput, actor Actor) (*entity.Engagement, error)
	PermittedActions(ctx context.Context, reference string, role workflow.Role) ([]workflow.Action, error)
	Transition(ctx context.Context, req TransitionRequest) (*entity.Engagement, error)
}

type engagementServiceImpl struct {
	engagementRepo port.EngagementRepository
	historyRepo    port.HistoryRepository
	txManager      port.TransactionManager
	engine         *workflow.Engine
	publisher      Publisher
	metrics        MetricsRecorder
	logger         Logger
	newReference   func() string
}

// NewEngagementService creates a new EngagementService. publisher and metrics may be nil.
func NewEngagementService(
	engagementRepo port.EngagementRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	engine *workflow.Engine,
	publisher Publisher,
	metrics MetricsRecorder,
	logger Logger,
) EngagementService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &engagementServiceImpl{
		engagementRepo: engagementRepo,
		historyRepo:    historyRepo,
		txManager:      txManager,
		engine:         engine,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
		newReference:   generateReference,
	}
}

func generateReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return referencePrefix + strings.ToUpper(id[:generatedRefHexChars])
}

// Create registers a new engagement in UnderProcess
func (s *engagementServiceImpl) Create(ctx context.Context, input EngagementInput, actor Actor) (*entity.Engagement, error) {
	reference := strings.TrimSpace(input.Reference)
	generated := reference == ""
	if !generated {
		if err := utils.ValidateReference(reference); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEngagement, err)
		}
	}

	engagement := &entity.Engagement{Status: entity.StatusUnderProcess}
	if err := input.applyTo(engagement); err != nil {
		return nil, err
	}

	attempts := 1
	if generated {
		attempts = referenceAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		engagement.Reference = reference
		if generated {
			engagement.Reference = s.newReference()
		}

		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.engagementRepo.Create(txCtx, engagement); err != nil {
				return err
			}
			return s.historyRepo.Create(txCtx, &entity.TransitionHistory{
				EngagementID: engagement.ID,
				ActorID:      actor.ID,
				ActorRole:    actor.Role.String(),
				Action:       entity.HistoryActionCreate,
				NewStatus:    engagement.Status,
			})
		})
		if !generated || !errors.Is(err, port.ErrDuplicateReference) {
			break
		}
		s.logger.Info("Generated reference collided, retrying", "reference", engagement.Reference)
	}

	if err != nil {
		s.logger.Error("Failed to create engagement", "error", err, "reference", engagement.Reference)
		return nil, err
	}

	s.logger.Info("Engagement created", "id", engagement.ID, "reference", engagement.Reference)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeEngagementCreated, engagement.ID, engagement.Reference,
		map[string]interface{}{
			event.PayloadClientName: engagement.ClientName,
			event.PayloadActorID:    actor.ID,
			event.PayloadActorRole:  actor.Role.String(),
			event.PayloadNewStatus:  engagement.Status,
		}))

	return engagement, nil
}

// Get retrieves an engagement by reference
func (s *engagementServiceImpl) Get(ctx context.Context, reference string) (*entity.Engagement, error) {
	return s.engagementRepo.GetByReference(ctx, reference)
}

// List retrieves engagements, newest first
func (s *engagementServiceImpl) List(ctx context.Context, filter port.EngagementFilter) ([]*entity.Engagement, error) {
	if filter.Status != "" && !workflow.State(filter.Status).IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEngagement, filter.Status)
	}
	return s.engagementRepo.List(ctx, filter)
}

// History returns the audit trail of an engagement, oldest first
func (s *engagementServiceImpl) History(ctx context.Context, reference string) ([]*entity.TransitionHistory, error) {
	engagement, err := s.engagementRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.historyRepo.GetByEngagementID(ctx, engagement.ID)
}

// UpdateDetails replaces the business fields. Status and remarks only change through Transition.
func (s *engagementServiceImpl) UpdateDetails(ctx context.Context, reference string, expectedVersion int64, input EngagementInput, actor Actor) (*entity.Engagement, error) {
	var updated *entity.Engagement

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.engagementRepo.GetByReference(txCtx, reference)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return fmt.Errorf("%w: expected version %d, current %d", port.ErrVersionConflict, expectedVersion, current.Version)
		}

		next := current.Clone()
		if err := input.applyTo(&next); err != nil {
			return err
		}

		if err := s.engagementRepo.UpdateDetails(txCtx, &next, expectedVersion); err != nil {
			return err
		}

		if err := s.historyRepo.Create(txCtx, &entity.TransitionHistory{
			EngagementID:   next.ID,
			ActorID:        actor.ID,
			ActorRole:      actor.Role.String(),
			Action:         entity.HistoryActionUpdateDetails,
			PreviousStatus: next.Status,
			NewStatus:      next.Status,
		}); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update engagement", "error", err, "reference", reference)
		return nil, err
	}

	s.logger.Info("Engagement details updated", "reference", reference, "version", updated.Version)
	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeDetailsUpdated, updated.ID, updated.Reference,
		map[string]interface{}{
			event.PayloadActorID:   actor.ID,
			event.PayloadActorRole: actor.Role.String(),
		}))

	return updated, nil
}

// PermittedActions lists what role may fire on the engagement right now
func (s *engagementServiceImpl) PermittedActions(ctx context.Context, reference string, role workflow.Role) ([]workflow.Action, error) {
	engagement, err := s.engagementRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.engine.PermittedActions(workflow.State(engagement.Status), role), nil
}

// Transition loads the engagement, applies the workflow and persists the
// outcome with its history entry in one transaction. Concurrent actors are
// serialized by the version check; the loser gets port.ErrVersionConflict.
func (s *engagementServiceImpl) Transition(ctx context.Context, req TransitionRequest) (*entity.Engagement, error) {
	var (
		previous string
		remarks  string
		updated  entity.Engagement
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.engagementRepo.GetByReference(txCtx, req.Reference)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != 0 && req.ExpectedVersion != current.Version {
			return fmt.Errorf("%w: expected version %d, current %d", port.ErrVersionConflict, req.ExpectedVersion, current.Version)
		}

		next, err := s.engine.Apply(*current, req.Action, req.Actor.Role, req.Remarks)
		if err != nil {
			return err
		}

		if err := s.engagementRepo.ApplyTransition(txCtx, current.ID, current.Version, next.Status, next.Remarks); err != nil {
			return err
		}

		// remarks belong to the action only when the engine asked for them
		if s.engine.RequiresRemarks(workflow.State(current.Status), req.Action) {
			remarks = next.Remarks
		}

		if err := s.historyRepo.Create(txCtx, &entity.TransitionHistory{
			EngagementID:   current.ID,
			ActorID:        req.Actor.ID,
			ActorRole:      req.Actor.Role.String(),
			Action:         req.Action.String(),
			PreviousStatus: current.Status,
			NewStatus:      next.Status,
			Remarks:        remarks,
		}); err != nil {
			return err
		}

		previous = current.Status
		next.Version = current.Version + 1
		updated = next
		return nil
	})

	outcome := transitionOutcome(err)
	s.metrics.RecordTransition(req.Action.String(), outcome)

	if err != nil {
		if outcome == OutcomeError {
			s.logger.Error("Transition failed", "error", err, "reference", req.Reference, "action", req.Action)
		} else {
			s.logger.Info("Transition refused", "reason", outcome, "reference", req.Reference,
				"action", req.Action, "role", req.Actor.Role)
		}
		return nil, err
	}

	s.logger.Info("Engagement transitioned",
		"reference", updated.Reference,
		"action", req.Action,
		"from", previous,
		"to", updated.Status,
		"actor_id", req.Actor.ID)

	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeStatusChanged, updated.ID, updated.Reference,
		map[string]interface{}{
			event.PayloadPreviousStatus: previous,
			event.PayloadNewStatus:      updated.Status,
			event.PayloadAction:         req.Action.String(),
			event.PayloadActorID:        req.Actor.ID,
			event.PayloadActorRole:      req.Actor.Role.String(),
			event.PayloadRemarks:        remarks,
			event.PayloadClientName:     updated.ClientName,
		}))

	return &updated, nil
}

func transitionOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, workflow.ErrPermissionDenied):
		return OutcomePermissionDenied
	case errors.Is(err, workflow.ErrMandatoryRemarksMissing):
		return OutcomeRemarksMissing
	case errors.Is(err, port.ErrVersionConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

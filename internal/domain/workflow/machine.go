package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
)

// Engine decides whether an action is legal for the current (role, status) pair and
// computes the resulting record. It holds no per-record state and is safe for concurrent use.
type Engine struct {
	configurations map[State]*stateConfig
}

// NewEngine returns the engine for the engagement approval lifecycle:
//
//	UnderProcess    --Submit   (Auditor)             --> UnderReview
//	UnderReview     --Approve  (Manager, SuperAdmin) --> ReviewCompleted
//	ReviewCompleted --Complete (SuperAdmin)          --> Completed
//	UnderReview, ReviewCompleted --Reject (Manager, SuperAdmin, remarks) --> UnderProcess
//	any non-terminal --Cancel  (Manager, SuperAdmin, remarks) --> Cancelled
func NewEngine() *Engine {
	b := NewBuilder()

	b.Configure(StateUnderProcess).
		Permit(ActionSubmit, StateUnderReview, RoleAuditor).
		PermitWithRemarks(ActionCancel, StateCancelled, RoleManager, RoleSuperAdmin)

	b.Configure(StateUnderReview).
		Permit(ActionApprove, StateReviewCompleted, RoleManager, RoleSuperAdmin).
		PermitWithRemarks(ActionReject, StateUnderProcess, RoleManager, RoleSuperAdmin).
		PermitWithRemarks(ActionCancel, StateCancelled, RoleManager, RoleSuperAdmin)

	b.Configure(StateReviewCompleted).
		Permit(ActionComplete, StateCompleted, RoleSuperAdmin).
		PermitWithRemarks(ActionReject, StateUnderProcess, RoleManager, RoleSuperAdmin).
		PermitWithRemarks(ActionCancel, StateCancelled, RoleManager, RoleSuperAdmin)

	return b.Build()
}

// Apply validates action for role against record.Status and returns the transitioned copy.
// The input record is never modified; persisting the result is the caller's job.
func (e *Engine) Apply(record entity.Engagement, action Action, role Role, remarks string) (entity.Engagement, error) {
	from := State(record.Status)

	t, ok := e.lookup(from, action, role)
	if !ok {
		return entity.Engagement{}, fmt.Errorf("%w: role %s cannot %s an engagement in status %s",
			ErrPermissionDenied, role, action, from)
	}

	trimmed := strings.TrimSpace(remarks)
	if t.requiresRemarks && trimmed == "" {
		return entity.Engagement{}, fmt.Errorf("%w: %s requires a reason", ErrMandatoryRemarksMissing, action)
	}

	next := record.Clone()
	next.Status = string(t.toState)
	if t.requiresRemarks {
		next.Remarks = trimmed
	}

	return next, nil
}

// CanApply reports whether role may fire action while the record is in status
func (e *Engine) CanApply(status State, action Action, role Role) bool {
	_, ok := e.lookup(status, action, role)
	return ok
}

// RequiresRemarks reports whether firing action from status needs non-blank remarks
func (e *Engine) RequiresRemarks(status State, action Action) bool {
	config, exists := e.configurations[status]
	if !exists {
		return false
	}
	t, exists := config.transitions[action]
	return exists && t.requiresRemarks
}

// Next returns the status action leads to from status, if the table has such a row
func (e *Engine) Next(status State, action Action) (State, bool) {
	config, exists := e.configurations[status]
	if !exists {
		return "", false
	}
	t, exists := config.transitions[action]
	if !exists {
		return "", false
	}
	return t.toState, true
}

// PermittedActions lists the actions role may fire from status, in display order
func (e *Engine) PermittedActions(status State, role Role) []Action {
	actions := []Action{}
	for _, a := range actionOrder {
		if e.CanApply(status, a, role) {
			actions = append(actions, a)
		}
	}
	return actions
}

func (e *Engine) lookup(status State, action Action, role Role) (transition, bool) {
	config, exists := e.configurations[status]
	if !exists {
		return transition{}, false
	}

	t, exists := config.transitions[action]
	if !exists || !t.roles[role] {
		return transition{}, false
	}

	return t, true
}

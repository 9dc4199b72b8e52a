package workflow

import "github.com/garyjia/engagement-tracker/internal/domain/entity"

// State represents an engagement status in the approval lifecycle
type State string

const (
	StateUnderProcess    State = entity.StatusUnderProcess
	StateUnderReview     State = entity.StatusUnderReview
	StateReviewCompleted State = entity.StatusReviewCompleted
	StateCompleted       State = entity.StatusCompleted
	StateCancelled       State = entity.StatusCancelled
)

var validStates = map[State]bool{
	StateUnderProcess:    true,
	StateUnderReview:     true,
	StateReviewCompleted: true,
	StateCompleted:       true,
	StateCancelled:       true,
}

var terminalStates = map[State]bool{
	StateCompleted: true,
	StateCancelled: true,
}

// InitialState is the status every new engagement starts in
const InitialState = StateUnderProcess

// States returns every status in lifecycle order
func States() []State {
	return []State{StateUnderProcess, StateUnderReview, StateReviewCompleted, StateCompleted, StateCancelled}
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

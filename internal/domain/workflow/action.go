package workflow

import "strings"

// Action is a user-requested operation that can cause a status transition
type Action string

const (
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionComplete Action = "COMPLETE"
	ActionReject   Action = "REJECT"
	ActionCancel   Action = "CANCEL"
)

// actionOrder fixes the order PermittedActions reports actions in
var actionOrder = []Action{ActionSubmit, ActionApprove, ActionComplete, ActionReject, ActionCancel}

// Actions returns every known action in display order
func Actions() []Action {
	return append([]Action(nil), actionOrder...)
}

// ParseAction normalizes user input such as "reject" or " Reject " into an Action
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	return a, a.IsValid()
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsValid returns true if the action is one of the known actions
func (a Action) IsValid() bool {
	for _, known := range actionOrder {
		if a == known {
			return true
		}
	}
	return false
}

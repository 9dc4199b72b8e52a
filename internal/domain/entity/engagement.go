package entity

import "time"

// Engagement is one tracked client project moving through the approval lifecycle
type Engagement struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Remarks   string `json:"remarks,omitempty"`

	// Client identity
	ClientName    string `json:"client_name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`

	// Service scope
	ServiceType string  `json:"service_type,omitempty"`
	ScopeOfWork string  `json:"scope_of_work,omitempty"`
	Amount      float64 `json:"amount"`

	// Consultant identity
	ConsultantName  string `json:"consultant_name,omitempty"`
	ConsultantPhone string `json:"consultant_phone,omitempty"`
	ConsultantType  string `json:"consultant_type,omitempty"`

	// Accreditation and standard selections
	Standards         []string `json:"standards,omitempty"`
	Surveillance      string   `json:"surveillance,omitempty"`
	AccreditationCode string   `json:"accreditation_code,omitempty"`

	FinancialEvaluation string `json:"financial_evaluation,omitempty"`
	InitialPayment      string `json:"initial_payment,omitempty"`

	StartDate  *time.Time `json:"start_date,omitempty"`
	TargetDate *time.Time `json:"target_date,omitempty"`

	// Version is bumped on every persisted write and guards read-modify-write cycles
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can derive a new record without aliasing slices or dates
func (e Engagement) Clone() Engagement {
	out := e
	if e.Standards != nil {
		out.Standards = append([]string(nil), e.Standards...)
	}
	if e.StartDate != nil {
		t := *e.StartDate
		out.StartDate = &t
	}
	if e.TargetDate != nil {
		t := *e.TargetDate
		out.TargetDate = &t
	}
	return out
}

// IsTerminal reports whether the engagement has reached a status with no further transitions
func (e Engagement) IsTerminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusCancelled
}

// IsOverdue reports whether the target date has passed while the engagement is still open
func (e Engagement) IsOverdue(now time.Time) bool {
	if e.TargetDate == nil || e.IsTerminal() {
		return false
	}
	return e.TargetDate.Before(now)
}

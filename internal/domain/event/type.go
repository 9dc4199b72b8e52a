package event

// Type identifies the type of domain event
type Type string

const (
	TypeEngagementCreated Type = "engagement.created"
	TypeDetailsUpdated    Type = "engagement.details_updated"
	TypeStatusChanged     Type = "engagement.status_changed"
	TypeEngagementOverdue Type = "engagement.overdue"
	TypeDocumentRendered  Type = "document.rendered"
)

// Payload keys shared by publishers and subscribers
const (
	PayloadPreviousStatus = "previous_status"
	PayloadNewStatus      = "new_status"
	PayloadAction         = "action"
	PayloadActorID        = "actor_id"
	PayloadActorRole      = "actor_role"
	PayloadRemarks        = "remarks"
	PayloadClientName     = "client_name"
	PayloadTargetDate     = "target_date"
	PayloadTemplate       = "template"
	PayloadUnresolved     = "unresolved"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeEngagementCreated,
		TypeDetailsUpdated,
		TypeStatusChanged,
		TypeEngagementOverdue,
		TypeDocumentRendered:
		return true
	default:
		return false
	}
}

package event

import (
	"testing"
	"time"
)

func TestType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      string
	}{
		{"engagement created", TypeEngagementCreated, "engagement.created"},
		{"details updated", TypeDetailsUpdated, "engagement.details_updated"},
		{"status changed", TypeStatusChanged, "engagement.status_changed"},
		{"overdue", TypeEngagementOverdue, "engagement.overdue"},
		{"document rendered", TypeDocumentRendered, "document.rendered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("Type.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"valid - status changed", TypeStatusChanged, true},
		{"valid - overdue", TypeEngagementOverdue, true},
		{"invalid - unknown type", Type("unknown.type"), false},
		{"invalid - empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		PayloadNewStatus: "UNDER_REVIEW",
	}

	event := NewEvent(TypeStatusChanged, 123, "ENG-123", payload)

	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Type != TypeStatusChanged {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeStatusChanged)
	}
	if event.EngagementID != 123 {
		t.Errorf("Event EngagementID = %v, want %v", event.EngagementID, 123)
	}
	if event.Reference != "ENG-123" {
		t.Errorf("Event Reference = %v, want %v", event.Reference, "ENG-123")
	}
	if event.GetPayloadString(PayloadNewStatus) != "UNDER_REVIEW" {
		t.Errorf("Event Payload[new_status] = %v", event.Payload[PayloadNewStatus])
	}
	if event.CorrelationID == "" || event.CorrelationID == event.ID {
		t.Error("Event CorrelationID should be set and distinct from ID")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	event := NewEventWithCorrelation(TypeDocumentRendered, 9, "ENG-9", nil, "corr-1")

	if event.CorrelationID != "corr-1" {
		t.Errorf("Event CorrelationID = %v, want %v", event.CorrelationID, "corr-1")
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeEngagementCreated, 1, "ENG-1", map[string]interface{}{
		"key1": "value1",
	})

	updated := original.WithPayload("key2", "value2")

	if _, exists := original.Payload["key2"]; exists {
		t.Error("WithPayload() modified the original event")
	}
	if updated.GetPayloadString("key1") != "value1" || updated.GetPayloadString("key2") != "value2" {
		t.Errorf("updated payload = %v", updated.Payload)
	}
	if updated.ID != original.ID {
		t.Error("WithPayload() should keep the event ID")
	}
}

func TestEvent_PayloadAccessors(t *testing.T) {
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	event := NewEvent(TypeEngagementOverdue, 1, "ENG-1", map[string]interface{}{
		PayloadTargetDate: due,
		PayloadUnresolved: []interface{}{"a", 3, "b"},
		"count":           3,
	})

	if got, ok := event.GetPayloadTime(PayloadTargetDate); !ok || !got.Equal(due) {
		t.Errorf("GetPayloadTime() = (%v, %v)", got, ok)
	}
	if got := event.GetPayloadStrings(PayloadUnresolved); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("GetPayloadStrings() = %v", got)
	}
	if got := event.GetPayloadString("count"); got != "" {
		t.Errorf("GetPayloadString(non-string) = %q, want empty", got)
	}
	if _, ok := event.GetPayloadTime("missing"); ok {
		t.Error("GetPayloadTime(missing) should report false")
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
	"github.com/garyjia/engagement-tracker/internal/domain/workflow"
)

var (
	auditor    = Actor{ID: "auditor-1", Role: workflow.RoleAuditor}
	manager    = Actor{ID: "manager-1", Role: workflow.RoleManager}
	superAdmin = Actor{ID: "admin-1", Role: workflow.RoleSuperAdmin}
)

type engagementFixture struct {
	repo      *mockEngagementRepo
	history   *mockHistoryRepo
	tx        *mockTxManager
	publisher *recordingPublisher
	metrics   *recordingMetrics
	svc       EngagementService
}

func newEngagementFixture(seed ...*entity.Engagement) *engagementFixture {
	f := &engagementFixture{
		repo:      newMockEngagementRepo(seed...),
		history:   &mockHistoryRepo{},
		tx:        &mockTxManager{},
		publisher: &recordingPublisher{},
		metrics:   newRecordingMetrics(),
	}
	f.svc = NewEngagementService(f.repo, f.history, f.tx, workflow.NewEngine(), f.publisher, f.metrics, &mockLogger{})
	return f
}

func seedEngagement(reference, status string) *entity.Engagement {
	return &entity.Engagement{Reference: reference, Status: status, ClientName: "Acme Manufacturing"}
}

func validInput() EngagementInput {
	return EngagementInput{
		ClientName:          " Acme Manufacturing ",
		ContactPerson:       "Jordan Lee",
		Email:               "jordan@acme.example",
		Phone:               "+44 20 7946 0958",
		ServiceType:         "Certification",
		Amount:              12500,
		Standards:           []string{"ISO 9001", " ", "ISO 14001", "ISO 9001"},
		FinancialEvaluation: "medium",
		InitialPayment:      "pending",
		StartDate:           "2024-03-01",
		TargetDate:          "2024-06-30",
	}
}

func TestEngagementService_Create(t *testing.T) {
	f := newEngagementFixture()

	got, err := f.svc.Create(context.Background(), validInput(), auditor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(got.Reference, referencePrefix) || len(got.Reference) != len(referencePrefix)+generatedRefHexChars {
		t.Errorf("generated reference = %q", got.Reference)
	}
	if got.Status != entity.StatusUnderProcess {
		t.Errorf("Status = %s, want %s", got.Status, entity.StatusUnderProcess)
	}
	if got.ClientName != "Acme Manufacturing" {
		t.Errorf("ClientName = %q, want trimmed", got.ClientName)
	}
	if strings.Join(got.Standards, "|") != "ISO 9001|ISO 14001" {
		t.Errorf("Standards = %v", got.Standards)
	}
	if got.FinancialEvaluation != entity.FinancialEvaluationMedium || got.InitialPayment != entity.PaymentPending {
		t.Errorf("classifications = %s/%s", got.FinancialEvaluation, got.InitialPayment)
	}
	if got.TargetDate == nil || got.TargetDate.Format(DateLayout) != "2024-06-30" {
		t.Errorf("TargetDate = %v", got.TargetDate)
	}

	if len(f.history.records) != 1 || f.history.records[0].Action != entity.HistoryActionCreate {
		t.Errorf("history = %+v, want one CREATE entry", f.history.records)
	}
	if types := f.publisher.types(); len(types) != 1 || types[0] != event.TypeEngagementCreated {
		t.Errorf("events = %v", types)
	}
}

func TestEngagementService_Create_ExplicitReference(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-2024-001", entity.StatusUnderProcess))

	input := validInput()
	input.Reference = "ENG-2024-002"
	got, err := f.svc.Create(context.Background(), input, auditor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Reference != "ENG-2024-002" {
		t.Errorf("Reference = %s", got.Reference)
	}

	input.Reference = "ENG-2024-001"
	if _, err := f.svc.Create(context.Background(), input, auditor); !errors.Is(err, port.ErrDuplicateReference) {
		t.Errorf("duplicate Create() error = %v, want ErrDuplicateReference", err)
	}

	input.Reference = "bad/ref"
	if _, err := f.svc.Create(context.Background(), input, auditor); !errors.Is(err, ErrInvalidEngagement) {
		t.Errorf("invalid reference error = %v, want ErrInvalidEngagement", err)
	}
}

func TestEngagementService_Create_RetriesGeneratedCollision(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-TAKEN", entity.StatusUnderProcess))
	impl := f.svc.(*engagementServiceImpl)

	refs := []string{"ENG-TAKEN", "ENG-FREE"}
	impl.newReference = func() string {
		ref := refs[0]
		refs = refs[1:]
		return ref
	}

	got, err := f.svc.Create(context.Background(), validInput(), auditor)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Reference != "ENG-FREE" {
		t.Errorf("Reference = %s, want ENG-FREE", got.Reference)
	}
}

func TestEngagementService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *EngagementInput)
		want   string
	}{
		{"missing client", func(in *EngagementInput) { in.ClientName = "  " }, "client_name is required"},
		{"bad email", func(in *EngagementInput) { in.Email = "nope" }, "invalid email"},
		{"bad phone", func(in *EngagementInput) { in.ConsultantPhone = "call me" }, "invalid phone"},
		{"negative amount", func(in *EngagementInput) { in.Amount = -5 }, "must not be negative"},
		{"bad evaluation", func(in *EngagementInput) { in.FinancialEvaluation = "extreme" }, "financial_evaluation"},
		{"bad payment", func(in *EngagementInput) { in.InitialPayment = "maybe" }, "initial_payment"},
		{"bad date", func(in *EngagementInput) { in.StartDate = "01/03/2024" }, "start_date"},
		{"target before start", func(in *EngagementInput) { in.TargetDate = "2024-01-01" }, "before start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngagementFixture()
			input := validInput()
			tt.mutate(&input)

			_, err := f.svc.Create(context.Background(), input, auditor)
			if !errors.Is(err, ErrInvalidEngagement) {
				t.Fatalf("error = %v, want ErrInvalidEngagement", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
			if f.tx.calls != 0 {
				t.Error("invalid input must not open a transaction")
			}
		})
	}
}

func TestEngagementService_Transition_Lifecycle(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-001", entity.StatusUnderProcess))
	ctx := context.Background()

	steps := []struct {
		action workflow.Action
		actor  Actor
		want   string
	}{
		{workflow.ActionSubmit, auditor, entity.StatusUnderReview},
		{workflow.ActionApprove, manager, entity.StatusReviewCompleted},
		{workflow.ActionComplete, superAdmin, entity.StatusCompleted},
	}

	for i, step := range steps {
		got, err := f.svc.Transition(ctx, TransitionRequest{Reference: "ENG-001", Action: step.action, Actor: step.actor})
		if err != nil {
			t.Fatalf("step %d %s: error = %v", i, step.action, err)
		}
		if got.Status != step.want {
			t.Errorf("step %d: Status = %s, want %s", i, got.Status, step.want)
		}
		if got.Version != int64(i+2) {
			t.Errorf("step %d: Version = %d, want %d", i, got.Version, i+2)
		}
	}

	history, err := f.svc.History(ctx, "ENG-001")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history entries = %d, want 3", len(history))
	}
	if history[1].PreviousStatus != entity.StatusUnderReview || history[1].NewStatus != entity.StatusReviewCompleted {
		t.Errorf("approve history = %+v", history[1])
	}
	if f.metrics.transitions["COMPLETE/success"] != 1 {
		t.Errorf("metrics = %v", f.metrics.transitions)
	}

	last := f.publisher.events[len(f.publisher.events)-1]
	if last.Type != event.TypeStatusChanged || last.GetPayloadString(event.PayloadNewStatus) != entity.StatusCompleted {
		t.Errorf("last event = %+v", last)
	}
}

func TestEngagementService_Transition_RejectOverwritesRemarks(t *testing.T) {
	seed := seedEngagement("ENG-001", entity.StatusUnderReview)
	seed.Remarks = "old note"
	f := newEngagementFixture(seed)

	got, err := f.svc.Transition(context.Background(), TransitionRequest{
		Reference: "ENG-001",
		Action:    workflow.ActionReject,
		Actor:     manager,
		Remarks:   "  scope section incomplete  ",
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Status != entity.StatusUnderProcess || got.Remarks != "scope section incomplete" {
		t.Errorf("got %s %q", got.Status, got.Remarks)
	}

	stored, _ := f.repo.GetByReference(context.Background(), "ENG-001")
	if stored.Remarks != "scope section incomplete" {
		t.Errorf("stored remarks = %q", stored.Remarks)
	}

	history, _ := f.svc.History(context.Background(), "ENG-001")
	if len(history) != 1 || history[0].Remarks != "scope section incomplete" {
		t.Errorf("history = %+v", history)
	}
	if got := f.publisher.events[0].GetPayloadString(event.PayloadRemarks); got != "scope section incomplete" {
		t.Errorf("event remarks = %q", got)
	}
}

func TestEngagementService_Transition_IgnoredRemarksNotReported(t *testing.T) {
	seed := seedEngagement("ENG-001", entity.StatusUnderProcess)
	seed.Remarks = "missing scope section"
	f := newEngagementFixture(seed)

	got, err := f.svc.Transition(context.Background(), TransitionRequest{
		Reference: "ENG-001",
		Action:    workflow.ActionSubmit,
		Actor:     auditor,
		Remarks:   "  resubmitted  ",
	})
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if got.Remarks != "missing scope section" {
		t.Errorf("record remarks = %q, want the earlier reason kept", got.Remarks)
	}

	history, _ := f.svc.History(context.Background(), "ENG-001")
	if len(history) != 1 || history[0].Remarks != "" {
		t.Errorf("history = %+v, want no remarks", history)
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(f.publisher.events))
	}
	if got := f.publisher.events[0].GetPayloadString(event.PayloadRemarks); got != "" {
		t.Errorf("event remarks = %q, want none", got)
	}
	if msg := StatusChangedMessage(f.publisher.events[0]); strings.Contains(msg, "Remarks") {
		t.Errorf("message carries stale remarks: %q", msg)
	}
}

func TestEngagementService_Transition_Refusals(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		req         TransitionRequest
		wantErr     error
		wantOutcome string
	}{
		{
			name:        "auditor cannot approve",
			status:      entity.StatusUnderReview,
			req:         TransitionRequest{Action: workflow.ActionApprove, Actor: auditor},
			wantErr:     workflow.ErrPermissionDenied,
			wantOutcome: OutcomePermissionDenied,
		},
		{
			name:        "cancel without remarks",
			status:      entity.StatusUnderProcess,
			req:         TransitionRequest{Action: workflow.ActionCancel, Actor: manager, Remarks: "   "},
			wantErr:     workflow.ErrMandatoryRemarksMissing,
			wantOutcome: OutcomeRemarksMissing,
		},
		{
			name:        "terminal state",
			status:      entity.StatusCompleted,
			req:         TransitionRequest{Action: workflow.ActionCancel, Actor: superAdmin, Remarks: "late"},
			wantErr:     workflow.ErrPermissionDenied,
			wantOutcome: OutcomePermissionDenied,
		},
		{
			name:        "stale version",
			status:      entity.StatusUnderProcess,
			req:         TransitionRequest{Action: workflow.ActionSubmit, Actor: auditor, ExpectedVersion: 7},
			wantErr:     port.ErrVersionConflict,
			wantOutcome: OutcomeConflict,
		},
		{
			name:        "unknown action",
			status:      entity.StatusUnderProcess,
			req:         TransitionRequest{Action: workflow.Action("ARCHIVE"), Actor: superAdmin},
			wantErr:     workflow.ErrPermissionDenied,
			wantOutcome: OutcomePermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngagementFixture(seedEngagement("ENG-001", tt.status))
			tt.req.Reference = "ENG-001"

			_, err := f.svc.Transition(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			stored, _ := f.repo.GetByReference(context.Background(), "ENG-001")
			if stored.Status != tt.status || stored.Version != 1 {
				t.Errorf("engagement changed: %s v%d", stored.Status, stored.Version)
			}
			if len(f.history.records) != 0 {
				t.Error("refused transition must not write history")
			}
			if len(f.publisher.events) != 0 {
				t.Error("refused transition must not publish")
			}
			if f.metrics.transitions[tt.req.Action.String()+"/"+tt.wantOutcome] != 1 {
				t.Errorf("metrics = %v", f.metrics.transitions)
			}
		})
	}
}

func TestEngagementService_Transition_ConcurrentWriterLoses(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-001", entity.StatusUnderReview))

	// Another actor commits between our read and our write.
	f.repo.applyTransitionFunc = func(ctx context.Context, id, expectedVersion int64, status, remarks string) error {
		return port.ErrVersionConflict
	}

	_, err := f.svc.Transition(context.Background(), TransitionRequest{
		Reference: "ENG-001",
		Action:    workflow.ActionApprove,
		Actor:     manager,
	})
	if !errors.Is(err, port.ErrVersionConflict) {
		t.Fatalf("error = %v, want ErrVersionConflict", err)
	}
	if len(f.history.records) != 0 {
		t.Error("conflicting transition must not write history")
	}
}

func TestEngagementService_Transition_NotFound(t *testing.T) {
	f := newEngagementFixture()

	_, err := f.svc.Transition(context.Background(), TransitionRequest{Reference: "missing", Action: workflow.ActionSubmit, Actor: auditor})
	if !errors.Is(err, port.ErrEngagementNotFound) {
		t.Errorf("error = %v, want ErrEngagementNotFound", err)
	}
	if f.metrics.transitions["SUBMIT/error"] != 1 {
		t.Errorf("metrics = %v", f.metrics.transitions)
	}
}

func TestEngagementService_Transition_PublishFailureIsNotReturned(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-001", entity.StatusUnderProcess))
	f.publisher.err = errors.New("chat unavailable")

	if _, err := f.svc.Transition(context.Background(), TransitionRequest{Reference: "ENG-001", Action: workflow.ActionSubmit, Actor: auditor}); err != nil {
		t.Errorf("Transition() error = %v, want nil", err)
	}
}

func TestEngagementService_UpdateDetails(t *testing.T) {
	seed := seedEngagement("ENG-001", entity.StatusUnderReview)
	seed.Remarks = "keep me"
	f := newEngagementFixture(seed)
	ctx := context.Background()

	input := validInput()
	input.ClientName = "Acme Holdings"
	got, err := f.svc.UpdateDetails(ctx, "ENG-001", 1, input, manager)
	if err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if got.ClientName != "Acme Holdings" || got.Version != 2 {
		t.Errorf("got %q v%d", got.ClientName, got.Version)
	}
	if got.Status != entity.StatusUnderReview || got.Remarks != "keep me" {
		t.Errorf("status/remarks changed: %s %q", got.Status, got.Remarks)
	}
	if f.history.records[0].Action != entity.HistoryActionUpdateDetails {
		t.Errorf("history action = %s", f.history.records[0].Action)
	}

	if _, err := f.svc.UpdateDetails(ctx, "ENG-001", 1, input, manager); !errors.Is(err, port.ErrVersionConflict) {
		t.Errorf("stale update error = %v, want ErrVersionConflict", err)
	}

	input.ClientName = ""
	if _, err := f.svc.UpdateDetails(ctx, "ENG-001", 2, input, manager); !errors.Is(err, ErrInvalidEngagement) {
		t.Errorf("invalid update error = %v, want ErrInvalidEngagement", err)
	}
}

func TestEngagementService_PermittedActions(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-001", entity.StatusUnderReview))

	actions, err := f.svc.PermittedActions(context.Background(), "ENG-001", workflow.RoleManager)
	if err != nil {
		t.Fatalf("PermittedActions() error = %v", err)
	}
	want := []workflow.Action{workflow.ActionApprove, workflow.ActionReject, workflow.ActionCancel}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %s, want %s", i, actions[i], want[i])
		}
	}

	actions, _ = f.svc.PermittedActions(context.Background(), "ENG-001", workflow.RoleAuditor)
	if len(actions) != 0 {
		t.Errorf("auditor actions = %v, want none", actions)
	}
}

func TestEngagementService_ListRejectsUnknownStatus(t *testing.T) {
	f := newEngagementFixture(seedEngagement("ENG-001", entity.StatusUnderProcess))

	if _, err := f.svc.List(context.Background(), port.EngagementFilter{Status: "ARCHIVED"}); !errors.Is(err, ErrInvalidEngagement) {
		t.Errorf("error = %v, want ErrInvalidEngagement", err)
	}

	list, err := f.svc.List(context.Background(), port.EngagementFilter{Status: entity.StatusUnderProcess})
	if err != nil || len(list) != 1 {
		t.Errorf("List() = %v, %v", list, err)
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
)

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func quotationEngagement() *entity.Engagement {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	target := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	return &entity.Engagement{
		Reference:     "ENG-2024-001",
		Status:        entity.StatusUnderReview,
		ClientName:    "Acme Manufacturing",
		ContactPerson: "Jordan Lee",
		Amount:        12500.5,
		Standards:     []string{"ISO 9001", "ISO 14001", "ISO 9001"},
		StartDate:     &start,
		TargetDate:    &target,
	}
}

type documentFixture struct {
	archive   *mockArchive
	publisher *recordingPublisher
	metrics   *recordingMetrics
	logger    *mockLogger
	svc       DocumentService
}

func newDocumentFixture(templates ...*entity.DocumentTemplate) *documentFixture {
	f := &documentFixture{
		archive:   &mockArchive{},
		publisher: &recordingPublisher{},
		metrics:   newRecordingMetrics(),
		logger:    &mockLogger{},
	}
	svc := NewDocumentService(
		newMockEngagementRepo(quotationEngagement()),
		newMockTemplateRepo(templates...),
		f.archive, f.publisher, f.metrics, f.logger,
	).(*documentServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func TestDocumentService_Render(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{
		Name:        "quotation",
		DisplayName: "Quotation",
		Body: "Dear {{contactPerson}} of {{clientName}},\n" +
			"Ref {{referenceNumber}} dated {{currentDate}}\n" +
			"Fee: {{amount}} for {{standards}}\n" +
			"From {{startDate}} to {{targetDate}} ({{status}})\n" +
			"Consultant: [{{consultantName}}]",
	})

	doc, err := f.svc.Render(context.Background(), "ENG-2024-001", "quotation", nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "Dear Jordan Lee of Acme Manufacturing,\n" +
		"Ref ENG-2024-001 dated 17 May 2024\n" +
		"Fee: 12,500.50 for ISO 9001, ISO 14001\n" +
		"From 01 Mar 2024 to 30 Jun 2024 (Under Review)\n" +
		"Consultant: []"
	if doc.Body != want {
		t.Errorf("Body =\n%s\nwant\n%s", doc.Body, want)
	}
	if doc.DisplayName != "Quotation" || doc.Reference != "ENG-2024-001" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Unresolved) != 0 || len(f.logger.warns) != 0 {
		t.Errorf("unexpected unresolved tokens %v", doc.Unresolved)
	}
	if f.metrics.renders != 1 {
		t.Errorf("renders = %d, want 1", f.metrics.renders)
	}
	if types := f.publisher.types(); len(types) != 1 || types[0] != event.TypeDocumentRendered {
		t.Errorf("events = %v", types)
	}
}

func TestDocumentService_Render_OverridesWin(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{
		Name: "agreement",
		Body: "{{clientName}} / {{signatory}} / {{clientName}}",
	})

	doc, err := f.svc.Render(context.Background(), "ENG-2024-001", "agreement", map[string]string{
		"clientName": "Acme Manufacturing Ltd",
		"signatory":  "R. Patel",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if doc.Body != "Acme Manufacturing Ltd / R. Patel / Acme Manufacturing Ltd" {
		t.Errorf("Body = %q", doc.Body)
	}
}

func TestDocumentService_Render_ReportsUnresolved(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{
		Name: "letter",
		Body: "Hello {{clientNmae}}, {{signatory}} {{clientNmae}}",
	})

	doc, err := f.svc.Render(context.Background(), "ENG-2024-001", "letter", nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if doc.Body != "Hello ,  " {
		t.Errorf("Body = %q", doc.Body)
	}
	if strings.Join(doc.Unresolved, ",") != "clientNmae,signatory" {
		t.Errorf("Unresolved = %v", doc.Unresolved)
	}
	if len(f.logger.warns) != 1 {
		t.Errorf("warns = %v, want one", f.logger.warns)
	}
	if f.metrics.unresolved != 2 {
		t.Errorf("unresolved metric = %d, want 2", f.metrics.unresolved)
	}
}

func TestDocumentService_Render_ValuesAreNotRescanned(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{Name: "echo", Body: "{{note}}"})

	doc, err := f.svc.Render(context.Background(), "ENG-2024-001", "echo", map[string]string{"note": "{{clientName}}"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if doc.Body != "{{clientName}}" {
		t.Errorf("Body = %q, want the override verbatim", doc.Body)
	}
}

func TestDocumentService_Render_NotFound(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{Name: "quotation", Body: "x"})

	if _, err := f.svc.Render(context.Background(), "ENG-404", "quotation", nil); !errors.Is(err, port.ErrEngagementNotFound) {
		t.Errorf("missing engagement error = %v", err)
	}
	if _, err := f.svc.Render(context.Background(), "ENG-2024-001", "invoice", nil); !errors.Is(err, port.ErrTemplateNotFound) {
		t.Errorf("missing template error = %v", err)
	}
	if f.metrics.renders != 0 {
		t.Errorf("renders = %d, want 0", f.metrics.renders)
	}
}

func TestDocumentService_Archive(t *testing.T) {
	f := newDocumentFixture(&entity.DocumentTemplate{Name: "quotation", Body: "Fee {{amount}}"})
	ctx := context.Background()

	doc, err := f.svc.Render(ctx, "ENG-2024-001", "quotation", nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	path, err := f.svc.Archive(ctx, doc, ".html")
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if path != "ENG-2024-001/quotation_20240517_093000.html" {
		t.Errorf("path = %s", path)
	}
	if string(f.archive.saved[path]) != "Fee 12,500.50" {
		t.Errorf("archived content = %q", f.archive.saved[path])
	}

	names, err := f.svc.ListArchived(ctx, "ENG-2024-001")
	if err != nil || len(names) != 1 {
		t.Errorf("ListArchived() = %v, %v", names, err)
	}
	if _, err := f.svc.ListArchived(ctx, "ENG-404"); !errors.Is(err, port.ErrEngagementNotFound) {
		t.Errorf("ListArchived(missing) error = %v", err)
	}
}

func TestDocumentService_ArchiveWithoutStore(t *testing.T) {
	svc := NewDocumentService(newMockEngagementRepo(), newMockTemplateRepo(), nil, nil, nil, &mockLogger{})

	if _, err := svc.Archive(context.Background(), &RenderedDocument{Reference: "ENG-1", Template: "t"}, "txt"); err == nil {
		t.Error("expected error without an archive")
	}
}

func TestBuildMergeContext(t *testing.T) {
	e := quotationEngagement()
	e.TargetDate = nil
	e.Status = "ON_HOLD"

	ctx := BuildMergeContext(e, fixedNow)

	for _, token := range RecordTokens() {
		if _, ok := ctx[token]; !ok {
			t.Errorf("token %s missing from context", token)
		}
	}
	if ctx[TokenTargetDate] != "" {
		t.Errorf("targetDate = %q, want blank for a missing date", ctx[TokenTargetDate])
	}
	if ctx[TokenStatus] != "ON_HOLD" {
		t.Errorf("status = %q, want raw value for unknown status", ctx[TokenStatus])
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "0.00"},
		{999.999, "1,000.00"},
		{1234567.5, "1,234,567.50"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.amount); got != tt.want {
			t.Errorf("FormatAmount(%v) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

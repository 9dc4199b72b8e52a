package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
	"github.com/garyjia/engagement-tracker/internal/domain/merge"
)

// RenderedDocument is a merged template ready for printing
type RenderedDocument struct {
	Reference   string   `json:"reference"`
	Template    string   `json:"template"`
	DisplayName string   `json:"display_name"`
	Body        string   `json:"body"`
	Unresolved  []string `json:"unresolved,omitempty"`
}

// DocumentService merges engagement data into document templates
type DocumentService interface {
	Render(ctx context.Context, reference, templateName string, overrides map[string]string) (*RenderedDocument, error)
	Archive(ctx context.Context, doc *RenderedDocument, extension string) (string, error)
	ListArchived(ctx context.Context, reference string) ([]string, error)
}

type documentServiceImpl struct {
	engagementRepo port.EngagementRepository
	templateRepo   port.TemplateRepository
	archive        port.DocumentArchive
	publisher      Publisher
	metrics        MetricsRecorder
	logger         Logger
	now            func() time.Time
}

// NewDocumentService creates a new DocumentService. archive, publisher and metrics may be nil.
func NewDocumentService(
	engagementRepo port.EngagementRepository,
	templateRepo port.TemplateRepository,
	archive port.DocumentArchive,
	publisher Publisher,
	metrics MetricsRecorder,
	logger Logger,
) DocumentService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &documentServiceImpl{
		engagementRepo: engagementRepo,
		templateRepo:   templateRepo,
		archive:        archive,
		publisher:      publisher,
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}
}

// Render merges the engagement and the caller's overrides into the named template.
// Overrides win over record values. Placeholders nobody supplied are removed and
// reported in Unresolved.
func (s *documentServiceImpl) Render(ctx context.Context, reference, templateName string, overrides map[string]string) (*RenderedDocument, error) {
	engagement, err := s.engagementRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	tpl, err := s.templateRepo.GetByName(ctx, templateName)
	if err != nil {
		return nil, err
	}

	mergeCtx := BuildMergeContext(engagement, s.now()).With(overrides)
	result := merge.RenderWithReport(tpl.Body, mergeCtx)

	s.metrics.RecordRender(tpl.Name, len(result.Unresolved))
	if len(result.Unresolved) > 0 {
		s.logger.Warn("Template has placeholders without values",
			"template", tpl.Name,
			"reference", reference,
			"tokens", strings.Join(result.Unresolved, ","))
	}

	doc := &RenderedDocument{
		Reference:   engagement.Reference,
		Template:    tpl.Name,
		DisplayName: tpl.DisplayName,
		Body:        result.Output,
		Unresolved:  result.Unresolved,
	}

	publish(ctx, s.publisher, s.logger, event.NewEvent(event.TypeDocumentRendered, engagement.ID, engagement.Reference,
		map[string]interface{}{
			event.PayloadTemplate:   tpl.Name,
			event.PayloadUnresolved: result.Unresolved,
		}))

	return doc, nil
}

// Archive stores a rendered document in the engagement's folder
func (s *documentServiceImpl) Archive(ctx context.Context, doc *RenderedDocument, extension string) (string, error) {
	if s.archive == nil {
		return "", fmt.Errorf("document archive is not configured")
	}

	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if extension == "" {
		extension = "txt"
	}
	fileName := fmt.Sprintf("%s_%s.%s", doc.Template, s.now().Format("20060102_150405"), extension)

	path, err := s.archive.Save(ctx, doc.Reference, fileName, []byte(doc.Body))
	if err != nil {
		s.logger.Error("Failed to archive document", "error", err, "reference", doc.Reference, "template", doc.Template)
		return "", err
	}

	s.logger.Info("Document archived", "reference", doc.Reference, "template", doc.Template, "path", path)
	return path, nil
}

// ListArchived returns archived file names for an engagement
func (s *documentServiceImpl) ListArchived(ctx context.Context, reference string) ([]string, error) {
	if _, err := s.engagementRepo.GetByReference(ctx, reference); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return []string{}, nil
	}
	return s.archive.List(ctx, reference)
}

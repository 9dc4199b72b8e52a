package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/merge"
)

var templateNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// TemplateService manages the document template library
type TemplateService interface {
	List(ctx context.Context) ([]*entity.DocumentTemplate, error)
	Get(ctx context.Context, name string) (*entity.DocumentTemplate, error)
	Save(ctx context.Context, tpl *entity.DocumentTemplate) error
	Seed(ctx context.Context, templates []entity.DocumentTemplate, overwrite bool) (int, error)
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	logger       Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo port.TemplateRepository, logger Logger) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// List returns every template ordered by name
func (s *templateServiceImpl) List(ctx context.Context) ([]*entity.DocumentTemplate, error) {
	return s.templateRepo.List(ctx)
}

// Get returns one template
func (s *templateServiceImpl) Get(ctx context.Context, name string) (*entity.DocumentTemplate, error) {
	return s.templateRepo.GetByName(ctx, name)
}

// Save validates and upserts a template by name
func (s *templateServiceImpl) Save(ctx context.Context, tpl *entity.DocumentTemplate) error {
	tpl.Name = strings.TrimSpace(tpl.Name)
	tpl.DisplayName = strings.TrimSpace(tpl.DisplayName)

	if !templateNamePattern.MatchString(tpl.Name) {
		return fmt.Errorf("%w: name %q must be lowercase letters, digits, '-' or '_'", ErrInvalidTemplate, tpl.Name)
	}
	if strings.TrimSpace(tpl.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidTemplate)
	}
	if tpl.DisplayName == "" {
		tpl.DisplayName = tpl.Name
	}

	if extra := FormTokens(tpl.Body); len(extra) > 0 {
		s.logger.Info("Template uses tokens that must come from form overrides",
			"template", tpl.Name,
			"tokens", strings.Join(extra, ","))
	}

	if err := s.templateRepo.Upsert(ctx, tpl); err != nil {
		s.logger.Error("Failed to save template", "error", err, "template", tpl.Name)
		return err
	}

	s.logger.Info("Template saved", "template", tpl.Name)
	return nil
}

// Seed stores catalog templates. Existing templates are kept unless overwrite is set.
// It returns how many templates were written.
func (s *templateServiceImpl) Seed(ctx context.Context, templates []entity.DocumentTemplate, overwrite bool) (int, error) {
	written := 0
	for i := range templates {
		tpl := templates[i]

		if !overwrite {
			_, err := s.templateRepo.GetByName(ctx, tpl.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, port.ErrTemplateNotFound) {
				return written, err
			}
		}

		if err := s.Save(ctx, &tpl); err != nil {
			return written, fmt.Errorf("seed template %q: %w", tpl.Name, err)
		}
		written++
	}

	s.logger.Info("Template catalog seeded", "written", written, "total", len(templates))
	return written, nil
}

// FormTokens returns the placeholders of body that an engagement record does not supply
func FormTokens(body string) []string {
	known := make(map[string]bool, len(recordTokens))
	for _, token := range recordTokens {
		known[token] = true
	}

	var extra []string
	for _, name := range merge.Placeholders(body) {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	return extra
}

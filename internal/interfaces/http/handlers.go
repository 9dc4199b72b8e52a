package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/engagement-tracker/internal/application/port"
	"github.com/garyjia/engagement-tracker/internal/application/service"
	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/workflow"
)

// Headers carrying the caller's identity. The front end sets them; they are not authenticated here.
const (
	HeaderActorRole = "X-Actor-Role"
	HeaderActorID   = "X-Actor-ID"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	exportPageSize  = 100
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ListEngagementsRequest represents query parameters for listing engagements
type ListEngagementsRequest struct {
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Status string `form:"status"`
}

// UpdateEngagementRequest carries the business fields plus the version the client last read
type UpdateEngagementRequest struct {
	Version int64 `json:"version" binding:"required"`
	service.EngagementInput
}

// TransitionRequest is the body of POST /api/engagements/:ref/transitions
type TransitionRequest struct {
	Action  string `json:"action" binding:"required"`
	Remarks string `json:"remarks"`
	Version int64  `json:"version"`
}

// PermittedActionsResponse lists what the caller's role may fire now
type PermittedActionsResponse struct {
	Reference string            `json:"reference"`
	Status    string            `json:"status"`
	Role      string            `json:"role"`
	Actions   []workflow.Action `json:"actions"`
}

// RenderDocumentRequest holds form values that override record fields
type RenderDocumentRequest struct {
	Overrides map[string]string `json:"overrides"`
}

// RenderDocumentResponse is a rendered document, plus its archive path when archived
type RenderDocumentResponse struct {
	*service.RenderedDocument
	ArchivedPath string `json:"archived_path,omitempty"`
}

// SaveTemplateRequest is the body of PUT /api/templates/:name
type SaveTemplateRequest struct {
	DisplayName string `json:"display_name"`
	Body        string `json:"body" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.deps.HealthCheck != nil {
		if err := h.deps.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListEngagements handles GET /api/engagements
func (h *Handlers) ListEngagements(c *gin.Context) {
	var req ListEngagementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > maxPageSize {
		req.Limit = defaultPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	engagements, err := h.deps.Engagements.List(c.Request.Context(), port.EngagementFilter{
		Status: strings.ToUpper(strings.TrimSpace(req.Status)),
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.writeError(c, err, "failed to list engagements")
		return
	}

	if engagements == nil {
		engagements = []*entity.Engagement{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    engagements,
	})
}

// CreateEngagement handles POST /api/engagements
func (h *Handlers) CreateEngagement(c *gin.Context) {
	var input service.EngagementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}

	engagement, err := h.deps.Engagements.Create(c.Request.Context(), input, actorFrom(c))
	if err != nil {
		h.writeError(c, err, "failed to create engagement")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    engagement,
	})
}

// GetEngagement handles GET /api/engagements/:ref
func (h *Handlers) GetEngagement(c *gin.Context) {
	engagement, err := h.deps.Engagements.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.writeError(c, err, "failed to get engagement")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    engagement,
	})
}

// UpdateEngagement handles PUT /api/engagements/:ref
func (h *Handlers) UpdateEngagement(c *gin.Context) {
	var req UpdateEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	engagement, err := h.deps.Engagements.UpdateDetails(c.Request.Context(), c.Param("ref"), req.Version, req.EngagementInput, actorFrom(c))
	if err != nil {
		h.writeError(c, err, "failed to update engagement")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    engagement,
	})
}

// GetHistory handles GET /api/engagements/:ref/history
func (h *Handlers) GetHistory(c *gin.Context) {
	history, err := h.deps.Engagements.History(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.writeError(c, err, "failed to get history")
		return
	}

	if history == nil {
		history = []*entity.TransitionHistory{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// GetPermittedActions handles GET /api/engagements/:ref/actions
func (h *Handlers) GetPermittedActions(c *gin.Context) {
	ctx := c.Request.Context()
	reference := c.Param("ref")
	role := roleFrom(c)

	engagement, err := h.deps.Engagements.Get(ctx, reference)
	if err != nil {
		h.writeError(c, err, "failed to get engagement")
		return
	}

	actions, err := h.deps.Engagements.PermittedActions(ctx, reference, role)
	if err != nil {
		h.writeError(c, err, "failed to list actions")
		return
	}

	if actions == nil {
		actions = []workflow.Action{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: PermittedActionsResponse{
			Reference: engagement.Reference,
			Status:    engagement.Status,
			Role:      role.String(),
			Actions:   actions,
		},
	})
}

// Transition handles POST /api/engagements/:ref/transitions
func (h *Handlers) Transition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	// Unknown actions are passed through; the workflow refuses them.
	action, _ := workflow.ParseAction(req.Action)

	engagement, err := h.deps.Engagements.Transition(c.Request.Context(), service.TransitionRequest{
		Reference:       c.Param("ref"),
		Action:          action,
		Actor:           actorFrom(c),
		Remarks:         req.Remarks,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		h.writeError(c, err, "transition failed")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    engagement,
	})
}

// RenderDocument handles POST /api/engagements/:ref/documents/:name.
// ?format=html returns a printable page and ?archive=true stores a copy.
func (h *Handlers) RenderDocument(c *gin.Context) {
	var req RenderDocumentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	doc, err := h.deps.Documents.Render(ctx, c.Param("ref"), c.Param("name"), req.Overrides)
	if err != nil {
		h.writeError(c, err, "failed to render document")
		return
	}

	asHTML := strings.EqualFold(c.Query("format"), "html")

	var archivedPath string
	if archive, _ := strconv.ParseBool(c.DefaultQuery("archive", "false")); archive {
		extension := "txt"
		if asHTML {
			extension = "html"
		}
		if archivedPath, err = h.deps.Documents.Archive(ctx, doc, extension); err != nil {
			h.writeError(c, err, "failed to archive document")
			return
		}
	}

	if asHTML {
		c.HTML(http.StatusOK, printTemplateName, newPrintView(doc))
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RenderDocumentResponse{
			RenderedDocument: doc,
			ArchivedPath:     archivedPath,
		},
	})
}

// ListDocuments handles GET /api/engagements/:ref/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	names, err := h.deps.Documents.ListArchived(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.writeError(c, err, "failed to list documents")
		return
	}

	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    names,
	})
}

// ExportRegister handles GET /api/engagements/export
func (h *Handlers) ExportRegister(c *gin.Context) {
	if h.deps.Exporter == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "register export is not enabled",
		})
		return
	}

	ctx := c.Request.Context()
	filter := port.EngagementFilter{
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Limit:  exportPageSize,
	}

	var all []*entity.Engagement
	for {
		page, err := h.deps.Engagements.List(ctx, filter)
		if err != nil {
			h.writeError(c, err, "failed to list engagements")
			return
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	var buf bytes.Buffer
	if err := h.deps.Exporter.Export(ctx, all, &buf); err != nil {
		h.writeError(c, err, "failed to export register")
		return
	}

	fileName := "engagement-register-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, h.deps.Exporter.ContentType(), buf.Bytes())
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates, err := h.deps.Templates.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "failed to list templates")
		return
	}

	if templates == nil {
		templates = []*entity.DocumentTemplate{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    templates,
	})
}

// GetTemplate handles GET /api/templates/:name
func (h *Handlers) GetTemplate(c *gin.Context) {
	tpl, err := h.deps.Templates.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err, "failed to get template")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    tpl,
	})
}

// SaveTemplate handles PUT /api/templates/:name
func (h *Handlers) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	tpl := &entity.DocumentTemplate{
		Name:        c.Param("name"),
		DisplayName: req.DisplayName,
		Body:        req.Body,
	}
	if err := h.deps.Templates.Save(c.Request.Context(), tpl); err != nil {
		h.writeError(c, err, "failed to save template")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    tpl,
	})
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	h.logger.Error("Invalid request body", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body: " + err.Error(),
	})
}

// writeError maps service errors onto HTTP status codes. Internal errors are
// logged and replaced by fallback so storage details do not leak.
func (h *Handlers) writeError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback, "path", c.FullPath(), "error", err)
		message = fallback
	}

	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrMandatoryRemarksMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, port.ErrEngagementNotFound), errors.Is(err, port.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, port.ErrVersionConflict), errors.Is(err, port.ErrDuplicateReference):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidEngagement), errors.Is(err, service.ErrInvalidTemplate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// roleFrom reads the caller's role. An unrecognised value is kept as sent so the workflow denies it.
func roleFrom(c *gin.Context) workflow.Role {
	role, _ := workflow.ParseRole(c.GetHeader(HeaderActorRole))
	return role
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:   strings.TrimSpace(c.GetHeader(HeaderActorID)),
		Role: roleFrom(c),
	}
}

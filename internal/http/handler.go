package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurmak/signflow/internal/http/middleware"
	"github.com/nurmak/signflow/internal/model"
	"github.com/nurmak/signflow/internal/notify"
	"github.com/nurmak/signflow/internal/service"
)

type Handler struct {
	workflow *service.WorkflowService
	tokens   *notify.JWTMinter
	log      zerolog.Logger
}

func NewHandler(workflow *service.WorkflowService, tokens *notify.JWTMinter, log zerolog.Logger) *Handler {
	return &Handler{workflow: workflow, tokens: tokens, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.POST("/sign", h.completeSignature)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts/:id/export", h.exportRoster)
	protected.GET("/contracts/:id/certificate", h.completionCertificate)
	protected.POST("/contracts/:id/participants/:pid/approve", h.approveParticipant)
	protected.POST("/contracts/:id/participants/:pid/reject", h.rejectParticipant)
	protected.POST("/contracts/:id/participants/:pid/resign-request", h.requestResign)
	protected.POST("/contracts/:id/participants/:pid/resign-approve", h.approveResign)
	protected.POST("/companies/:id/renew", h.renewContract)
	protected.GET("/participants/:pid/documents", h.listRequiredDocuments)
	protected.POST("/participants/:pid/documents/:type", h.attachDocument)
	protected.GET("/participants/:pid/artifact", h.signedArtifact)
}

type templateRequest struct {
	Name         string `json:"name" binding:"required"`
	FileURL      string `json:"file_url" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

type participantRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Channel string `json:"channel" binding:"required"`
}

type documentTypeRequest struct {
	Code     string `json:"code" binding:"required"`
	Required bool   `json:"required"`
}

type createContractRequest struct {
	CompanyID      string                `json:"company_id" binding:"required"`
	Title          string                `json:"title" binding:"required"`
	Description    string                `json:"description"`
	StartDate      string                `json:"start_date" binding:"required"`
	ExpiryDate     string                `json:"expiry_date" binding:"required"`
	DeadlineDate   string                `json:"deadline_date"`
	InsuranceStart string                `json:"insurance_start" binding:"required"`
	InsuranceEnd   string                `json:"insurance_end" binding:"required"`
	Templates      []templateRequest     `json:"templates"`
	Participants   []participantRequest  `json:"participants" binding:"required"`
	DocumentTypes  []documentTypeRequest `json:"document_types"`
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	companyID, err := uuid.Parse(strings.TrimSpace(req.CompanyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}

	input := service.CreateContractInput{
		CompanyID:   companyID,
		Title:       req.Title,
		Description: req.Description,
	}
	if input.StartDate, err = parseDate(req.StartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	if input.ExpiryDate, err = parseDate(req.ExpiryDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry_date"})
		return
	}
	if req.DeadlineDate != "" {
		deadline, err := parseDate(req.DeadlineDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline_date"})
			return
		}
		input.DeadlineDate = &deadline
	}
	if input.InsuranceStart, err = parseDate(req.InsuranceStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insurance_start"})
		return
	}
	if input.InsuranceEnd, err = parseDate(req.InsuranceEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insurance_end"})
		return
	}
	for _, tpl := range req.Templates {
		input.Templates = append(input.Templates, service.TemplateInput{
			Name:         tpl.Name,
			FileURL:      tpl.FileURL,
			DisplayOrder: tpl.DisplayOrder,
		})
	}
	for _, p := range req.Participants {
		input.Participants = append(input.Participants, service.ParticipantInput{
			Name:    p.Name,
			Email:   p.Email,
			Phone:   p.Phone,
			Channel: model.NotifyChannel(strings.ToUpper(strings.TrimSpace(p.Channel))),
		})
	}
	for _, doc := range req.DocumentTypes {
		input.DocumentTypes = append(input.DocumentTypes, service.DocumentTypeInput{
			Code:     doc.Code,
			Required: doc.Required,
		})
	}

	contract, summary, err := h.workflow.CreateContract(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contract": contract, "notifications": summary})
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	contract, err := h.workflow.GetContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

func (h *Handler) listContracts(c *gin.Context) {
	companyID, err := uuid.Parse(strings.TrimSpace(c.Query("company_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}
	contracts, err := h.workflow.ListContracts(c.Request.Context(), companyID, intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

type approveRequest struct {
	Comment string `json:"comment"`
	Version int64  `json:"version" binding:"required"`
}

func (h *Handler) approveParticipant(c *gin.Context) {
	principal, contractID, participantID, ok := h.transitionContext(c)
	if !ok {
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := h.workflow.ApproveParticipant(c.Request.Context(), principal, contractID, participantID, req.Comment, req.Version)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

type rejectRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Version int64  `json:"version" binding:"required"`
}

func (h *Handler) rejectParticipant(c *gin.Context) {
	principal, contractID, participantID, ok := h.transitionContext(c)
	if !ok {
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := h.workflow.RejectParticipant(c.Request.Context(), principal, contractID, participantID, req.Reason, req.Version)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

type resignRequest struct {
	Reason  string `json:"reason" binding:"required"`
	Version int64  `json:"version" binding:"required"`
}

func (h *Handler) requestResign(c *gin.Context) {
	principal, contractID, participantID, ok := h.transitionContext(c)
	if !ok {
		return
	}
	var req resignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	participant, err := h.workflow.RequestResign(c.Request.Context(), principal, contractID, participantID, req.Reason, req.Version)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

type resignApproveRequest struct {
	Approver string `json:"approver" binding:"required"`
	Version  int64  `json:"version" binding:"required"`
}

func (h *Handler) approveResign(c *gin.Context) {
	principal, contractID, participantID, ok := h.transitionContext(c)
	if !ok {
		return
	}
	var req resignApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract, err := h.workflow.ApproveResign(c.Request.Context(), principal, contractID, participantID, req.Approver, req.Version)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

type renewRequest struct {
	StartDate      string `json:"start_date" binding:"required"`
	ExpiryDate     string `json:"expiry_date" binding:"required"`
	InsuranceStart string `json:"insurance_start" binding:"required"`
	InsuranceEnd   string `json:"insurance_end" binding:"required"`
}

func (h *Handler) renewContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	companyID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req renewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var renewal service.RenewalRequest
	var err error
	if renewal.StartDate, err = parseDate(req.StartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	if renewal.ExpiryDate, err = parseDate(req.ExpiryDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiry_date"})
		return
	}
	if renewal.InsuranceStart, err = parseDate(req.InsuranceStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insurance_start"})
		return
	}
	if renewal.InsuranceEnd, err = parseDate(req.InsuranceEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid insurance_end"})
		return
	}

	contract, summary, err := h.workflow.RenewContract(c.Request.Context(), principal, companyID, renewal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contract": contract, "notifications": summary})
}

type completeSignatureRequest struct {
	Token       string `json:"token" binding:"required"`
	ArtifactURL string `json:"artifact_url" binding:"required"`
}

// completeSignature is the signer callback. It is authenticated by the
// short-lived signing token minted at dispatch, not by a staff session.
func (h *Handler) completeSignature(c *gin.Context) {
	var req completeSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signing token"})
		return
	}
	contractID, err := uuid.Parse(claims.ContractID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signing token"})
		return
	}
	participantID, err := uuid.Parse(claims.ParticipantID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signing token"})
		return
	}

	contract, err := h.workflow.CompleteSignature(c.Request.Context(), contractID, participantID, req.ArtifactURL)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

func (h *Handler) exportRoster(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.workflow.ExportRoster(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) completionCertificate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.workflow.CompletionCertificate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) listRequiredDocuments(c *gin.Context) {
	participantID, ok := parseID(c, "pid")
	if !ok {
		return
	}
	docs, err := h.workflow.ListRequiredDocuments(c.Request.Context(), participantID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) signedArtifact(c *gin.Context) {
	participantID, ok := parseID(c, "pid")
	if !ok {
		return
	}
	url, err := h.workflow.SignedArtifact(c.Request.Context(), participantID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifact_url": url})
}

type attachDocumentRequest struct {
	FileURL string `json:"file_url" binding:"required"`
}

func (h *Handler) attachDocument(c *gin.Context) {
	participantID, ok := parseID(c, "pid")
	if !ok {
		return
	}
	var req attachDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.workflow.AttachDocument(c.Request.Context(), participantID, c.Param("type"), req.FileURL)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func (h *Handler) transitionContext(c *gin.Context) (model.Principal, uuid.UUID, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, uuid.Nil, false
	}
	contractID, ok := parseID(c, "id")
	if !ok {
		return model.Principal{}, uuid.Nil, uuid.Nil, false
	}
	participantID, ok := parseID(c, "pid")
	if !ok {
		return model.Principal{}, uuid.Nil, uuid.Nil, false
	}
	return principal, contractID, participantID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_TRANSITION"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "VERSION_CONFLICT"})
	default:
		h.log.Error().Err(err).Msg("workflow operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(param)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

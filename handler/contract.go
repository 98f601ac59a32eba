package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/middleware"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/pkg/metrics"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/service"
	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 5 << 20

// ContractHandler exposes the registry and its collaborators over HTTP.
// The LLM, archive and notifier services may each be nil when
// unconfigured; endpoints that need a missing one return 503.
type ContractHandler struct {
	registry *service.Registry
	llm      *service.LLMService
	archive  *service.ArchiveService
	notifier *service.Notifier
	sync     *service.Syncer
}

func NewContractHandler(
	registry *service.Registry,
	llm *service.LLMService,
	archive *service.ArchiveService,
	notifier *service.Notifier,
	sync *service.Syncer,
) *ContractHandler {
	return &ContractHandler{
		registry: registry,
		llm:      llm,
		archive:  archive,
		notifier: notifier,
		sync:     sync,
	}
}

type registerRequest struct {
	ID         string `json:"id"`
	Text       string `json:"text" binding:"required"`
	OwnerEmail string `json:"owner_email" binding:"required,email"`
	AutoApply  bool   `json:"auto_apply"`
}

// Register creates a contract record from JSON input.
func (h *ContractHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	rec, err := h.registry.Register(req.ID, req.Text, req.OwnerEmail, middleware.GetTenant(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.AutoApply {
		updated, err := h.registry.SetAutoApply(rec.ID, true)
		if err != nil {
			slog.Warn("failed to enable auto-apply", "contract_id", rec.ID, "error", err)
		} else {
			rec = updated
		}
	}
	metrics.ContractsRegistered.Inc()

	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusCreated, rec)
}

// Upload registers a contract from a multipart text file. The file stem
// becomes the contract id, matching intake-directory behavior.
func (h *ContractHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".txt" && ext != ".md" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .txt and .md files are allowed"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	owner := c.PostForm("owner_email")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_email is required"})
		return
	}

	id := strings.TrimSuffix(header.Filename, ext)
	rec, err := h.registry.Register(id, string(data), owner, middleware.GetTenant(c))
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.ContractsRegistered.Inc()

	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusCreated, gin.H{
		"id":       rec.ID,
		"filename": header.Filename,
		"status":   rec.Status,
	})
}

// List returns the tenant's contracts in registration order, without
// raw text to keep dashboard payloads small.
func (h *ContractHandler) List(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	result := []gin.H{}
	for rec := range h.registry.List(tenant) {
		result = append(result, gin.H{
			"id":                rec.ID,
			"owner_email":       rec.OwnerEmail,
			"status":            rec.Status,
			"risk_score":        rec.RiskScore,
			"archived":          rec.Archived,
			"version":           rec.Version,
			"framework":         rec.Framework,
			"regulatory_status": rec.RegulatoryStatus,
			"age_status":        rec.AgeStatus,
			"created_at":        rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":        rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a full contract record.
func (h *ContractHandler) Get(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetStatus returns just the lifecycle fields.
func (h *ContractHandler) GetStatus(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         rec.ID,
		"status":     rec.Status,
		"risk_score": rec.RiskScore,
		"archived":   rec.Archived,
		"version":    rec.Version,
	})
}

// Archive soft-deletes a contract. There is no hard delete.
func (h *ContractHandler) Archive(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}

	rec, err := h.registry.Archive(rec.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "archived": true})
}

// Extract runs LLM metadata extraction and merges the validated result.
func (h *ContractHandler) Extract(c *gin.Context) {
	rec, ok := h.mutableRecord(c)
	if !ok {
		return
	}
	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "LLM service not configured"})
		return
	}

	md, err := h.llm.ExtractMetadata(c.Request.Context(), rec.RawText)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, err = h.registry.UpdateMetadata(rec.ID, md)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "metadata": rec.Metadata})
}

type complianceRequest struct {
	Framework string `json:"framework" binding:"required"`
}

// CheckCompliance audits the contract against a framework, applies the
// result through the threshold policy, and alerts the owner when the
// policy says to.
func (h *ContractHandler) CheckCompliance(c *gin.Context) {
	rec, ok := h.mutableRecord(c)
	if !ok {
		return
	}
	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "LLM service not configured"})
		return
	}

	var req complianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: framework is required"})
		return
	}

	if _, err := h.registry.BeginReview(rec.ID, req.Framework); err != nil {
		respondError(c, err)
		return
	}

	verdict, err := h.llm.CheckCompliance(c.Request.Context(), rec.RawText, req.Framework)
	if err != nil {
		respondError(c, err)
		return
	}

	rec, notify, err := h.registry.ApplyComplianceResult(rec.ID, req.Framework, verdict.Violations, verdict.RiskScore)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.ComplianceChecks.WithLabelValues(string(rec.Status)).Inc()

	if notify && h.notifier != nil {
		if err := h.notifier.NotifyRiskAlert(rec); err != nil {
			slog.Warn("risk alert delivery failed", "contract_id", rec.ID, "error", err)
		}
	}
	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusOK, gin.H{
		"id":         rec.ID,
		"status":     rec.Status,
		"risk_score": rec.RiskScore,
		"violations": rec.Violations,
		"summary":    verdict.Summary,
		"notified":   notify && h.notifier != nil && h.notifier.Enabled(),
	})
}

type reviseRequest struct {
	RegulationText string `json:"regulation_text" binding:"required"`
}

// Revise asks the revision engine for updated text and records it as a
// new version, archiving the previous one.
func (h *ContractHandler) Revise(c *gin.Context) {
	rec, ok := h.mutableRecord(c)
	if !ok {
		return
	}
	if h.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "LLM service not configured"})
		return
	}

	var req reviseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: regulation_text is required"})
		return
	}

	revision, err := h.llm.GenerateRevision(c.Request.Context(), rec.RawText, req.RegulationText)
	if err != nil {
		respondError(c, err)
		return
	}

	changeLog := revision.ChangeLog
	if len(changeLog) == 0 {
		changeLog = service.DetectClauseChanges(rec.RawText, revision.RevisedText).ChangeLog()
	}

	rec, err = h.registry.ApplyRevision(rec.ID, revision.RevisedText, changeLog)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RevisionsApplied.Inc()

	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusOK, gin.H{
		"id":         rec.ID,
		"status":     rec.Status,
		"version":    rec.Version,
		"change_log": changeLog,
	})
}

// Download returns a presigned URL for one archived text version.
func (h *ContractHandler) Download(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Archive storage not configured"})
		return
	}

	url, err := h.archive.GetPresignedURL(c.Request.Context(), rec.Tenant, rec.ID, rec.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "version": rec.Version, "url": url})
}

// tenantRecord loads the record for :id and enforces tenant ownership.
// On failure it writes the response and returns ok=false.
func (h *ContractHandler) tenantRecord(c *gin.Context) (model.ContractRecord, bool) {
	rec, err := h.registry.Get(c.Param("id"))
	if err != nil || rec.Tenant != middleware.GetTenant(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return model.ContractRecord{}, false
	}
	return rec, true
}

// mutableRecord is tenantRecord plus an archived guard for endpoints
// that change the contract. Archived records are read-only to clients;
// the registry treats mutating one as an internal bug.
func (h *ContractHandler) mutableRecord(c *gin.Context) (model.ContractRecord, bool) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return model.ContractRecord{}, false
	}
	if rec.Archived {
		c.JSON(http.StatusConflict, gin.H{"error": "Contract is archived"})
		return model.ContractRecord{}, false
	}
	return rec, true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateContract):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrContractNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

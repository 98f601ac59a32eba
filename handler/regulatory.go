package handler

import (
	"net/http"
	"strconv"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/middleware"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/pkg/metrics"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/service"
	"github.com/gin-gonic/gin"
)

// RegulatoryHandler drives the regulatory engine: listing the
// regulation database, running sweep cycles, and applying proposals.
type RegulatoryHandler struct {
	engine   *service.RegulatoryEngine
	registry *service.Registry
	sync     *service.Syncer
}

func NewRegulatoryHandler(engine *service.RegulatoryEngine, registry *service.Registry, sync *service.Syncer) *RegulatoryHandler {
	return &RegulatoryHandler{engine: engine, registry: registry, sync: sync}
}

// ListRegulations returns the regulation database.
func (h *RegulatoryHandler) ListRegulations(c *gin.Context) {
	regs, err := h.engine.LoadRegulations()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"regulations": regs})
}

// RunCycle sweeps every regulation against the tenant's contracts.
func (h *RegulatoryHandler) RunCycle(c *gin.Context) {
	tenant := middleware.GetTenant(c)

	result, err := h.engine.RunCycle(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, err)
		return
	}

	// Contracts touched by the cycle get re-synced downstream.
	for rec := range h.registry.List(tenant) {
		if len(rec.Proposals) > 0 {
			h.sync.Sync(c.Request.Context(), rec)
		}
	}

	c.JSON(http.StatusOK, result)
}

// ListProposals returns the regulatory proposals for one contract.
func (h *RegulatoryHandler) ListProposals(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                rec.ID,
		"regulatory_status": rec.RegulatoryStatus,
		"proposals":         rec.Proposals,
	})
}

// ApplyProposal applies one suggested amendment as a contract revision.
func (h *RegulatoryHandler) ApplyProposal(c *gin.Context) {
	rec, ok := h.tenantRecord(c)
	if !ok {
		return
	}
	if rec.Archived {
		c.JSON(http.StatusConflict, gin.H{"error": "Contract is archived"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= len(rec.Proposals) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal index"})
		return
	}
	proposal := rec.Proposals[index]
	if proposal.Status == "applied" {
		c.JSON(http.StatusConflict, gin.H{"error": "Proposal already applied"})
		return
	}

	newText := service.ApplyAmendmentText(rec.RawText, proposal.Amendment)
	rec, err = h.registry.ApplyRevision(rec.ID, newText, []string{
		"applied amendment for " + proposal.RegulationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RevisionsApplied.Inc()

	if err := h.registry.MarkProposalApplied(rec.ID, index); err != nil {
		respondError(c, err)
		return
	}

	rec, err = h.registry.Get(rec.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.sync.Sync(c.Request.Context(), rec)

	c.JSON(http.StatusOK, gin.H{
		"id":      rec.ID,
		"status":  rec.Status,
		"version": rec.Version,
	})
}

func (h *RegulatoryHandler) tenantRecord(c *gin.Context) (model.ContractRecord, bool) {
	rec, err := h.registry.Get(c.Param("id"))
	if err != nil || rec.Tenant != middleware.GetTenant(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return model.ContractRecord{}, false
	}
	return rec, true
}

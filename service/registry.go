package service

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/policy"
	"github.com/google/uuid"
)

// Registry is the in-process owner of all contract records for the
// server's lifetime. It is constructed once in main and passed to every
// component that needs it; there is no ambient global.
//
// The map is guarded by a RWMutex because gin serves requests
// concurrently, but each operation is a single short critical section.
// Records never leave the registry by pointer: every operation returns
// a deep copy.
type Registry struct {
	mu            sync.RWMutex
	contracts     map[string]*model.ContractRecord
	order         []string // insertion order for List
	riskThreshold int
}

// NewRegistry creates an empty registry using the given compliance risk
// threshold.
func NewRegistry(riskThreshold int) *Registry {
	return &Registry{
		contracts:     make(map[string]*model.ContractRecord),
		riskThreshold: riskThreshold,
	}
}

// Register creates a new draft record. An empty id gets a generated
// uuid; a caller-supplied id that collides yields ErrDuplicateContract.
func (r *Registry) Register(id, text, owner, tenant string) (model.ContractRecord, error) {
	if text == "" {
		return model.ContractRecord{}, fmt.Errorf("%w: empty contract text", ErrValidation)
	}
	if id == "" {
		id = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[id]; exists {
		return model.ContractRecord{}, fmt.Errorf("%w: %s", ErrDuplicateContract, id)
	}

	now := time.Now()
	rec := &model.ContractRecord{
		ID:         id,
		Tenant:     tenant,
		OwnerEmail: owner,
		RawText:    text,
		TextHash:   TextHash(text),
		Status:     model.StatusDraft,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.contracts[id] = rec
	r.order = append(r.order, id)

	slog.Info("contract registered", "contract_id", id, "tenant", tenant)
	return rec.Clone(), nil
}

// Restore inserts a previously persisted record verbatim, used to warm
// the registry from the persistence adapter at startup. Records are
// restored in call order, so callers control the List ordering.
func (r *Registry) Restore(rec model.ContractRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record without id", ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.contracts[rec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, rec.ID)
	}
	clone := rec.Clone()
	r.contracts[rec.ID] = &clone
	r.order = append(r.order, rec.ID)
	return nil
}

// Get returns a copy of the record, or ErrContractNotFound.
func (r *Registry) Get(id string) (model.ContractRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.contracts[id]
	if !ok {
		return model.ContractRecord{}, fmt.Errorf("%w: %s", ErrContractNotFound, id)
	}
	return rec.Clone(), nil
}

// UpdateMetadata merges extracted fields into the record. Status is
// never touched here; extraction is not a lifecycle event.
func (r *Registry) UpdateMetadata(id string, fields model.Metadata) (model.ContractRecord, error) {
	return r.mutate(id, func(rec *model.ContractRecord) {
		rec.Metadata.Merge(fields)
	})
}

// BeginReview marks the record as under review before a compliance
// check runs.
func (r *Registry) BeginReview(id, framework string) (model.ContractRecord, error) {
	return r.mutate(id, func(rec *model.ContractRecord) {
		rec.Framework = framework
		rec.Status = model.StatusUnderReview
	})
}

// ApplyComplianceResult records a checker verdict: it sets the risk
// score and derives the status from the threshold policy. The returned
// flag says whether the owner should be notified.
func (r *Registry) ApplyComplianceResult(id, framework string, violations []string, score int) (model.ContractRecord, bool, error) {
	notify := false
	rec, err := r.mutate(id, func(rec *model.ContractRecord) {
		rec.Framework = framework
		rec.Violations = append([]string(nil), violations...)
		rec.RiskScore = policy.ClampScore(score)
		rec.Status, notify = policy.Evaluate(violations, rec.RiskScore, r.riskThreshold)
	})
	if err != nil {
		return model.ContractRecord{}, false, err
	}
	slog.Info("compliance result applied",
		"contract_id", id,
		"status", rec.Status,
		"risk_score", rec.RiskScore,
		"violations", len(violations),
	)
	return rec, notify, nil
}

// ApplyRevision freezes the current version into history and replaces
// the raw text. History is append-only; prior entries are never
// rewritten.
func (r *Registry) ApplyRevision(id, newText string, changeLog []string) (model.ContractRecord, error) {
	if newText == "" {
		return model.ContractRecord{}, fmt.Errorf("%w: empty revision text", ErrValidation)
	}
	rec, err := r.mutate(id, func(rec *model.ContractRecord) {
		rec.Revisions = append(rec.Revisions, model.Revision{
			Version:   rec.Version,
			Text:      rec.RawText,
			ChangeLog: append([]string(nil), changeLog...),
			RevisedAt: time.Now(),
		})
		rec.Version++
		rec.RawText = newText
		rec.TextHash = TextHash(newText)
		rec.Status = model.StatusRevised
	})
	if err != nil {
		return model.ContractRecord{}, err
	}
	slog.Info("revision applied", "contract_id", id, "version", rec.Version)
	return rec, nil
}

// Archive soft-deletes a record. Archived records stay listable and
// keep their history; there is no hard delete.
func (r *Registry) Archive(id string) (model.ContractRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.contracts[id]
	if !ok {
		return model.ContractRecord{}, fmt.Errorf("%w: %s", ErrContractNotFound, id)
	}
	rec.Archived = true
	rec.UpdatedAt = time.Now()
	return rec.Clone(), nil
}

// SetAutoApply toggles automatic application of high-risk regulatory
// amendments for one contract.
func (r *Registry) SetAutoApply(id string, on bool) (model.ContractRecord, error) {
	return r.mutate(id, func(rec *model.ContractRecord) {
		rec.AutoApply = on
	})
}

// AddProposal appends a regulatory amendment proposal and updates the
// record's regulatory status label.
func (r *Registry) AddProposal(id string, p model.Proposal, label string) (model.ContractRecord, error) {
	return r.mutate(id, func(rec *model.ContractRecord) {
		rec.Proposals = append(rec.Proposals, p)
		rec.RegulatoryStatus = label
	})
}

// MarkRegulatorySwept records the outcome of a sweep pass that raised no
// proposal: the age bucket is refreshed and the regulatory status falls
// back to OK unless an earlier sweep already assigned a risk label.
func (r *Registry) MarkRegulatorySwept(id, ageStatus string) (model.ContractRecord, error) {
	return r.mutate(id, func(rec *model.ContractRecord) {
		rec.AgeStatus = ageStatus
		if rec.RegulatoryStatus == "" {
			rec.RegulatoryStatus = policy.LabelOK
		}
	})
}

// MarkProposalApplied flips one proposal to applied.
func (r *Registry) MarkProposalApplied(id string, index int) error {
	_, err := r.mutate(id, func(rec *model.ContractRecord) {
		if index < 0 || index >= len(rec.Proposals) {
			return
		}
		rec.Proposals[index].Status = "applied"
	})
	return err
}

// List returns a lazy, restartable snapshot of the tenant's records in
// registration order. The id order is captured at call time; each pass
// over the sequence re-reads the current records, and records removed
// in the meantime are skipped.
func (r *Registry) List(tenant string) iter.Seq[model.ContractRecord] {
	r.mu.RLock()
	ids := append([]string(nil), r.order...)
	r.mu.RUnlock()

	return func(yield func(model.ContractRecord) bool) {
		for _, id := range ids {
			r.mu.RLock()
			rec, ok := r.contracts[id]
			var out model.ContractRecord
			if ok && rec.Tenant == tenant {
				out = rec.Clone()
			}
			r.mu.RUnlock()

			if out.ID == "" {
				continue
			}
			if !yield(out) {
				return
			}
		}
	}
}

// Count returns the number of records in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}

// mutate applies fn to a live record under the write lock and returns a
// copy. Mutating an archived record indicates a broken call path and is
// treated as a programming error.
func (r *Registry) mutate(id string, fn func(*model.ContractRecord)) (model.ContractRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.contracts[id]
	if !ok {
		return model.ContractRecord{}, fmt.Errorf("%w: %s", ErrContractNotFound, id)
	}
	if rec.Archived {
		panic(fmt.Sprintf("registry: mutation of archived contract %s", id))
	}
	fn(rec)
	rec.UpdatedAt = time.Now()
	return rec.Clone(), nil
}

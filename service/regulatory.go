package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/policy"
	"gopkg.in/yaml.v3"
)

// seedRegulations is written to the regulation DB file on first run so
// the engine has something to evaluate before real feeds are loaded.
var seedRegulations = []model.Regulation{
	{
		ID:            "reg-2025-gdpr-consent",
		Title:         "GDPR: Consent Recordkeeping Update",
		Jurisdiction:  "EU",
		DatePublished: "2025-10-01",
		Summary:       "Requires explicit recording of consent metadata including timestamp and purpose.",
		Keywords:      []string{"consent", "personal data", "gdpr", "recordkeeping"},
	},
	{
		ID:            "reg-2025-data-localisation",
		Title:         "Data Localisation Advisory",
		Jurisdiction:  "IN",
		DatePublished: "2025-09-15",
		Summary:       "Advisory recommending storage of certain personal data within jurisdictional borders.",
		Keywords:      []string{"localis", "data localisation", "personal data", "cross-border"},
	},
}

// AmendmentDrafter is the one LLM call the engine makes; a nil drafter
// disables model-drafted amendments and the templated fallback is used
// instead.
type AmendmentDrafter interface {
	DraftAmendment(ctx context.Context, reg model.Regulation, matches []string) (string, error)
}

// RegulatoryEngine sweeps every regulation against every live contract,
// records amendment proposals on matching records, and optionally
// auto-applies amendments for contracts that opted in.
type RegulatoryEngine struct {
	registry  *Registry
	drafter   AmendmentDrafter
	dbFile    string
	suggest   int
	autoApply int
}

// CycleResult summarizes one engine run.
type CycleResult struct {
	Evaluated   int              `json:"evaluated"`
	Proposals   []model.Proposal `json:"proposals"`
	AutoApplied []string         `json:"auto_applied"`
}

func NewRegulatoryEngine(cfg *config.Config, registry *Registry, drafter AmendmentDrafter) *RegulatoryEngine {
	return &RegulatoryEngine{
		registry:  registry,
		drafter:   drafter,
		dbFile:    cfg.Regulatory.DBFile,
		suggest:   cfg.Policy.SuggestThreshold,
		autoApply: cfg.Policy.AutoApplyThreshold,
	}
}

// LoadRegulations reads the regulation DB file, seeding it with the
// demo entries when it does not exist yet.
func (e *RegulatoryEngine) LoadRegulations() ([]model.Regulation, error) {
	data, err := os.ReadFile(e.dbFile)
	if os.IsNotExist(err) {
		if err := e.saveRegulations(seedRegulations); err != nil {
			return nil, err
		}
		return append([]model.Regulation(nil), seedRegulations...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read regulation db: %w", err)
	}

	var regs []model.Regulation
	if err := yaml.Unmarshal(data, &regs); err != nil {
		return nil, fmt.Errorf("failed to parse regulation db: %w", err)
	}
	return regs, nil
}

func (e *RegulatoryEngine) saveRegulations(regs []model.Regulation) error {
	data, err := yaml.Marshal(regs)
	if err != nil {
		return fmt.Errorf("failed to marshal regulations: %w", err)
	}
	if err := os.WriteFile(e.dbFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write regulation db: %w", err)
	}
	return nil
}

// RunCycle evaluates every regulation against every non-archived
// contract of the tenant. For each pair whose regulatory risk reaches
// the suggest threshold, a proposal is attached to the record; records
// with auto-apply enabled and risk at or above the auto-apply threshold
// get the amendment applied as a revision immediately.
func (e *RegulatoryEngine) RunCycle(ctx context.Context, tenant string) (CycleResult, error) {
	regs, err := e.LoadRegulations()
	if err != nil {
		return CycleResult{}, err
	}

	var result CycleResult
	now := time.Now()

	// Every live contract gets its dashboard fields refreshed first: the
	// age bucket is recomputed and the regulatory status defaults to OK.
	// Proposals raised below overwrite the label with a risk one.
	for rec := range e.registry.List(tenant) {
		if rec.Archived {
			continue
		}
		bucket := policy.AgeBucket(rec.Metadata.EffectiveDate, now)
		if _, err := e.registry.MarkRegulatorySwept(rec.ID, bucket); err != nil {
			slog.Warn("failed to record sweep status", "contract_id", rec.ID, "error", err)
		}
	}

	for _, reg := range regs {
		for rec := range e.registry.List(tenant) {
			if rec.Archived {
				continue
			}
			result.Evaluated++

			matches := policy.KeywordMatches(reg.Keywords, rec.RawText)
			risk := policy.RegulatoryRisk(reg, rec.Metadata.Jurisdiction, rec.Metadata.EffectiveDate, rec.RawText, now)
			if risk < e.suggest {
				continue
			}

			amendment := e.draftAmendment(ctx, reg, matches)
			proposal := model.Proposal{
				RegulationID: reg.ID,
				Risk:         risk,
				Matches:      matches,
				Amendment:    amendment,
				Status:       "suggested",
				CreatedAt:    now,
			}

			if _, err := e.registry.AddProposal(rec.ID, proposal, policy.Classify(risk)); err != nil {
				slog.Warn("failed to attach proposal", "contract_id", rec.ID, "error", err)
				continue
			}
			result.Proposals = append(result.Proposals, proposal)

			slog.Info("regulatory proposal created",
				"contract_id", rec.ID,
				"regulation_id", reg.ID,
				"risk", risk,
				"label", policy.Classify(risk),
			)

			if rec.AutoApply && risk >= e.autoApply {
				newText := ApplyAmendmentText(rec.RawText, amendment)
				updated, err := e.registry.ApplyRevision(rec.ID, newText, []string{
					fmt.Sprintf("auto-applied amendment for %s", reg.ID),
				})
				if err != nil {
					slog.Warn("auto-apply failed", "contract_id", rec.ID, "error", err)
					continue
				}
				if err := e.registry.MarkProposalApplied(rec.ID, len(updated.Proposals)-1); err != nil {
					slog.Warn("failed to mark proposal applied", "contract_id", rec.ID, "error", err)
				}
				result.AutoApplied = append(result.AutoApplied, rec.ID)
			}
		}
	}

	return result, nil
}

func (e *RegulatoryEngine) draftAmendment(ctx context.Context, reg model.Regulation, matches []string) string {
	if e.drafter != nil {
		text, err := e.drafter.DraftAmendment(ctx, reg, matches)
		if err == nil && text != "" {
			return text
		}
		slog.Warn("LLM amendment draft failed, using template", "regulation_id", reg.ID, "error", err)
	}
	return TemplateAmendment(reg, matches)
}

// TemplateAmendment builds the fallback amendment text from canned
// clause language keyed off the matched topics.
func TemplateAmendment(reg model.Regulation, matches []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Amendment suggestion for %s: %s\n", reg.ID, reg.Title)
	fmt.Fprintf(&sb, "Jurisdiction: %s | Published: %s\n\n", reg.Jurisdiction, reg.DatePublished)
	fmt.Fprintf(&sb, "Summary:\n%s\n\n", reg.Summary)
	sb.WriteString("Detected matches: ")
	if len(matches) > 0 {
		sb.WriteString(strings.Join(matches, ", "))
	} else {
		sb.WriteString("None")
	}
	sb.WriteString("\n\nSuggested (draft) clause language:\n")

	wrote := false
	if matchesAny(matches, "consent") {
		sb.WriteString("- Consent recordkeeping: The parties shall obtain explicit consent and retain timestamp and purpose of consent for audit purposes.\n")
		wrote = true
	}
	if matchesAny(matches, "localis", "local") {
		sb.WriteString("- Data localisation: Certain personal data must be stored within the jurisdiction and transferred only under documented safeguards.\n")
		wrote = true
	}
	if matchesAny(matches, "privacy", "notice") {
		sb.WriteString("- Privacy notice: Update privacy notice to include profiling logic and legal basis for processing.\n")
		wrote = true
	}
	if !wrote {
		sb.WriteString("- General recommendation: review contract for personal data handling and add explicit responsibilities.\n")
	}
	return sb.String()
}

// ApplyAmendmentText appends an amendment section to contract text.
func ApplyAmendmentText(contractText, amendment string) string {
	return contractText + "\n\n=== AMENDMENT ===\n" + amendment + "\n"
}

func matchesAny(matches []string, substrings ...string) bool {
	for _, m := range matches {
		lower := strings.ToLower(m)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

package model

import (
	"time"
)

// Status is the lifecycle state of a contract record. Transitions happen
// only through registry operations, never by direct assignment from a
// handler.
type Status string

const (
	StatusDraft        Status = "draft"
	StatusUnderReview  Status = "under_review"
	StatusCompliant    Status = "compliant"
	StatusNonCompliant Status = "non_compliant"
	StatusRevised      Status = "revised"
)

// Metadata holds the structured fields extracted from contract text.
// Every field is optional; extraction output is schema-validated before
// it is merged into a record.
type Metadata struct {
	Parties       []string `json:"parties,omitempty"`
	EffectiveDate string   `json:"effective_date,omitempty"`
	ExpiryDate    string   `json:"expiry_date,omitempty"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	ContractType  string   `json:"contract_type,omitempty"`
	GoverningLaw  string   `json:"governing_law,omitempty"`
	Clauses       []string `json:"clauses,omitempty"`
}

// Revision is a frozen prior version of a contract. History entries are
// append-only; nothing mutates them after they are written.
type Revision struct {
	Version   int       `json:"version"`
	Text      string    `json:"text"`
	ChangeLog []string  `json:"change_log,omitempty"`
	RevisedAt time.Time `json:"revised_at"`
}

// Proposal is a suggested amendment produced by the regulatory engine
// for one (regulation, contract) pair.
type Proposal struct {
	RegulationID string    `json:"regulation_id"`
	Risk         int       `json:"risk"`
	Matches      []string  `json:"matches,omitempty"`
	Amendment    string    `json:"amendment"`
	Status       string    `json:"status"` // suggested, applied
	CreatedAt    time.Time `json:"created_at"`
}

// ContractRecord is the registry's unit of state for one contract.
type ContractRecord struct {
	ID               string     `json:"id"`
	Tenant           string     `json:"tenant"`
	OwnerEmail       string     `json:"owner_email"`
	RawText          string     `json:"raw_text"`
	TextHash         string     `json:"text_hash,omitempty"`
	Metadata         Metadata   `json:"metadata"`
	RiskScore        int        `json:"risk_score"`
	Status           Status     `json:"status"`
	Archived         bool       `json:"archived"`
	Version          int        `json:"version"`
	Framework        string     `json:"framework,omitempty"`
	Violations       []string   `json:"violations,omitempty"`
	Revisions        []Revision `json:"revisions,omitempty"`
	Proposals        []Proposal `json:"proposals,omitempty"`
	RegulatoryStatus string     `json:"regulatory_status,omitempty"`
	AgeStatus        string     `json:"age_status,omitempty"`
	AutoApply        bool       `json:"auto_apply"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Clone returns a deep copy safe to hand outside the registry lock.
func (r *ContractRecord) Clone() ContractRecord {
	out := *r
	out.Metadata = r.Metadata.Clone()
	out.Violations = append([]string(nil), r.Violations...)
	out.Revisions = make([]Revision, len(r.Revisions))
	for i, rev := range r.Revisions {
		out.Revisions[i] = rev
		out.Revisions[i].ChangeLog = append([]string(nil), rev.ChangeLog...)
	}
	out.Proposals = make([]Proposal, len(r.Proposals))
	for i, p := range r.Proposals {
		out.Proposals[i] = p
		out.Proposals[i].Matches = append([]string(nil), p.Matches...)
	}
	return out
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	out := m
	out.Parties = append([]string(nil), m.Parties...)
	out.Clauses = append([]string(nil), m.Clauses...)
	return out
}

// Merge overlays non-empty fields from other onto m.
func (m *Metadata) Merge(other Metadata) {
	if len(other.Parties) > 0 {
		m.Parties = append([]string(nil), other.Parties...)
	}
	if other.EffectiveDate != "" {
		m.EffectiveDate = other.EffectiveDate
	}
	if other.ExpiryDate != "" {
		m.ExpiryDate = other.ExpiryDate
	}
	if other.Jurisdiction != "" {
		m.Jurisdiction = other.Jurisdiction
	}
	if other.ContractType != "" {
		m.ContractType = other.ContractType
	}
	if other.GoverningLaw != "" {
		m.GoverningLaw = other.GoverningLaw
	}
	if len(other.Clauses) > 0 {
		m.Clauses = append([]string(nil), other.Clauses...)
	}
}

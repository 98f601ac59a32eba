package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/pkg/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/xeipuuv/gojsonschema"
)

// metadataSchema is the contract the extractor's JSON output must meet
// before anything is merged into a record. Every field is optional; the
// schema exists to reject malformed shapes, not missing data.
const metadataSchema = `{
	"type": "object",
	"properties": {
		"parties":        {"type": "array", "items": {"type": "string"}},
		"effective_date": {"type": "string"},
		"expiry_date":    {"type": "string"},
		"jurisdiction":   {"type": "string"},
		"contract_type":  {"type": "string"},
		"governing_law":  {"type": "string"},
		"clauses":        {"type": "array", "items": {"type": "string"}}
	},
	"additionalProperties": true
}`

// LLMService wraps the Groq chat model behind the three contract
// operations the rest of the system needs. Groq speaks the OpenAI wire
// protocol, so the client is the langchaingo openai one pointed at the
// Groq endpoint.
type LLMService struct {
	model       llms.Model
	temperature float64
}

// ComplianceResult is the checker's parsed verdict.
type ComplianceResult struct {
	Violations []string `json:"violations"`
	RiskScore  int      `json:"risk_score"`
	Summary    string   `json:"summary,omitempty"`
}

// RevisionResult is the revision engine's parsed output.
type RevisionResult struct {
	RevisedText string   `json:"revised_text"`
	ChangeLog   []string `json:"change_log"`
}

func NewLLMService(cfg *config.GroqConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY not configured", ErrValidation)
	}
	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Groq client: %w", err)
	}
	return &LLMService{model: llm, temperature: cfg.Temperature}, nil
}

// ExtractMetadata asks the model for structured contract fields and
// validates the response against the metadata schema before decoding.
func (s *LLMService) ExtractMetadata(ctx context.Context, text string) (model.Metadata, error) {
	prompt := fmt.Sprintf(`You are a contract analyst. Extract structured metadata from the contract below.
Respond with a single JSON object using exactly these keys (omit any you cannot determine):
"parties" (array of strings), "effective_date", "expiry_date", "jurisdiction",
"contract_type", "governing_law", "clauses" (array of short clause titles).

Contract:
%s

JSON:`, truncate(text, 12000))

	raw, err := s.generate(ctx, "extract_metadata", prompt)
	if err != nil {
		return model.Metadata{}, err
	}

	doc := extractJSONObject(raw)
	if doc == "" {
		return model.Metadata{}, fmt.Errorf("%w: extractor returned no JSON", ErrExternalService)
	}
	if err := validateMetadataJSON(doc); err != nil {
		return model.Metadata{}, err
	}

	var md model.Metadata
	if err := json.Unmarshal([]byte(doc), &md); err != nil {
		return model.Metadata{}, fmt.Errorf("%w: failed to decode metadata: %v", ErrExternalService, err)
	}
	return md, nil
}

// CheckCompliance asks the model to audit the contract against a named
// regulatory framework and returns violations plus a 0-100 risk score.
func (s *LLMService) CheckCompliance(ctx context.Context, text, framework string) (ComplianceResult, error) {
	prompt := fmt.Sprintf(`You are a regulatory compliance auditor. Check the contract below against %s.
List every concrete violation and rate the overall compliance risk from 0 (fully compliant)
to 100 (severe violations). Respond with a single JSON object:
{"violations": ["..."], "risk_score": <0-100>, "summary": "..."}
If there are no violations, "violations" must be an empty array.

Contract:
%s

JSON:`, framework, truncate(text, 12000))

	raw, err := s.generate(ctx, "check_compliance", prompt)
	if err != nil {
		return ComplianceResult{}, err
	}

	doc := extractJSONObject(raw)
	if doc == "" {
		return ComplianceResult{}, fmt.Errorf("%w: checker returned no JSON", ErrExternalService)
	}

	var result ComplianceResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return ComplianceResult{}, fmt.Errorf("%w: failed to decode compliance result: %v", ErrExternalService, err)
	}
	if result.RiskScore < 0 || result.RiskScore > 100 {
		return ComplianceResult{}, fmt.Errorf("%w: risk score %d out of range", ErrExternalService, result.RiskScore)
	}
	return result, nil
}

// GenerateRevision rewrites the contract so it satisfies the given
// regulation text and reports what changed.
func (s *LLMService) GenerateRevision(ctx context.Context, text, regulation string) (RevisionResult, error) {
	prompt := fmt.Sprintf(`You are a contract drafting assistant. Revise the contract below so it complies
with the new regulation. Keep all unaffected clauses verbatim. Respond with a single JSON object:
{"revised_text": "...", "change_log": ["one entry per change"]}

New regulation:
%s

Contract:
%s

JSON:`, truncate(regulation, 4000), truncate(text, 12000))

	raw, err := s.generate(ctx, "generate_revision", prompt)
	if err != nil {
		return RevisionResult{}, err
	}

	doc := extractJSONObject(raw)
	if doc == "" {
		return RevisionResult{}, fmt.Errorf("%w: revision engine returned no JSON", ErrExternalService)
	}

	var result RevisionResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return RevisionResult{}, fmt.Errorf("%w: failed to decode revision: %v", ErrExternalService, err)
	}
	if result.RevisedText == "" {
		return RevisionResult{}, fmt.Errorf("%w: revision engine returned empty text", ErrExternalService)
	}
	return result, nil
}

// Answer produces a grounded answer for the RAG chatbot from retrieved
// contract chunks.
func (s *LLMService) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	var sb strings.Builder
	for i, c := range contexts {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i+1, c)
	}

	prompt := fmt.Sprintf(`Answer the question using only the contract excerpts below.
If the excerpts do not contain the answer, say so.

Excerpts:
%s
Question: %s

Answer:`, sb.String(), question)

	return s.generate(ctx, "answer", prompt)
}

// DraftAmendment writes suggested clause language for a regulatory
// proposal. Callers fall back to templated text when the model is not
// configured or fails.
func (s *LLMService) DraftAmendment(ctx context.Context, reg model.Regulation, matches []string) (string, error) {
	prompt := fmt.Sprintf(`Draft a short contract amendment addressing this regulatory update.
Title: %s
Jurisdiction: %s
Summary: %s
Matched topics in the contract: %s

Write 2-4 numbered draft clauses, plain text only.`,
		reg.Title, reg.Jurisdiction, reg.Summary, strings.Join(matches, ", "))

	return s.generate(ctx, "draft_amendment", prompt)
}

func (s *LLMService) generate(ctx context.Context, operation, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt,
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		metrics.LLMRequests.WithLabelValues(operation, "error").Inc()
		return "", fmt.Errorf("%w: %s: %v", ErrExternalService, operation, err)
	}
	metrics.LLMRequests.WithLabelValues(operation, "ok").Inc()
	return strings.TrimSpace(out), nil
}

func validateMetadataJSON(doc string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metadataSchema),
		gojsonschema.NewStringLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: metadata is not valid JSON: %v", ErrExternalService, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			issues = append(issues, e.String())
		}
		return fmt.Errorf("%w: extractor output failed schema validation: %s",
			ErrExternalService, strings.Join(issues, "; "))
	}
	return nil
}

var (
	jsonBlockPattern  = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// extractJSONObject pulls a JSON object out of a model response,
// tolerating markdown code fences and surrounding prose.
func extractJSONObject(content string) string {
	if matches := jsonBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		return matches[1]
	}
	return jsonObjectPattern.FindString(content)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns canned responses in order, one per call.
type fakeModel struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, t.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[f.calls%len(f.responses)]
	f.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: resp}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestLLM(responses ...string) (*LLMService, *fakeModel) {
	fake := &fakeModel{responses: responses}
	return &LLMService{model: fake, temperature: 0.1}, fake
}

func TestNewLLMServiceRequiresKey(t *testing.T) {
	_, err := NewLLMService(&config.GroqConfig{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation without API key, got %v", err)
	}
}

func TestExtractMetadata(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
	}{
		{
			name:     "plain JSON",
			response: `{"parties": ["Acme Corp", "Beta LLC"], "jurisdiction": "EU", "contract_type": "NDA"}`,
		},
		{
			name: "fenced JSON with prose",
			response: "Here is the extracted metadata:\n```json\n" +
				`{"parties": ["Acme Corp"], "governing_law": "German law"}` + "\n```\nLet me know if you need more.",
		},
		{
			name:     "no JSON at all",
			response: "I could not find any metadata in this contract.",
			wantErr:  true,
		},
		{
			name:     "schema violation",
			response: `{"parties": "Acme Corp"}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestLLM(tt.response)
			md, err := svc.ExtractMetadata(context.Background(), "contract text")

			if tt.wantErr {
				if !errors.Is(err, ErrExternalService) {
					t.Errorf("Expected ErrExternalService, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractMetadata failed: %v", err)
			}
			if len(md.Parties) == 0 || md.Parties[0] != "Acme Corp" {
				t.Errorf("Unexpected parties: %v", md.Parties)
			}
		})
	}
}

func TestCheckCompliance(t *testing.T) {
	svc, fake := newTestLLM(`{"violations": ["no data processing clause"], "risk_score": 85, "summary": "GDPR gaps"}`)

	result, err := svc.CheckCompliance(context.Background(), "contract text", "GDPR")
	if err != nil {
		t.Fatalf("CheckCompliance failed: %v", err)
	}
	if len(result.Violations) != 1 {
		t.Errorf("Expected 1 violation, got %d", len(result.Violations))
	}
	if result.RiskScore != 85 {
		t.Errorf("Expected risk score 85, got %d", result.RiskScore)
	}

	if len(fake.prompts) != 1 {
		t.Fatalf("Expected 1 prompt, got %d", len(fake.prompts))
	}
}

func TestCheckComplianceScoreOutOfRange(t *testing.T) {
	svc, _ := newTestLLM(`{"violations": [], "risk_score": 150}`)

	_, err := svc.CheckCompliance(context.Background(), "text", "GDPR")
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("Expected ErrExternalService for out-of-range score, got %v", err)
	}
}

func TestCheckComplianceModelError(t *testing.T) {
	fake := &fakeModel{err: errors.New("rate limited")}
	svc := &LLMService{model: fake}

	_, err := svc.CheckCompliance(context.Background(), "text", "GDPR")
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("Expected ErrExternalService, got %v", err)
	}
}

func TestGenerateRevision(t *testing.T) {
	svc, _ := newTestLLM(`{"revised_text": "revised contract body", "change_log": ["added consent clause"]}`)

	result, err := svc.GenerateRevision(context.Background(), "old text", "new consent regulation")
	if err != nil {
		t.Fatalf("GenerateRevision failed: %v", err)
	}
	if result.RevisedText != "revised contract body" {
		t.Errorf("Unexpected revised text: %q", result.RevisedText)
	}
	if len(result.ChangeLog) != 1 {
		t.Errorf("Expected 1 change log entry, got %d", len(result.ChangeLog))
	}
}

func TestGenerateRevisionEmptyText(t *testing.T) {
	svc, _ := newTestLLM(`{"revised_text": "", "change_log": []}`)

	_, err := svc.GenerateRevision(context.Background(), "old text", "regulation")
	if !errors.Is(err, ErrExternalService) {
		t.Errorf("Expected ErrExternalService for empty revision, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "fenced with language tag",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "fenced without language tag",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "prose around object",
			content: "Sure, here you go: {\"a\": 1} hope that helps",
			want:    `{"a": 1}`,
		},
		{
			name:    "no object",
			content: "no structured data here",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.content); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("Expected abcd, got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("Expected abc, got %q", got)
	}
}

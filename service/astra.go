package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
)

// AstraService talks to the AstraDB Data API over JSON. Two collections
// are used: one for contract record snapshots and one for embedded
// text chunks backing the RAG chatbot.
type AstraService struct {
	endpoint   string
	token      string
	keyspace   string
	records    string
	chunks     string
	dimension  int
	httpClient *http.Client
}

// Chunk is one embedded slice of contract text stored for retrieval.
type Chunk struct {
	ID         string    `json:"_id,omitempty"`
	ContractID string    `json:"contract_id"`
	Tenant     string    `json:"tenant"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"$vector,omitempty"`
}

type astraCommand map[string]any

type astraResponse struct {
	Status map[string]json.RawMessage `json:"status,omitempty"`
	Data   struct {
		Document  json.RawMessage   `json:"document,omitempty"`
		Documents []json.RawMessage `json:"documents,omitempty"`
	} `json:"data,omitempty"`
	Errors []struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode,omitempty"`
	} `json:"errors,omitempty"`
}

func NewAstraService(cfg *config.AstraConfig) (*AstraService, error) {
	if cfg.Token == "" || cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: Astra token or endpoint not configured", ErrValidation)
	}
	return &AstraService{
		endpoint:  cfg.Endpoint,
		token:     cfg.Token,
		keyspace:  cfg.Keyspace,
		records:   cfg.Records,
		chunks:    cfg.Chunks,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// EnsureCollections creates the record and chunk collections if they do
// not exist. Creating an existing collection is a no-op on the Data API.
func (s *AstraService) EnsureCollections(ctx context.Context) error {
	if _, err := s.command(ctx, "", astraCommand{
		"createCollection": map[string]any{"name": s.records},
	}); err != nil {
		return err
	}
	_, err := s.command(ctx, "", astraCommand{
		"createCollection": map[string]any{
			"name": s.chunks,
			"options": map[string]any{
				"vector": map[string]any{"dimension": s.dimension, "metric": "cosine"},
			},
		},
	})
	return err
}

// SaveRecord upserts a contract record snapshot keyed by contract id.
func (s *AstraService) SaveRecord(ctx context.Context, rec model.ContractRecord) error {
	doc, err := recordDocument(rec)
	if err != nil {
		return err
	}
	_, err = s.command(ctx, s.records, astraCommand{
		"findOneAndReplace": map[string]any{
			"filter":      map[string]any{"_id": rec.ID},
			"replacement": doc,
			"options":     map[string]any{"upsert": true},
		},
	})
	return err
}

// LoadRecord fetches one saved record, or ErrContractNotFound.
func (s *AstraService) LoadRecord(ctx context.Context, id string) (model.ContractRecord, error) {
	resp, err := s.command(ctx, s.records, astraCommand{
		"findOne": map[string]any{
			"filter": map[string]any{"_id": id},
		},
	})
	if err != nil {
		return model.ContractRecord{}, err
	}
	if len(resp.Data.Document) == 0 || string(resp.Data.Document) == "null" {
		return model.ContractRecord{}, fmt.Errorf("%w: %s", ErrContractNotFound, id)
	}

	var rec model.ContractRecord
	if err := json.Unmarshal(resp.Data.Document, &rec); err != nil {
		return model.ContractRecord{}, fmt.Errorf("%w: failed to decode record: %v", ErrExternalService, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

// ListRecordIDs returns the ids of all saved records, used to warm the
// registry at startup.
func (s *AstraService) ListRecordIDs(ctx context.Context) ([]string, error) {
	resp, err := s.command(ctx, s.records, astraCommand{
		"find": map[string]any{
			"projection": map[string]any{"_id": 1},
		},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Data.Documents))
	for _, doc := range resp.Data.Documents {
		var row struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(doc, &row); err != nil {
			continue
		}
		if row.ID != "" {
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}

// DeleteChunks removes all stored chunks for one contract, called
// before re-indexing a revised text.
func (s *AstraService) DeleteChunks(ctx context.Context, contractID string) error {
	_, err := s.command(ctx, s.chunks, astraCommand{
		"deleteMany": map[string]any{
			"filter": map[string]any{"contract_id": contractID},
		},
	})
	return err
}

// InsertChunks stores embedded text chunks for similarity search.
func (s *AstraService) InsertChunks(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]any, len(chunks))
	for i, c := range chunks {
		docs[i] = c
	}
	_, err := s.command(ctx, s.chunks, astraCommand{
		"insertMany": map[string]any{
			"documents": docs,
			"options":   map[string]any{"ordered": false},
		},
	})
	return err
}

// QuerySimilar returns the k chunks nearest to the given embedding,
// scoped to one tenant.
func (s *AstraService) QuerySimilar(ctx context.Context, embedding []float32, tenant string, k int) ([]Chunk, error) {
	resp, err := s.command(ctx, s.chunks, astraCommand{
		"find": map[string]any{
			"filter": map[string]any{"tenant": tenant},
			"sort":   map[string]any{"$vector": embedding},
			"options": map[string]any{
				"limit": k,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(resp.Data.Documents))
	for _, doc := range resp.Data.Documents {
		var c Chunk
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("%w: failed to decode chunk: %v", ErrExternalService, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *AstraService) command(ctx context.Context, collection string, cmd astraCommand) (*astraResponse, error) {
	url := fmt.Sprintf("%s/api/json/v1/%s", s.endpoint, s.keyspace)
	if collection != "" {
		url += "/" + collection
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Token", s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: astra request failed: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read astra response: %v", ErrExternalService, err)
	}

	var parsed astraResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse astra response: %v, body: %s", ErrExternalService, err, string(raw))
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("%w: astra API error: %s", ErrExternalService, parsed.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: astra returned status %d", ErrExternalService, resp.StatusCode)
	}
	return &parsed, nil
}

// recordDocument converts a record into a Data API document with _id.
func recordDocument(rec model.ContractRecord) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to build document: %w", err)
	}
	doc["_id"] = rec.ID
	return doc, nil
}

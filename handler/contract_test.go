package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupContractRouter(registry *service.Registry, tenant string) *gin.Engine {
	handler := NewContractHandler(registry, nil, nil, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant", tenant)
		c.Next()
	})
	router.POST("/contracts", handler.Register)
	router.POST("/contracts/upload", handler.Upload)
	router.GET("/contracts", handler.List)
	router.GET("/contracts/:id", handler.Get)
	router.GET("/contracts/:id/status", handler.GetStatus)
	router.POST("/contracts/:id/archive", handler.Archive)
	router.POST("/contracts/:id/extract", handler.Extract)
	router.POST("/contracts/:id/compliance", handler.CheckCompliance)
	router.POST("/contracts/:id/revise", handler.Revise)
	router.GET("/contracts/:id/download", handler.Download)
	return router
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContractHandlerRegister(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	w := postJSON(router, "/contracts", gin.H{
		"id":          "c1",
		"text":        "Contract A text",
		"owner_email": "a@x.com",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "c1" {
		t.Errorf("Expected id c1, got %v", response["id"])
	}
	if response["status"] != "draft" {
		t.Errorf("Expected status draft, got %v", response["status"])
	}
}

func TestContractHandlerRegisterDuplicate(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	payload := gin.H{"id": "c1", "text": "text", "owner_email": "a@x.com"}
	if w := postJSON(router, "/contracts", payload); w.Code != http.StatusCreated {
		t.Fatalf("First register failed: %d", w.Code)
	}

	w := postJSON(router, "/contracts", payload)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestContractHandlerRegisterValidation(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	tests := []struct {
		name    string
		payload gin.H
	}{
		{"missing text", gin.H{"owner_email": "a@x.com"}},
		{"missing email", gin.H{"text": "some text"}},
		{"bad email", gin.H{"text": "some text", "owner_email": "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := postJSON(router, "/contracts", tt.payload); w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestContractHandlerUpload(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "vendor-nda.txt")
	part.Write([]byte("NDA contract text"))
	mw.WriteField("owner_email", "a@x.com")
	mw.Close()

	req := httptest.NewRequest("POST", "/contracts/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["id"] != "vendor-nda" {
		t.Errorf("Expected id from file stem, got %v", response["id"])
	}

	rec, err := registry.Get("vendor-nda")
	if err != nil {
		t.Fatalf("Uploaded contract not in registry: %v", err)
	}
	if rec.RawText != "NDA contract text" {
		t.Errorf("Unexpected stored text: %q", rec.RawText)
	}
}

func TestContractHandlerUploadRejectsExtension(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "contract.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.WriteField("owner_email", "a@x.com")
	mw.Close()

	req := httptest.NewRequest("POST", "/contracts/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for pdf upload, got %d", w.Code)
	}
}

func TestContractHandlerList(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "first", "a@x.com", "tenant1")
	registry.Register("c2", "second", "a@x.com", "tenant1")
	registry.Register("c3", "other tenant", "b@y.com", "tenant2")

	router := setupContractRouter(registry, "tenant1")

	req := httptest.NewRequest("GET", "/contracts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string][]map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	contracts := response["contracts"]
	if len(contracts) != 2 {
		t.Fatalf("Expected 2 contracts for tenant1, got %d", len(contracts))
	}
	if contracts[0]["id"] != "c1" || contracts[1]["id"] != "c2" {
		t.Errorf("Expected registration order, got %v then %v", contracts[0]["id"], contracts[1]["id"])
	}
	if _, ok := contracts[0]["raw_text"]; ok {
		t.Error("List must not include raw text")
	}
}

func TestContractHandlerGet(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")

	router := setupContractRouter(registry, "tenant1")

	req := httptest.NewRequest("GET", "/contracts/c1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["raw_text"] != "text" {
		t.Errorf("Expected full record with raw text, got %v", response)
	}
}

func TestContractHandlerGetWrongTenant(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")

	router := setupContractRouter(registry, "tenant2")

	req := httptest.NewRequest("GET", "/contracts/c1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for cross-tenant access, got %d", w.Code)
	}
}

func TestContractHandlerStatus(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")

	router := setupContractRouter(registry, "tenant1")

	req := httptest.NewRequest("GET", "/contracts/c1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "draft" || response["version"] != float64(1) {
		t.Errorf("Unexpected status payload: %v", response)
	}
}

func TestContractHandlerArchive(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")

	router := setupContractRouter(registry, "tenant1")

	req := httptest.NewRequest("POST", "/contracts/c1/archive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	rec, _ := registry.Get("c1")
	if !rec.Archived {
		t.Error("Expected record archived")
	}
}

func TestContractHandlerUnconfiguredServices(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")

	router := setupContractRouter(registry, "tenant1")

	tests := []struct {
		name   string
		method string
		path   string
		body   gin.H
	}{
		{"extract", "POST", "/contracts/c1/extract", nil},
		{"compliance", "POST", "/contracts/c1/compliance", gin.H{"framework": "GDPR"}},
		{"revise", "POST", "/contracts/c1/revise", gin.H{"regulation_text": "new rule"}},
		{"download", "GET", "/contracts/c1/download", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.method == "POST" {
				w = postJSON(router, tt.path, tt.body)
			} else {
				req := httptest.NewRequest(tt.method, tt.path, nil)
				w = httptest.NewRecorder()
				router.ServeHTTP(w, req)
			}
			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("Expected status 503, got %d", w.Code)
			}
		})
	}
}

func TestContractHandlerRegisterAutoApply(t *testing.T) {
	registry := service.NewRegistry(70)
	router := setupContractRouter(registry, "tenant1")

	w := postJSON(router, "/contracts", gin.H{
		"id":          "c1",
		"text":        "Contract A text",
		"owner_email": "a@x.com",
		"auto_apply":  true,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["auto_apply"] != true {
		t.Errorf("Expected auto_apply true in response, got %v", response["auto_apply"])
	}

	rec, err := registry.Get("c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !rec.AutoApply {
		t.Error("Expected auto-apply enabled on the stored record")
	}
}

func TestContractHandlerArchivedRejectsMutation(t *testing.T) {
	registry := service.NewRegistry(70)
	registry.Register("c1", "text", "a@x.com", "tenant1")
	if _, err := registry.Archive("c1"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	router := setupContractRouter(registry, "tenant1")

	tests := []struct {
		name string
		path string
		body gin.H
	}{
		{"extract", "/contracts/c1/extract", nil},
		{"compliance", "/contracts/c1/compliance", gin.H{"framework": "GDPR"}},
		{"revise", "/contracts/c1/revise", gin.H{"regulation_text": "new rule"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.path, tt.body)
			if w.Code != http.StatusConflict {
				t.Errorf("Expected status 409, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	// Reads stay available for archived contracts.
	req := httptest.NewRequest("GET", "/contracts/c1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 reading archived contract, got %d", w.Code)
	}
}

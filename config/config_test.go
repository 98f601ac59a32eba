package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: 9090
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "test-bucket"
  use_ssl: false
  expire_days: 14
groq:
  api_key: "file-key"
  model: "llama-3.1-8b-instant"
astra:
  token: "file-token"
  endpoint: "https://db.test.apps.astra.datastax.com"
  keyspace: "contracts_ks"
auth:
  jwt_secret: "test-secret"
  token_expire_hours: 48
log:
  level: "debug"
  format: "json"
policy:
  risk_threshold: 60
users:
  - username: "testuser"
    password: "testpass"
    tenant: "testtenant"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Minio.Endpoint)
	}
	if cfg.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Expected model llama-3.1-8b-instant, got %s", cfg.Groq.Model)
	}
	if cfg.Astra.Keyspace != "contracts_ks" {
		t.Errorf("Expected keyspace contracts_ks, got %s", cfg.Astra.Keyspace)
	}
	if cfg.Auth.TokenExpireHours != 48 {
		t.Errorf("Expected token_expire_hours 48, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Policy.RiskThreshold != 60 {
		t.Errorf("Expected risk_threshold 60, got %d", cfg.Policy.RiskThreshold)
	}
	if len(cfg.Users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(cfg.Users))
	}
	if cfg.Users[0].Username != "testuser" {
		t.Errorf("Expected username testuser, got %s", cfg.Users[0].Username)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeTempConfig(t, `
minio:
  endpoint: "localhost:9000"
  access_key: "test"
  secret_key: "test"
  bucket: "bucket"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Minio.ExpireDays != 7 {
		t.Errorf("Expected default expire_days 7, got %d", cfg.Minio.ExpireDays)
	}
	if cfg.Auth.TokenExpireHours != 24 {
		t.Errorf("Expected default token_expire_hours 24, got %d", cfg.Auth.TokenExpireHours)
	}
	if cfg.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Expected default Groq base URL, got %s", cfg.Groq.BaseURL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Policy.RiskThreshold != 70 {
		t.Errorf("Expected default risk_threshold 70, got %d", cfg.Policy.RiskThreshold)
	}
	if cfg.Policy.SuggestThreshold != 40 {
		t.Errorf("Expected default suggest_threshold 40, got %d", cfg.Policy.SuggestThreshold)
	}
	if cfg.Policy.AutoApplyThreshold != 90 {
		t.Errorf("Expected default auto_apply_threshold 90, got %d", cfg.Policy.AutoApplyThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
groq:
  api_key: "file-key"
astra:
  token: "file-token"
`)

	t.Setenv("GROQ_API_KEY", "env-key")
	t.Setenv("ASTRA_DB_APPLICATION_TOKEN", "env-token")
	t.Setenv("ASTRA_DB_ID", "abc123")
	t.Setenv("ASTRA_DB_REGION", "eu-west-1")
	t.Setenv("SENDER_EMAIL", "alerts@example.com")
	t.Setenv("SENDER_PASSWORD", "app-password")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Groq.APIKey != "env-key" {
		t.Errorf("Expected env to override Groq key, got %s", cfg.Groq.APIKey)
	}
	if cfg.Astra.Token != "env-token" {
		t.Errorf("Expected env to override Astra token, got %s", cfg.Astra.Token)
	}
	if cfg.Astra.Endpoint != "https://abc123-eu-west-1.apps.astra.datastax.com" {
		t.Errorf("Unexpected Astra endpoint: %s", cfg.Astra.Endpoint)
	}
	if cfg.SMTP.Sender != "alerts@example.com" {
		t.Errorf("Expected sender from env, got %s", cfg.SMTP.Sender)
	}
	if cfg.SMTP.Password != "app-password" {
		t.Errorf("Expected password from env, got %s", cfg.SMTP.Password)
	}
}

func TestLoadMissingFile(t *testing.T) {
	// A missing file is fine: everything can come from env and defaults.
	cfg, err := Load("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "invalid: yaml: content:")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestFindUser(t *testing.T) {
	cfg := &Config{
		Users: []User{
			{Username: "user1", Password: "pass1", Tenant: "tenant1"},
			{Username: "user2", Password: "pass2", Tenant: "tenant2"},
		},
	}

	user := cfg.FindUser("user1")
	if user == nil {
		t.Fatal("Expected to find user1")
	}
	if user.Password != "pass1" {
		t.Errorf("Expected password pass1, got %s", user.Password)
	}

	if user = cfg.FindUser("nonexistent"); user != nil {
		t.Error("Expected nil for non-existent user")
	}
}

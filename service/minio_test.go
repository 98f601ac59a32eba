package service

import (
	"testing"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
)

func TestNewArchiveService(t *testing.T) {
	svc, err := NewArchiveService(&config.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "contracts",
	})
	if err != nil {
		t.Fatalf("NewArchiveService failed: %v", err)
	}
	if svc.bucket != "contracts" {
		t.Errorf("Expected bucket contracts, got %s", svc.bucket)
	}
}

func TestVersionObjectName(t *testing.T) {
	tests := []struct {
		tenant     string
		contractID string
		version    int
		want       string
	}{
		{"tenant1", "c1", 1, "tenant1/c1/v0001.txt"},
		{"tenant1", "c1", 12, "tenant1/c1/v0012.txt"},
		{"acme", "vendor-nda", 3, "acme/vendor-nda/v0003.txt"},
	}

	for _, tt := range tests {
		if got := versionObjectName(tt.tenant, tt.contractID, tt.version); got != tt.want {
			t.Errorf("versionObjectName(%s, %s, %d) = %s, want %s", tt.tenant, tt.contractID, tt.version, got, tt.want)
		}
	}
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
)

func newTestWatcher(t *testing.T, registry *Registry, onUpdate func(context.Context, model.ContractRecord)) (*IntakeWatcher, string) {
	t.Helper()
	dir := t.TempDir()
	w := NewIntakeWatcher(&config.WatchConfig{
		Dir:        dir,
		Tenant:     "tenant1",
		OwnerEmail: "intake@x.com",
	}, registry, onUpdate)
	return w, dir
}

func writeContractFile(t *testing.T, dir, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		t.Fatalf("Failed to write contract file: %v", err)
	}
}

func TestScanOnceRegistersNewFiles(t *testing.T) {
	registry := newTestRegistry()
	var updates []string
	w, dir := newTestWatcher(t, registry, func(_ context.Context, rec model.ContractRecord) {
		updates = append(updates, rec.ID)
	})

	writeContractFile(t, dir, "vendor-nda.txt", "NDA effective 2024 between the parties.")
	writeContractFile(t, dir, "notes.pdf", "ignored, wrong extension")
	writeContractFile(t, dir, "empty.txt", "   \n")

	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("ScanOnce failed: %v", err)
	}

	if registry.Count() != 1 {
		t.Fatalf("Expected 1 registered contract, got %d", registry.Count())
	}

	rec, err := registry.Get("vendor-nda")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Tenant != "tenant1" || rec.OwnerEmail != "intake@x.com" {
		t.Errorf("Unexpected ownership: tenant %s owner %s", rec.Tenant, rec.OwnerEmail)
	}
	// Year sniffed from the text lands in metadata.
	if rec.Metadata.EffectiveDate != "2024" {
		t.Errorf("Expected effective date 2024, got %q", rec.Metadata.EffectiveDate)
	}

	if len(updates) != 1 || updates[0] != "vendor-nda" {
		t.Errorf("Expected one update callback for vendor-nda, got %v", updates)
	}
}

func TestScanOnceRevisesChangedFiles(t *testing.T) {
	registry := newTestRegistry()
	w, dir := newTestWatcher(t, registry, nil)

	writeContractFile(t, dir, "msa.txt", "Payment due in 30 days")
	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("First scan failed: %v", err)
	}

	// Unchanged content is a no-op.
	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}
	rec, _ := registry.Get("msa")
	if rec.Version != 1 {
		t.Fatalf("Expected unchanged file to stay at version 1, got %d", rec.Version)
	}

	writeContractFile(t, dir, "msa.txt", "Payment due in 14 days")
	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("Third scan failed: %v", err)
	}

	rec, _ = registry.Get("msa")
	if rec.Version != 2 {
		t.Errorf("Expected version 2 after edit, got %d", rec.Version)
	}
	if len(rec.Revisions) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(rec.Revisions))
	}
	if rec.Revisions[0].Text != "Payment due in 30 days" {
		t.Errorf("Unexpected archived text: %q", rec.Revisions[0].Text)
	}
	if len(rec.Revisions[0].ChangeLog) == 0 {
		t.Error("Expected clause diff change log on the archived version")
	}
}

func TestScanOnceSkipsArchived(t *testing.T) {
	registry := newTestRegistry()
	w, dir := newTestWatcher(t, registry, nil)

	writeContractFile(t, dir, "old.txt", "original text")
	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	registry.Archive("old")

	writeContractFile(t, dir, "old.txt", "edited after archive")
	if err := w.ScanOnce(context.Background()); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	rec, _ := registry.Get("old")
	if rec.RawText != "original text" {
		t.Errorf("Archived record must not be revised, got %q", rec.RawText)
	}
}

func TestIsContractFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"contract.txt", true},
		{"contract.md", true},
		{"contract.TXT", true},
		{"contract.pdf", false},
		{"contract", false},
	}
	for _, tt := range tests {
		if got := isContractFile(tt.name); got != tt.want {
			t.Errorf("isContractFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

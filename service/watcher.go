package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/fsnotify/fsnotify"
)

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// IntakeWatcher registers contract text files dropped into a watched
// directory and turns on-disk edits into revisions. The file stem is
// the contract id, so re-saving a file updates its record instead of
// creating a new one.
type IntakeWatcher struct {
	registry *Registry
	dir      string
	tenant   string
	owner    string
	onUpdate func(ctx context.Context, rec model.ContractRecord)
}

// NewIntakeWatcher creates a watcher. onUpdate, if non-nil, runs after
// every registration or revision so callers can persist and re-index.
func NewIntakeWatcher(cfg *config.WatchConfig, registry *Registry, onUpdate func(ctx context.Context, rec model.ContractRecord)) *IntakeWatcher {
	return &IntakeWatcher{
		registry: registry,
		dir:      cfg.Dir,
		tenant:   cfg.Tenant,
		owner:    cfg.OwnerEmail,
		onUpdate: onUpdate,
	}
}

// Run performs a startup scan, then blocks watching the directory until
// the context is cancelled.
func (w *IntakeWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	if err := w.ScanOnce(ctx); err != nil {
		slog.Warn("intake scan failed", "dir", w.dir, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	slog.Info("intake watcher started", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isContractFile(event.Name) {
				continue
			}
			w.processFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("intake watcher error", "error", err)
		}
	}
}

// ScanOnce walks the directory and processes every contract file found.
func (w *IntakeWatcher) ScanOnce(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !isContractFile(entry.Name()) {
			continue
		}
		w.processFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

func (w *IntakeWatcher) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read contract file", "path", path, "error", err)
		return
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	existing, err := w.registry.Get(id)
	if errors.Is(err, ErrContractNotFound) {
		rec, err := w.registry.Register(id, text, w.owner, w.tenant)
		if err != nil {
			slog.Warn("failed to register scanned contract", "contract_id", id, "error", err)
			return
		}
		if date := yearPattern.FindString(text); date != "" {
			rec, _ = w.registry.UpdateMetadata(id, model.Metadata{EffectiveDate: date})
		}
		slog.Info("contract registered from intake dir", "contract_id", id, "path", path)
		w.notify(ctx, rec)
		return
	}
	if err != nil {
		slog.Warn("intake lookup failed", "contract_id", id, "error", err)
		return
	}
	if existing.Archived || existing.TextHash == TextHash(text) {
		return
	}

	changes := DetectClauseChanges(existing.RawText, text)
	rec, err := w.registry.ApplyRevision(id, text, changes.ChangeLog())
	if err != nil {
		slog.Warn("failed to apply scanned revision", "contract_id", id, "error", err)
		return
	}
	slog.Info("contract revised from intake dir",
		"contract_id", id,
		"version", rec.Version,
		"added", len(changes.Added),
		"removed", len(changes.Removed),
	)
	w.notify(ctx, rec)
}

func (w *IntakeWatcher) notify(ctx context.Context, rec model.ContractRecord) {
	if w.onUpdate != nil {
		w.onUpdate(ctx, rec)
	}
}

func isContractFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

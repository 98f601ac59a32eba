package service

import (
	"context"
	"log/slog"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
)

// Syncer fans a record snapshot out to every configured persistence
// backend: the Astra snapshot, the MinIO version archive, and the RAG
// index. Every path that changes a record goes through here, so a
// revision applied by a handler, the regulatory engine, or the intake
// watcher always lands in all three places.
//
// Each backend is optional and each push is best-effort: failures are
// logged and never block the operation that triggered the sync.
type Syncer struct {
	Astra   *AstraService
	Archive *ArchiveService
	RAG     *RAGService
}

// Sync pushes one record to the configured backends. Safe on a nil
// receiver so callers don't have to guard unconfigured wiring. Archived
// records keep their snapshot and stored versions but are not
// re-indexed for retrieval.
func (s *Syncer) Sync(ctx context.Context, rec model.ContractRecord) {
	if s == nil {
		return
	}
	if s.Astra != nil {
		if err := s.Astra.SaveRecord(ctx, rec); err != nil {
			slog.Warn("astra sync failed", "contract_id", rec.ID, "error", err)
		}
	}
	if s.Archive != nil {
		if _, err := s.Archive.StoreVersion(ctx, rec.Tenant, rec.ID, rec.Version, rec.RawText); err != nil {
			slog.Warn("archive sync failed", "contract_id", rec.ID, "error", err)
		}
	}
	if s.RAG != nil && !rec.Archived {
		if err := s.RAG.IndexContract(ctx, rec); err != nil {
			slog.Warn("index sync failed", "contract_id", rec.ID, "error", err)
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/handler"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/middleware"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/pkg/logger"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env first so config sees the secrets; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	registry := service.NewRegistry(cfg.Policy.RiskThreshold)

	// External collaborators are all optional: the service degrades to
	// registry-only operation when one is not configured.
	llmSvc, err := service.NewLLMService(&cfg.Groq)
	if err != nil {
		slog.Warn("LLM service unavailable", "error", err)
		llmSvc = nil
	}

	astraSvc, err := service.NewAstraService(&cfg.Astra)
	if err != nil {
		slog.Warn("Astra persistence unavailable", "error", err)
		astraSvc = nil
	} else if err := astraSvc.EnsureCollections(context.Background()); err != nil {
		slog.Warn("failed to ensure Astra collections", "error", err)
	}

	var archiveSvc *service.ArchiveService
	if cfg.Minio.Endpoint != "" {
		archiveSvc, err = service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Warn("archive storage unavailable", "error", err)
			archiveSvc = nil
		} else if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Warn("failed to ensure archive bucket", "error", err)
		}
	}

	notifier := service.NewNotifier(&cfg.SMTP)

	var ragSvc *service.RAGService
	if astraSvc != nil && llmSvc != nil {
		ragSvc, err = service.NewRAGService(&cfg.Embeddings, astraSvc, llmSvc)
		if err != nil {
			slog.Warn("RAG service unavailable", "error", err)
			ragSvc = nil
		}
	}

	var drafter service.AmendmentDrafter
	if llmSvc != nil {
		drafter = llmSvc
	}
	engine := service.NewRegulatoryEngine(cfg, registry, drafter)

	// Every path that changes a contract funnels through one syncer so
	// Astra, the version archive, and the RAG index never drift apart.
	syncer := &service.Syncer{Astra: astraSvc, Archive: archiveSvc, RAG: ragSvc}

	warmRegistry(registry, astraSvc)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Enabled {
		watcher := service.NewIntakeWatcher(&cfg.Watch, registry, syncer.Sync)
		go func() {
			if err := watcher.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("intake watcher stopped", "error", err)
			}
		}()
	}

	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(registry, llmSvc, archiveSvc, notifier, syncer)
	chatHandler := handler.NewChatHandler(ragSvc)
	regulatoryHandler := handler.NewRegulatoryHandler(engine, registry, syncer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"contracts": registry.Count(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/contracts", contractHandler.Register)
		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.GET("/contracts/:id/status", contractHandler.GetStatus)
		protected.GET("/contracts/:id/download", contractHandler.Download)
		protected.POST("/contracts/:id/archive", contractHandler.Archive)
		protected.POST("/contracts/:id/extract", contractHandler.Extract)
		protected.POST("/contracts/:id/compliance", contractHandler.CheckCompliance)
		protected.POST("/contracts/:id/revise", contractHandler.Revise)

		protected.GET("/contracts/:id/proposals", regulatoryHandler.ListProposals)
		protected.POST("/contracts/:id/proposals/:index/apply", regulatoryHandler.ApplyProposal)
		protected.GET("/regulations", regulatoryHandler.ListRegulations)
		protected.POST("/regulatory/run", regulatoryHandler.RunCycle)

		protected.POST("/chat", chatHandler.Ask)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// warmRegistry reloads persisted records into the registry so a restart
// does not lose the session state the UI depends on.
func warmRegistry(registry *service.Registry, astra *service.AstraService) {
	if astra == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ids, err := astra.ListRecordIDs(ctx)
	if err != nil {
		slog.Warn("failed to list persisted contracts", "error", err)
		return
	}

	restored := 0
	for _, id := range ids {
		rec, err := astra.LoadRecord(ctx, id)
		if err != nil {
			slog.Warn("failed to load persisted contract", "contract_id", id, "error", err)
			continue
		}
		if err := registry.Restore(rec); err != nil {
			slog.Warn("failed to restore contract", "contract_id", id, "error", err)
			continue
		}
		restored++
	}
	if restored > 0 {
		slog.Info("registry warmed from persistence", "contracts", restored)
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

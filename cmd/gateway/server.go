package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/mimprep/profile-audit/internal/api/http"
	auth "github.com/mimprep/profile-audit/internal/auth/middleware"
	"github.com/mimprep/profile-audit/internal/config"
	"github.com/mimprep/profile-audit/internal/db"
	"github.com/mimprep/profile-audit/internal/linkedin"
	"github.com/mimprep/profile-audit/internal/rbac"
	"github.com/mimprep/profile-audit/internal/results"
	"github.com/mimprep/profile-audit/internal/rubric"
	"github.com/mimprep/profile-audit/internal/storage"
	"github.com/mimprep/profile-audit/internal/submission"
	syncx "github.com/mimprep/profile-audit/internal/sync"
)

// devSecret signs offline tokens when no secret is configured.
const devSecret = "profile-audit-dev-key"

type server struct {
	cfg    config.Config
	logger *slog.Logger

	db        *sql.DB
	redis     *redis.Client
	store     results.Store
	cache     *results.CachedStore
	catalog   *rubric.Catalog
	cvStore   results.Store
	cvCatalog *rubric.Catalog
	blobs     storage.BlobStore
	journal   *syncx.EventRepo
	forwarder *submission.Forwarder
	searcher  *linkedin.Client
	authSvc   *auth.AuthService
	accounts  *auth.Accounts
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*server, error) {
	// devSecret is public; /admin must never verify against it online
	if cfg.Mode != config.ModeOffline && cfg.AuthHMACSecret == "" {
		return nil, fmt.Errorf("%w: auth_hmac_secret is required in %s mode", config.ErrInvalidConfig, cfg.Mode)
	}
	s := &server{cfg: cfg, logger: logger}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	s.db = dbh
	s.store = results.NewSQLStore(dbh)
	s.cvStore = results.NewSQLStore(dbh, results.WithTable(results.CVTable))
	s.journal = syncx.NewEventRepo(dbh)

	if cfg.RedisAddr != "" {
		client, err := results.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("result cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			s.redis = client
			s.cache = results.NewCachedStore(s.store, results.NewRedisCache(client), cfg.RedisTTL, logger)
			s.store = s.cache
		}
	}

	if s.catalog, err = rubric.Load(); err != nil {
		s.Close()
		return nil, err
	}
	if s.cvCatalog, err = rubric.LoadKind(rubric.KindCV); err != nil {
		s.Close()
		return nil, err
	}
	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("blob store: %w", err)
	}
	s.blobs = blobs

	s.forwarder = submission.NewForwarder(cfg.WebhookURL,
		submission.WithTimeout(cfg.WebhookTimeout),
		submission.WithFormMode(cfg.FormMode),
		submission.WithBlobStore(blobs),
		submission.WithJournal(s.journal),
		submission.WithCatalog(s.catalog),
		submission.WithLogger(logger))
	s.searcher = linkedin.NewClient(cfg.ApifyToken,
		linkedin.WithBaseURL(cfg.ApifyBaseURL),
		linkedin.WithLogger(logger))

	secret := cfg.AuthHMACSecret
	if secret == "" {
		secret = devSecret
	}
	s.authSvc = auth.NewAuthService(secret)
	s.accounts = auth.NewAccounts(
		auth.Account{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: rbac.RoleAdmin},
		auth.Account{Username: cfg.AnalystUser, PassHash: cfg.AnalystPassHash, Role: rbac.RoleAnalyst},
	)
	return s, nil
}

func (s *server) Close() {
	if s.cache != nil {
		st := s.cache.Stats()
		s.logger.Info("result cache", "hits", st.Hits, "misses", st.Misses, "errors", st.Errors)
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	// profile search polls for up to 30s
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.Healthz)
	r.Get("/readyz", api.ReadyzHandler(s.db))

	// Visitor API
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/results/{code}", api.GetReportHandler(s.store, s.catalog))
		ar.Get("/results/{code}/reveal", api.GetRevealHandler(s.store, s.catalog))
		ar.Get("/cv-results/{code}", api.GetReportHandler(s.cvStore, s.cvCatalog))
		ar.Get("/cv-results/{code}/reveal", api.GetRevealHandler(s.cvStore, s.cvCatalog))
		ar.Post("/submissions", api.SubmitHandler(s.forwarder))
		ar.Post("/linkedin/search", api.SearchProfilesHandler(s.searcher))
	})

	if s.cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(s.authSvc, s.accounts))
	}

	// Operator API (JWT -> role in context -> RBAC)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(auth.JWTMiddleware(s.authSvc))
		ar.Use(auth.AttachRoleFromAccounts(s.accounts, s.cfg.Mode == config.ModeOffline))

		ar.With(rbac.Require(rbac.PermResultsList)).
			Get("/results", api.ListResultsHandler(s.store))
		ar.With(rbac.Require(rbac.PermResultsExport)).
			Get("/results/export.xlsx", api.ExportResultsHandler(s.store))
		ar.With(rbac.Require(rbac.PermResultsView)).
			Get("/results/{code}", api.GetReportHandler(s.store, s.catalog))
		ar.With(rbac.Require(rbac.PermResultsView)).
			Get("/results/{code}/record", api.GetRecordHandler(s.store))
		ar.With(rbac.Require(rbac.PermResultsWrite)).
			Put("/results/{code}", api.PutResultHandler(s.store, s.journal, s.logger))
		ar.With(rbac.Require(rbac.PermResultsList)).
			Get("/cv-results", api.ListResultsHandler(s.cvStore))
		ar.With(rbac.Require(rbac.PermResultsView)).
			Get("/cv-results/{code}", api.GetReportHandler(s.cvStore, s.cvCatalog))
		ar.With(rbac.Require(rbac.PermResultsView)).
			Get("/cv-results/{code}/record", api.GetRecordHandler(s.cvStore))
		ar.With(rbac.Require(rbac.PermResultsWrite)).
			Put("/cv-results/{code}", api.PutResultHandler(s.cvStore, s.journal, s.logger))
		ar.With(rbac.Require(rbac.PermEventsView)).
			Get("/events", api.ListEventsHandler(s.journal))
		ar.With(rbac.RequireAny(rbac.PermResultsView, rbac.PermEventsView)).
			Route("/cvs", func(cr chi.Router) { api.MountCVs(cr, s.blobs) })
	})
	return r
}

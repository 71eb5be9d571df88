package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/auth"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/cache"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/clickhouse"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/dal"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/diagnostics"
	grpcserver "github.com/danielpache7/hackathon-AlphaRamos/internal/grpc"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/handlers"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/mocks"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/report"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoreboard"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoring"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = 10 * time.Minute
)

// auditTrail is the vote event sink: ClickHouse in production, in-memory otherwise
type auditTrail interface {
	handlers.AuditSink
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init()
	defer logger.Sync()

	logger.Info("Starting hackathon judging service", "environment", cfg.Environment)

	ev, err := config.LoadEvent(cfg.EventConfig)
	if err != nil {
		logger.Error("Failed to load event roster", "error", err)
		log.Fatalf("Failed to load event roster: %v", err)
	}
	check := diagnostics.CheckConfig(ev)
	for _, issue := range check.Issues {
		logger.Warn("Event configuration issue", "issue", issue)
	}
	for _, w := range check.Warnings {
		logger.Warn("Event configuration warning", "warning", w)
	}
	logger.Info("Event roster loaded", "event", ev.Name, "squads", len(ev.Squads), "judges", len(ev.Judges), "criteria", len(ev.Criteria))

	store := openStore(cfg)
	defer store.Close()

	ps, closeUpstream := openBus(cfg)
	defer closeUpstream()

	engine := scoring.NewEngine(ev.Criteria, ev.Squads, ev.Judges, ev.Categories)
	validator, err := diagnostics.NewScoreValidator(ev.Criteria)
	if err != nil {
		log.Fatalf("Failed to build score validator: %v", err)
	}

	// Last-known-good snapshot cache (optional)
	var (
		snapshotCache scoreboard.Cache
		cachePinger   handlers.Pinger
	)
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis)
		defer rc.Close()
		snapshotCache, cachePinger = rc, rc
		logger.Info("Using Redis snapshot cache", "address", cfg.Redis.Addr)
	} else {
		logger.Info("Redis not configured, snapshot cache disabled")
	}

	audit := openAuditTrail(cfg)
	defer audit.Close()

	// Authentication
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, !cfg.IsDevelopment())
	codes, err := auth.NewAccessCodeAuth(ev.AccessCodes, sessions, cfg.Login.Rate, cfg.Login.Burst, bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to prepare access codes", "error", err)
		log.Fatalf("Failed to prepare access codes: %v", err)
	}

	var sso auth.AuthProvider
	switch {
	case cfg.Authentik.Enabled():
		sso = auth.NewAuthentikAuth(cfg.Authentik, sessions)
		logger.Info("Admin single sign-on via Authentik", "url", cfg.Authentik.BaseURL)
	case cfg.IsDevelopment():
		sso = auth.NewMockAuth(sessions)
		logger.Info("Using mock admin sign-on for local development (no Authentik server required)")
	default:
		logger.Info("Authentik not configured, admins sign in with access codes")
	}

	board := scoreboard.NewRefresher(engine, store, ps, snapshotCache, cfg.PollInterval)

	api := handlers.NewAPIHandlers(handlers.Deps{
		Store:      store,
		Event:      ev,
		Engine:     engine,
		Reports:    report.NewGenerator(engine, cfg.Report.Location()),
		Validator:  validator,
		Scoreboard: board,
		Bus:        ps,
		Audit:      audit,
	})
	health := &handlers.HealthChecks{
		Store:      store,
		Cache:      cachePinger,
		Audit:      audit,
		Scoreboard: board,
	}

	// Set up HTTP routes
	mux := http.NewServeMux()
	api.Register(mux, sessions)

	// Auth routes
	mux.HandleFunc("/auth/login", codes.LoginHandler)
	mux.HandleFunc("/auth/logout", codes.LogoutHandler)
	mux.HandleFunc("/auth/me", codes.MeHandler)
	if sso != nil {
		mux.HandleFunc("/auth/sso/login", sso.LoginHandler)
		mux.HandleFunc("/auth/sso/callback", sso.CallbackHandler)
		mux.HandleFunc("/auth/sso/logout", sso.LogoutHandler)
	}

	// Ops
	mux.HandleFunc("/api/health", health.Health)
	mux.HandleFunc("/healthz", health.Liveness) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", health.Readiness) // Kubernetes readiness probe
	mux.Handle("/metrics", promhttp.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return board.Run(ctx) })
	g.Go(func() error { return sessions.RunPruner(ctx, pruneInterval) })

	if cfg.DBDriver == "postgres" {
		notifier, err := dal.NewPostgresNotifier(cfg.Database.URL, ps)
		if err != nil {
			logger.Error("Failed to start Postgres change feed", "error", err)
			log.Fatalf("Failed to start Postgres change feed: %v", err)
		}
		g.Go(func() error { return notifier.Run(ctx) })
		logger.Info("Listening for Postgres change notifications")
	}

	// gRPC
	grpcAddr := "0.0.0.0:" + cfg.GRPCPort
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Error("Failed to listen for gRPC", "error", err, "port", cfg.GRPCPort)
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	grpcServer := grpcserver.NewGRPCServer(grpcserver.NewServer(board, store, ps))
	g.Go(func() error {
		logger.Info("gRPC server starting", "address", grpcAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		grpcServer.GracefulStop()
		return nil
	})

	// HTTP
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("HTTP server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Service stopped")
}

func openStore(cfg *config.Config) dal.VoteStore {
	switch cfg.DBDriver {
	case "sqlite":
		s, err := dal.NewSQLiteDAL(cfg.SQLite.File)
		if err != nil {
			logger.Error("Failed to initialize SQLite", "error", err)
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLite.File)
		return s
	case "postgres":
		s, err := dal.NewPostgresDAL(cfg.Database.URL)
		if err != nil {
			logger.Error("Failed to initialize Postgres", "error", err)
			log.Fatalf("Failed to initialize Postgres: %v", err)
		}
		logger.Info("Connected to Postgres database")
		return s
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL()
	}
}

// openBus builds the process bus and, when configured, bridges it to NATS
// so every instance sees every vote and settings change
func openBus(cfg *config.Config) (*pubsub.PubSub, func()) {
	switch cfg.NATS.Mode {
	case "mock":
		logger.Info("Using mock NATS upstream")
		m := pubsub.NewMockNATSPubSub(cfg.NATS.Subject)
		return pubsub.NewWithUpstream(m), m.Close
	case "embedded":
		opts := pubsub.DefaultEmbeddedNATSOptions()
		opts.Subject = cfg.NATS.Subject
		opts.StreamName = cfg.NATS.Stream
		opts.StoreDir = cfg.NATS.StoreDir
		embedded, err := pubsub.NewEmbeddedNATSPubSub(opts)
		if err != nil {
			logger.Error("Failed to initialize embedded NATS", "error", err)
			log.Fatalf("Failed to initialize embedded NATS: %v", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.ServerURL())
		return pubsub.NewWithUpstream(embedded), embedded.Close
	case "external":
		n, err := pubsub.NewNATSPubSub(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Stream)
		if err != nil {
			logger.Error("Failed to initialize NATS", "error", err)
			log.Fatalf("Failed to initialize NATS: %v", err)
		}
		logger.Info("Connected to NATS", "url", cfg.NATS.URL)
		return pubsub.NewWithUpstream(n), n.Close
	default:
		logger.Info("Using process-local event bus")
		return pubsub.New(), func() {}
	}
}

func openAuditTrail(cfg *config.Config) auditTrail {
	if cfg.ClickHouse.Addr == "" {
		logger.Info("Using in-memory audit trail (no ClickHouse server required)")
		return mocks.NewAuditLog()
	}

	ch, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		logger.Error("Failed to initialize ClickHouse", "error", err, "address", cfg.ClickHouse.Addr)
		log.Fatalf("Failed to initialize ClickHouse: %v", err)
	}
	logger.Info("Connected to ClickHouse", "address", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.DB)
	return ch
}

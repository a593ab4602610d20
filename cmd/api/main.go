package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reformhub/api/internal/accounts"
	"reformhub/api/internal/app"
	"reformhub/api/internal/coalition"
	"reformhub/api/internal/compliance"
	"reformhub/api/internal/config"
	"reformhub/api/internal/forum"
	"reformhub/api/internal/kvstore"
	"reformhub/api/internal/notify"
	"reformhub/api/internal/obs"
	"reformhub/api/internal/proposal"
	"reformhub/api/internal/search"
	"reformhub/api/internal/share"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Durable medium: Postgres when DATABASE_URL is set, Redis when
	// REDIS_URL is set, plain files otherwise.
	var durableMedium kvstore.Medium
	var pinger app.Pinger
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		log.Printf("Using PostgreSQL for platform state")
		db, err := kvstore.OpenDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		pg := kvstore.NewPostgresMedium(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		durableMedium = pg
		pinger = pg
	case strings.TrimSpace(cfg.RedisURL) != "":
		log.Printf("Using Redis for platform state")
		rm, err := kvstore.NewRedisMedium(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer rm.Close()
		durableMedium = rm
		pinger = rm
	default:
		log.Printf("Using file storage for platform state in %s", cfg.DataDir)
		fm, err := kvstore.NewFileMedium(cfg.DataDir)
		if err != nil {
			log.Fatalf("data dir setup failed: %v", err)
		}
		durableMedium = fm
	}

	durable := kvstore.New(durableMedium)
	session := kvstore.New(kvstore.NewMemoryMedium())

	directory := accounts.NewDirectory(ctx, durable, session, accounts.HasherForScheme(cfg.PasswordScheme))
	forumMgr := forum.NewManager(ctx, durable)
	coalitionMgr := coalition.NewManager(ctx, durable)
	tracker := compliance.NewTracker(ctx, durable)
	proposals := proposal.NewGenerator(ctx, durable)
	notifications := notify.NewManager(ctx, durable)
	shareMgr := share.NewManager(ctx, durable, cfg.PlatformURL)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewLocal(forumMgr, coalitionMgr))

	service := app.NewService(
		[]byte(cfg.TokenSecret),
		cfg.SessionTTL,
		directory,
		forumMgr,
		coalitionMgr,
		tracker,
		proposals,
		notifications,
		shareMgr,
		searchService,
		pinger,
	)
	service.Bootstrap(ctx)

	obs.Init()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	mux.Handle("/", obs.Instrument(httpServer.Handler()))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Reform platform API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

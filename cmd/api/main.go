package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"ticketdesk/internal/config"
	"ticketdesk/internal/database"
	"ticketdesk/internal/docstore"
	pgstore "ticketdesk/internal/docstore/postgres"
	redisstore "ticketdesk/internal/docstore/redis"
	"ticketdesk/internal/observability/tracing"
	"ticketdesk/internal/reliability/circuitbreaker"
	"ticketdesk/internal/reliability/retry"
	"ticketdesk/internal/repository/store"
	"ticketdesk/internal/router"
	"ticketdesk/internal/service"
	"ticketdesk/internal/tickets"
	"ticketdesk/pkg/logger"
)

func main() {
	// config + flags + logger
	cfg := config.Load()
	fs := pflag.NewFlagSet("ticketdesk-api", pflag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level override (debug, info, warn, error)")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "document store: memory, postgres or redis")
	fs.StringVar(&cfg.StatusFile, "status-file", cfg.StatusFile, "YAML file with the ticket status vocabulary")
	fs.IntVar(&cfg.ResolverConcurrency, "resolver-concurrency", cfg.ResolverConcurrency, "max in-flight user lookups per batch (0 = unbounded)")
	fs.DurationVar(&cfg.BoardTTL, "board-ttl", cfg.BoardTTL, "how long the manager board snapshot is reused")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	l := logger.New(cfg.Env, cfg.LogLevel, "ticketdesk-api")
	if err := cfg.Validate(); err != nil {
		l.Fatal().Err(err).Msg("invalid configuration")
	}

	statuses := service.DefaultStatuses
	if cfg.StatusFile != "" {
		s, err := config.LoadStatuses(cfg.StatusFile)
		if err != nil {
			l.Fatal().Err(err).Msg("status vocabulary")
		}
		statuses = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, l, cfg.OTLPEndpoint, "ticketdesk-api", cfg.Env)
	if err != nil {
		l.Fatal().Err(err).Msg("tracing init failed")
	}

	// store
	backend, closeStore, err := openStore(ctx, cfg, l)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store connect failed")
	}
	defer closeStore()

	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.RetryAttempts
	rc.InitialBackoff = cfg.RetryBackoff
	db := docstore.NewResilient(backend,
		rc,
		circuitbreaker.New(cfg.BreakerFailures, cfg.BreakerSuccesses, cfg.BreakerTimeout),
		l)

	// domain
	users := store.NewUserRepo(db)
	ticketRepo := store.NewTicketRepo(db)
	resolver := tickets.NewResolver(users, l, cfg.ResolverConcurrency, cfg.LookupTimeout)
	board := tickets.NewBoard(ticketRepo, db, resolver, cfg.BoardTTL, l)

	auth := service.NewAuthService(users, cfg.SessionSecret, l)
	if cfg.ManagerEmail != "" {
		if err := auth.EnsureManager(ctx, cfg.ManagerEmail, cfg.ManagerName, cfg.ManagerPassword); err != nil {
			l.Fatal().Err(err).Msg("bootstrap manager")
		}
	}

	// http
	r := router.New(l, cfg, router.Deps{
		Auth:    auth,
		Tickets: service.NewTicketService(ticketRepo, users, db, resolver, board, service.NewStatusVocabulary(statuses), l),
		People:  service.NewUserService(users, db, board, l),
		Users:   users,
		Probe:   func(ctx context.Context) error { return docstore.Ping(ctx, db) },
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	_ = shutdownTracing(sctx)
	l.Info().Msg("shutdown complete")
}

func openStore(ctx context.Context, cfg config.Config, l zerolog.Logger) (docstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		s := pgstore.New(pool, l)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	case "redis":
		rdb, err := database.OpenRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(rdb, cfg.RedisPrefix, l), func() { _ = rdb.Close() }, nil
	default:
		l.Warn().Msg("using in-memory store; data is lost on restart")
		return docstore.NewMemory(), func() {}, nil
	}
}

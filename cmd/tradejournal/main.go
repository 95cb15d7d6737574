package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeJournal/internal/config"
	"TradeJournal/internal/core"
	"TradeJournal/internal/feed"
	"TradeJournal/internal/observability"
	"TradeJournal/internal/persistence"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := observability.NewLogger("main")
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := observability.NewLoggerWithLevel("main", cfg.LogLevel)
	log.Info().Msg("tradejournal starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Postgres ---
	db, err := persistence.Open(ctx, cfg.PostgresURL, persistence.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect")
	}
	defer db.Close()
	log.Info().Msg("postgres connected")

	migrator := persistence.NewMigrator(db.DB(), cfg.MigrationsDir, observability.NewLoggerWithLevel("migrator", cfg.LogLevel))
	if err := migrator.Up(ctx); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	log.Info().Msg("migrations applied")

	// --- Observability ---
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Outbound event feed (optional) ---
	var sink core.EventSink
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("nats connect")
		}
		defer nc.Close()

		js, err := jetstream.New(nc)
		if err != nil {
			log.Fatal().Err(err).Msg("jetstream init")
		}
		if err := feed.EnsureStream(ctx, js); err != nil {
			log.Fatal().Err(err).Msg("ensure event stream")
		}
		sink = feed.NewPublisher(js, observability.NewLoggerWithLevel("feed", cfg.LogLevel), metrics)
		log.Info().Str("url", cfg.NATSURL).Msg("event feed connected")
	} else {
		log.Info().Msg("NATS_URL not set, event feed disabled")
	}

	// --- Engine ---
	engine := core.NewEngine(core.Deps{
		Accounts:  db.Accounts(),
		Entries:   db.Entries(),
		Trades:    db.Trades(),
		Snapshots: db.Snapshots(),
		Sink:      sink,
		Logger:    observability.NewLoggerWithLevel("engine", cfg.LogLevel),
		Metrics:   metrics,
	})
	// --- Daily snapshot scheduler ---
	scheduler := core.NewSnapshotScheduler(engine, cfg.SnapshotInterval)
	go scheduler.Run(ctx)

	// --- Metrics and health server ---
	errChan := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", healthChecker.LivenessHandler)
		mux.HandleFunc("/readyz", healthChecker.ReadinessHandler)
		server := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: mux,
		}
		go func() {
			<-ctx.Done()
			shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			server.Shutdown(shutCtx)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	healthChecker.SetReady(true)
	log.Info().Str("metrics", cfg.MetricsAddr).Msg("tradejournal ready")

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errChan:
		log.Error().Err(err).Msg("server failed, shutting down")
	}

	healthChecker.SetReady(false)
	cancel()
	log.Info().Msg("tradejournal stopped")
}

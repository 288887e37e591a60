package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/pushgate/internal/config"
	"github.com/marketpulse/pushgate/internal/connection"
	"github.com/marketpulse/pushgate/internal/journal"
	"github.com/marketpulse/pushgate/internal/metrics"
	"github.com/marketpulse/pushgate/internal/protocol"
	"github.com/marketpulse/pushgate/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pushgated.local.yaml", "path to config file")
	symbols := flag.String("symbols", "", "comma-separated symbols to subscribe on startup")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pushgated",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"ws_url", cfg.Server.WSURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional delivered-message journal
	var jnl *journal.Journal
	if cfg.JournalEnabled() {
		logger.Info("connecting to journal database",
			"host", cfg.Journal.Database.Host,
			"database", cfg.Journal.Database.Name,
		)
		pool, err := journal.Connect(ctx, cfg.Journal.Database)
		if err != nil {
			logger.Error("failed to connect to journal database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		jnl = journal.New(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, pool, logger)
		if err := jnl.Start(ctx); err != nil {
			logger.Error("failed to start journal", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			jnl.Stop(stopCtx)
		}()
	}

	wsCfg := connection.WSTransportConfig{
		URL:              cfg.Server.WSURL,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
	}

	var mgr *connection.Manager

	// Each dialed transport gets its own receive loop feeding the
	// manager; the loop dies with its transport and reconnection
	// dials a fresh pair.
	dial := func(ctx context.Context, attempt int) (connection.Transport, error) {
		t, err := connection.DialWS(ctx, wsCfg)
		if err != nil {
			return nil, err
		}
		go receiveLoop(ctx, t, mgr, logger)
		return t, nil
	}

	events := connection.Events{
		OnMessage: func(msg protocol.Message) {
			if msg.Type == protocol.TypeNotification && jnl != nil {
				jnl.Record(msg)
			}
		},
		OnError: func(err error) {
			logger.Warn("connection error", "error", err)
		},
	}

	mgr = connection.NewManager(connection.Config{
		HeartbeatInterval:    cfg.Connection.HeartbeatInterval,
		AckTimeout:           cfg.Connection.AckTimeout,
		AckCheckInterval:     cfg.Connection.AckCheckInterval,
		MaxReconnectAttempts: cfg.Connection.MaxReconnectAttempts,
		InitialBackoff:       cfg.Connection.InitialBackoff,
		MaxBackoff:           cfg.Connection.MaxBackoff,
		BackoffMultiplier:    cfg.Connection.BackoffMultiplier,
		MessageBufferSize:    cfg.Connection.MessageBufferSize,
		ReplayDelay:          cfg.Connection.ReplayDelay,
		ErrorLogSize:         cfg.Connection.ErrorLogSize,
	}, dial, events, logger)

	mgr.Recorder().SetCollectors(
		metrics.NewCollectors(prometheus.DefaultRegisterer, cfg.Instance.ID),
	)

	transport, err := dial(ctx, 0)
	if err != nil {
		logger.Error("failed to dial server", "error", err)
		os.Exit(1)
	}
	if err := mgr.Connect(ctx, transport); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		mgr.Disconnect(shutdownCtx)
	}()

	if *symbols != "" {
		syms := strings.Split(*symbols, ",")
		if _, err := mgr.Subscribe(syms, []string{"price_alert", "sentiment_change"}, nil, nil); err != nil {
			logger.Warn("initial subscribe failed", "error", err)
		}
	}

	// Metrics endpoint
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logger.Info("pushgated running", "instance_id", cfg.Instance.ID)

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("pushgated stopped")
}

// receiveLoop feeds inbound frames to the manager until the transport
// dies or the context is cancelled.
func receiveLoop(ctx context.Context, t *connection.WSTransport, mgr *connection.Manager, logger *slog.Logger) {
	for {
		data, err := t.Receive()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				logger.Debug("receive loop ended", "error", err)
			}
			return
		}
		if err := mgr.HandleMessage(data); err != nil {
			logger.Debug("dropped inbound frame", "error", err)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fentz26/sift/internal/config"
	"github.com/fentz26/sift/internal/digest"
	"github.com/fentz26/sift/internal/extract"
	"github.com/fentz26/sift/internal/ingest"
	"github.com/fentz26/sift/internal/logging"
	"github.com/fentz26/sift/internal/scheduler"
	"github.com/fentz26/sift/internal/server"
	"github.com/fentz26/sift/internal/sources"
	"github.com/fentz26/sift/internal/store"
	"github.com/spf13/cobra"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the sift daemon (siftd)",
	Long:  `Starts the sift daemon which serves the HTTP API, runs scheduled source syncs, and pushes the daily digest.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

// schedulerBridge adapts the API service to the scheduler's interfaces.
type schedulerBridge struct {
	svc *server.Service
}

func (b schedulerBridge) Sync(ctx context.Context, syncType string) error {
	_, err := b.svc.Sync(ctx, syncType)
	return err
}

func (b schedulerBridge) SendDigest(ctx context.Context, now time.Time) error {
	_, _, err := b.svc.Digest(ctx, now, true)
	return err
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}

	log, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info().Str("listen", cfg.Server.Listen).Msg("starting sift daemon")

	st, err := store.New(cfg.Server.DBPath)
	if err != nil {
		return err
	}

	oracle := extract.NewOracle(extract.Config{
		Provider:       cfg.Oracle.Provider,
		APIKey:         cfg.Oracle.APIKey,
		Model:          cfg.Oracle.Model,
		BaseURL:        cfg.Oracle.BaseURL,
		TimeoutSeconds: cfg.Oracle.TimeoutSeconds,
	}, logging.Component(log, "oracle"))

	var adapters []sources.Adapter
	var watchPaths []string
	if p := cfg.Sources.MeetingCachePath; p != "" {
		adapters = append(adapters, sources.NewMeetingCache(p))
		watchPaths = append(watchPaths, p)
	}
	if p := cfg.Sources.MeetingArchivePath; p != "" {
		adapters = append(adapters, sources.NewArchive(p))
		watchPaths = append(watchPaths, p)
	}
	if d := cfg.Sources.ChatLogDir; d != "" {
		adapters = append(adapters, sources.NewChatLog(d, cfg.Sources.ChatUserID))
		watchPaths = append(watchPaths, d)
	}

	tracker := ingest.NewStatusTracker(cfg.Sync.StatusFile)

	var orch *ingest.Orchestrator
	if len(adapters) > 0 {
		orch = ingest.New(st, oracle, adapters, ingest.Config{
			Policy:         cfg.Sync.Policy,
			Lookback:       time.Duration(cfg.Sync.LookbackHours) * time.Hour,
			OracleMaxItems: cfg.Oracle.MaxItems,
		}, tracker, logging.Component(log, "ingest"))
		log.Info().Int("adapters", len(adapters)).Str("policy", cfg.Sync.Policy).Msg("ingestion configured")
	} else {
		log.Warn().Msg("no sources configured, ingestion disabled")
	}

	pusher := digest.NewPusher(cfg.Digest.WebhookURL, logging.Component(log, "digest"))
	svc := server.NewService(st, orch, pusher, tracker, log)
	srv := server.New(svc, st, logging.Component(log, "http"))

	schedCfg := &scheduler.Config{DigestHour: -1}
	if cfg.Sync.Enabled && orch != nil {
		schedCfg.SyncInterval = time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	}
	if cfg.Digest.Enabled && pusher.Configured() {
		schedCfg.DigestHour = cfg.Digest.Hour
	}
	sched := scheduler.New(schedulerBridge{svc}, schedulerBridge{svc}, schedCfg, logging.Component(log, "scheduler"))
	sched.Start()
	defer sched.Stop()

	// Re-sync shortly after a watched source file changes.
	if orch != nil && len(watchPaths) > 0 {
		watcher, err := ingest.NewWatcher(watchPaths, func() {
			if _, err := svc.Sync(context.Background(), "watch"); err != nil {
				log.Error().Err(err).Msg("watch-triggered sync failed")
			}
		}, logging.Component(log, "watcher"))
		if err != nil {
			log.Warn().Err(err).Msg("file watcher unavailable")
		} else if watcher != nil {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := srv.Start(cfg.Server.Listen)
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Info().Stringer("signal", sig).Msg("shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server error")
			st.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}

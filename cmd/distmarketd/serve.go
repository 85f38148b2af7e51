package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distmarket/internal/broadcast"
	"distmarket/internal/bus"
	"distmarket/internal/config"
	"distmarket/internal/httpapi"
	"distmarket/internal/journal"
	"distmarket/internal/market"
	"distmarket/internal/metrics"
	"distmarket/internal/obs"
	"distmarket/internal/pricing"
	"distmarket/internal/state"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var bootstrap bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control plane, WebSocket feed, and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, bootstrap)
		},
	}
	cmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "initialize one market from the config's market template and authority on startup")
	return cmd
}

func runServe(cmd *cobra.Command, bootstrap bool) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	pricing.DefaultMaxIter = cfg.Solver.MaxIter
	pricing.DefaultTolerance = cfg.Solver.Tolerance

	logger := obs.New(cfg.LogLevel, os.Stdout)
	logger.Info().Str("listen", cfg.ListenAddr).Str("metrics", cfg.MetricsAddr).Msg("distmarketd: starting")

	eventBus := bus.New[market.Event]()
	buffer := state.NewRingBuffer(cfg.RingBuffer)

	if snap, ok := journal.LoadLatestSnapshot(cfg.JournalDir, logger); ok {
		buffer.Add(snap)
		logger.Info().Msg("distmarketd: restored latest snapshot from journal")
	}

	journalWriter := journal.NewWriter(cfg.JournalDir, logger)
	journalWriter.Subscribe(eventBus.Subscribe(4096))

	snapshotCh := make(chan market.Snapshot, 1024)
	bufferedEvents := eventBus.Subscribe(4096)
	go func() {
		for ev := range bufferedEvents {
			buffer.Add(ev.Snapshot)
			select {
			case snapshotCh <- ev.Snapshot:
			default:
			}
		}
	}()

	hub := broadcast.NewHub(buffer, logger)
	go hub.Run(snapshotCh)

	// journal writes happen via the eventBus subscription above, not
	// through the server's own journal pointer, so events are recorded
	// exactly once.
	server := httpapi.NewServer(nil, eventBus.Publish, logger)

	if bootstrap {
		if cfg.Authority == "" {
			logger.Warn().Msg("distmarketd: --bootstrap set but config has no authority, skipping")
		} else if authority, perr := uuid.Parse(cfg.Authority); perr != nil {
			logger.Error().Err(perr).Msg("distmarketd: invalid authority in config, skipping bootstrap")
		} else {
			marketID, positionID, berr := server.Bootstrap(market.Authority(authority), uuid.New(), cfg.Market)
			if berr != nil {
				logger.Error().Err(berr).Msg("distmarketd: bootstrap failed")
			} else {
				logger.Info().Str("market_id", marketID.String()).Str("lp_position_id", positionID.String()).Msg("distmarketd: bootstrapped market")
			}
		}
	}

	router := server.Router()
	router.Handle("/ws", hub)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	apiSrv := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	go func() {
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("distmarketd: api server failed")
		}
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("distmarketd: metrics server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("distmarketd: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	apiSrv.Shutdown(shutdownCtx)
	metricsSrv.Shutdown(shutdownCtx)
	return nil
}

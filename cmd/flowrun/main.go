// Command flowrun is a demo process for the dataflow execution engine: it
// loads configuration, registers the built-in transform types, compiles a
// small example pipeline, and runs it on a cron schedule against synthetic
// base data, streaming lifecycle events to any connected websocket
// subscriber. It mirrors the teacher's trader-go/cmd/server/main.go
// structure (load config, build scheduler, start a server, wait for a
// termination signal, shut down gracefully) adapted from an HTTP API
// server to a scheduled pipeline runner.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/epochflow/engine/internal/builtins"
	"github.com/epochflow/engine/internal/chartmeta"
	"github.com/epochflow/engine/internal/engineconfig"
	"github.com/epochflow/engine/internal/eventbridge"
	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/orchestrator"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/utils"
	"github.com/epochflow/engine/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true}, "flowrun")
	logger.SetGlobalLogger(log)

	cfg, err := engineconfig.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode}, "flowrun")

	assets := cfg.Assets
	if len(assets) == 0 {
		assets = []string{"AAPL", "MSFT", "TICKER3"}
	}
	tf := timeframe.Day1
	if len(cfg.Timeframes) > 0 {
		tf = cfg.Timeframes[0]
	}

	reg := registry.New()
	mgr := transform.NewManager()
	builtins.Register(reg, mgr)

	descriptions, err := buildExamplePipeline(reg, tf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build example pipeline")
	}

	store := storage.New(log)
	dispatcher := eventstream.NewDispatcher(log)
	token := eventstream.NewCancellationToken()

	orch, err := orchestrator.New(mgr, descriptions, store, log, dispatcher, token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct orchestrator")
	}

	charts := chartmeta.New([]timeframe.Timeframe{tf}, mgr.Configurations())

	bridge := eventbridge.New(dispatcher, eventstream.All, log)
	bridgeConn := bridge.Subscribe()
	defer bridgeConn.Unsubscribe()

	mux := http.NewServeMux()
	mux.Handle("/events", bridge)
	httpServer := &http.Server{Addr: fmtAddr(cfg.EventBridgePort), Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("event bridge server stopped")
		}
	}()
	log.Info().Int("port", cfg.EventBridgePort).Msg("event bridge listening")

	run := func() {
		timer := utils.NewTimer("execute_pipeline", log)
		defer timer.Stop()

		baseData := map[timeframe.Timeframe]map[string]*frame.Frame{
			tf: syntheticBaseData(assets, 120),
		}
		result, err := orch.ExecutePipeline(baseData, assets)
		if err != nil {
			log.Error().Err(err).Msg("pipeline execution failed")
			return
		}
		log.Info().
			Int("timeframes", len(result)).
			Int("chart_panes", len(charts.GetMetaData())).
			Msg("pipeline execution completed")
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.CronSchedule, run); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.CronSchedule).Msg("invalid cron schedule")
	}
	sched.Start()
	log.Info().Str("schedule", cfg.CronSchedule).Msg("scheduler started")

	run()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	token.Cancel()

	cronCtx := sched.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("event bridge server forced to shutdown")
	}

	log.Info().Msg("stopped")
}

func fmtAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

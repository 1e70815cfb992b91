package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/findash/backend/internal/api"
	"github.com/wonny/findash/backend/internal/api/handlers"
	"github.com/wonny/findash/backend/internal/realtime"
	"github.com/wonny/findash/backend/internal/scheduler"
	"github.com/wonny/findash/backend/internal/scheduler/jobs"
	"github.com/wonny/findash/backend/internal/watchlist"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the dashboard REST API server.

This command:
- serves cached market data and stock scores
- pushes refreshed lists over a websocket stream
- optionally runs cache-warming jobs (SCHEDULER_ENABLED=true)

Endpoints:
  GET  /                           - Banner
  GET  /health                     - Health check
  GET  /api/stock/daily/{symbol}   - Daily series
  GET  /api/stock/score/{symbol}   - Composite stock score
  GET  /api/sector-performance     - Realtime sector performance
  GET  /api/market-movers          - Top gainers, losers, most active
  GET  /api/stream                 - Websocket updates

Example:
  go run ./cmd/findash api
  go run ./cmd/findash api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Config, logger, cache and upstream
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	log.WithFields(map[string]interface{}{
		"port":  a.cfg.Port,
		"env":   a.cfg.Env,
		"cache": a.cfg.Cache.Backend,
	}).Info("Initializing API server")

	// 2. Realtime hub
	hub := realtime.NewHub(a.cfg.CORS.AllowedOrigins, log)

	// 3. Background refresh
	sched, err := newScheduler(a, hub)
	if err != nil {
		return err
	}

	// 4. Router and server
	marketHandler := handlers.NewMarketHandler(a.service, log)
	router := api.NewRouter(marketHandler, http.HandlerFunc(hub.ServeWS), api.DashboardCORSOptions(a.cfg.CORS.AllowedOrigins), log)
	server := api.New(a.cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	if sched != nil {
		sched.Start()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newScheduler registers the refresh jobs. Returns nil when the scheduler
// is disabled.
func newScheduler(a *app, hub *realtime.Hub) (*scheduler.Scheduler, error) {
	if !a.cfg.Scheduler.Enabled {
		a.log.Info("Scheduler disabled")
		return nil, nil
	}

	sched := scheduler.New(a.log)
	jobLog := a.log.WithComponent("jobs")

	list := []scheduler.Job{
		jobs.NewMarketMoversJob(a.service, hub, jobLog),
		jobs.NewSectorPerformanceJob(a.service, hub, jobLog),
	}

	if path := a.cfg.Scheduler.WatchlistPath; path != "" {
		wl, err := watchlist.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		list = append(list, jobs.NewWatchlistScoreJob(a.service, hub, wl.Symbols, jobLog))
	}

	if a.memory != nil {
		list = append(list, jobs.NewCacheSweepJob(a.memory, jobLog))
	}

	for _, job := range list {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("register job: %w", err)
		}
	}

	return sched, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/flavorhub/community-api/internal/adapters/httpapi"
	metricsuserdir "github.com/flavorhub/community-api/internal/adapters/metrics/userdir"
	"github.com/flavorhub/community-api/internal/app/directory"
	"github.com/flavorhub/community-api/internal/app/session"
	platformclock "github.com/flavorhub/community-api/internal/platform/clock"
	"github.com/flavorhub/community-api/internal/platform/config"
	"github.com/flavorhub/community-api/internal/platform/logging"
	"github.com/flavorhub/community-api/internal/platform/password"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", logging.Err(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	clk := platformclock.NewSystemClock()
	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dirMetrics, err := metricsuserdir.NewCollectors(reg)
	if err != nil {
		return err
	}

	deps := backendDeps{cfg: cfg, hasher: hasher, clk: clk, metrics: dirMetrics, log: log}
	selector := directory.NewSelector(cfg.Remote.Configured(), deps.openRemote, deps.openLocal, log)
	sel, err := selector.Select(ctx)
	if err != nil {
		return err
	}
	defer sel.Close()

	auth := session.NewStaticAdminCredentials(cfg.Admin.Email, cfg.Admin.Password)
	sessions := session.NewManager(sel.Directory, auth, clk, log, session.WithMaxClients(cfg.SessionMaxClients))
	go sweepSessions(ctx, sessions, cfg.SessionIdleTimeout)

	api := httpapi.NewServer(string(sel.Backend), sel.Replays, log)
	handler := httpapi.NewRouter(api, sessions, httpapi.RouterOptions{
		LoginLimiter:  rate.NewLimiter(rate.Limit(cfg.LoginRateLimit), cfg.LoginRateBurst),
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		SecureCookies: cfg.Env != "dev" && cfg.Env != "test",
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", slog.String("addr", srv.Addr), slog.String("directory", string(sel.Backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sweepSessions(ctx context.Context, m *session.Manager, idle time.Duration) {
	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}

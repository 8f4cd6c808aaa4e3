// Package app wires configuration, telemetry, the simulation engine, the
// session manager, and the websocket transport into a single runnable
// server (§10.1).
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"arenasrv/internal/config"
	arenanet "arenasrv/internal/net"
	"arenasrv/internal/session"
	"arenasrv/internal/sim"
	"arenasrv/internal/telemetry"
	"arenasrv/logging"
	loggingsinks "arenasrv/logging/sinks"
)

// Run loads configuration, builds the server, and blocks until ctx is
// canceled or a fatal error occurs.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zapLogger, telemetryLogger, err := telemetry.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLogger.Sync()

	logConfig := logging.DefaultConfig()
	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, []logging.NamedSink{
		{Name: "console", Sink: loggingsinks.NewConsoleSink(os.Stdout, logConfig.Console)},
	})
	if err != nil {
		return fmt.Errorf("build logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = router.Close(closeCtx)
	}()

	bounds := sim.Bounds{X: cfg.WorldBoundsX, Y: cfg.WorldBoundsY}
	engine := sim.NewEngine(bounds, cfg.PlayerSpeed, nil)
	manager := session.NewManager(engine)
	if cfg.NPCCount > 0 {
		manager.SpawnNPCs(cfg.NPCCount)
	}

	metrics := &logging.Metrics{}
	manager.SetMetrics(telemetry.WrapMetrics(metrics))
	manager.SetPublisher(router)

	scheduler := sim.NewScheduler(logging.SystemClock{}, func(now time.Time) {
		manager.RunTick(now)
	})
	scheduler.SetPublisher(router)

	listener := arenanet.NewListener(manager, telemetryLogger, metrics)
	addr := fmt.Sprintf("%s:%d", cfg.WebsocketHost, cfg.WebsocketPort)
	httpServer := &http.Server{Addr: addr, Handler: listener.Handler()}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		scheduler.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		telemetryLogger.Printf("server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

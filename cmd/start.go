package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edi-exchange/core/loader"
	"edi-exchange/core/logger"
	"edi-exchange/core/middleware"
	"edi-exchange/feature/exchange"
	"edi-exchange/feature/exchange/batch"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the exchange server",
	Long: `Starts the HTTP API, the periodic sync scheduler and, when enabled, the
watcher that triggers a sync as soon as files land in local backend directories.`,
	RunE: runStart,
}

func init() {
	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	logg := rt.logger
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if missing, err := rt.repo.VerifySchema(ctx); err != nil {
		logg.Warn("Schema verification failed", zap.Error(err))
	} else if len(missing) > 0 {
		logg.Warn("Schema is missing columns, run migrate", zap.Strings("columns", missing))
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// RayID first so every later log line carries it.
	app.Use(middleware.RayID())
	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})
	if rt.cfg.Server.AuthEnabled() {
		app.Use(middleware.Auth(rt.cfg.Server.ApiKey))
	} else {
		logg.Warn("API key not set, the API is unprotected")
	}
	app.Get("/metrics", rt.metrics.Handler())

	mgr := loader.NewManager(logg)
	mgr.Register(exchange.NewFeature(rt.service))
	if err := mgr.LoadAll(app); err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}

	sc := rt.cfg.Sync
	scheduler := batch.NewScheduler(rt.driver, time.Duration(sc.IntervalSeconds)*time.Second,
		batch.Options{CheckInput: sc.CheckInput, CheckOutput: sc.CheckOutput}, logg)

	// Resolve everything that can fail before any goroutine starts.
	if err := rt.checkBackends(ctx); err != nil {
		return fmt.Errorf("failed to list backends: %w", err)
	}
	var dirs []string
	if sc.Watch {
		if dirs, err = rt.watchDirs(ctx); err != nil {
			return fmt.Errorf("failed to list watched directories: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("Starting server", zap.String("addr", rt.cfg.Server.Addr()))
		if err := app.Listen(rt.cfg.Server.Addr()); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(time.Duration(rt.cfg.Server.ShutdownSeconds) * time.Second)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	if len(dirs) > 0 {
		watcher := batch.NewWatcher(dirs, scheduler.Trigger, time.Second, logg)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"edi-exchange/core/config"
	"edi-exchange/core/database"
	"edi-exchange/core/logger"
	"edi-exchange/core/metrics"
	"edi-exchange/core/storage"
	"edi-exchange/feature/exchange"
	"edi-exchange/feature/exchange/batch"
	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/notify"
	"edi-exchange/feature/exchange/reconcile"
	"edi-exchange/feature/exchange/store"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// runtime holds the components shared by the commands.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *store.Gorm
	metrics  *metrics.Metrics
	gateways *storage.Registry
	engine   *reconcile.Engine
	driver   *batch.Driver
	service  *exchange.Service
}

// bootstrap loads the configuration and builds the exchange stack.
func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := store.NewGorm(db)

	m := metrics.New()
	bus := notify.NewBus(l)
	bus.SubscribeAll(func(_ context.Context, ev notify.Event) error {
		l.Debug("Exchange event", zap.String("event", ev.Name), zap.Uint("record_id", ev.Record.ID))
		return nil
	})
	sink := notify.Multi{notify.NewLogSink(l), notify.NewStoreSink(repo)}

	opts := []reconcile.Option{reconcile.WithMetrics(m)}
	if cfg.Sync.LockDir != "" {
		locker, err := reconcile.NewFileLocker(cfg.Sync.LockDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reconcile.WithLocker(locker))
		l.Info("Using file record locks", zap.String("dir", cfg.Sync.LockDir))
	}

	gateways := storage.NewDefaultRegistry(cfg.Storage, afero.NewOsFs())
	engine := reconcile.NewEngine(repo, gateways, sink, bus, l, opts...)
	driver := batch.NewDriver(repo, engine, cfg.Sync.Workers, m, l)

	return &runtime{
		cfg:      cfg,
		logger:   l,
		repo:     repo,
		metrics:  m,
		gateways: gateways,
		engine:   engine,
		driver:   driver,
		service:  exchange.NewService(repo, engine, driver, exchange.NewGenerators(), l),
	}, nil
}

// watchDirs lists the local directories where fs backends receive outcomes and input files.
func (rt *runtime) watchDirs(ctx context.Context) ([]string, error) {
	backends, err := rt.repo.ListBackends(ctx)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, b := range backends {
		if strings.ToLower(strings.TrimSpace(b.StorageKind)) != storage.KindFS {
			continue
		}
		root := b.StorageLocation
		if root == "" {
			root = rt.cfg.Storage.Root
		}
		configured := b.Dirs()
		for _, key := range watchedDirs {
			if dir, ok := configured[key]; ok {
				dirs = append(dirs, filepath.Join(root, filepath.FromSlash(dir)))
			}
		}
	}
	return dirs, nil
}

// watchedDirs are the Backend.Dirs keys where partners drop files.
var watchedDirs = []string{
	string(models.DirectionInput) + "/" + string(models.RemotePending),
	string(models.DirectionOutput) + "/" + string(models.RemoteDone),
	string(models.DirectionOutput) + "/" + string(models.RemoteError),
}

// checkBackends warns about backends whose storage kind has no gateway.
func (rt *runtime) checkBackends(ctx context.Context) error {
	backends, err := rt.repo.ListBackends(ctx)
	if err != nil {
		return err
	}
	kinds := rt.gateways.Kinds()
	for _, b := range backends {
		if !slices.Contains(kinds, strings.ToLower(strings.TrimSpace(b.StorageKind))) {
			rt.logger.Warn("Backend storage kind is not supported",
				zap.String("backend", b.Name),
				zap.String("storage_kind", b.StorageKind),
				zap.Strings("supported", kinds))
		}
	}
	return nil
}

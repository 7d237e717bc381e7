package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"edi-exchange/core/config"
	"edi-exchange/core/database"
	"edi-exchange/core/storage"
	"edi-exchange/feature/exchange/models"
	"edi-exchange/feature/exchange/store"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRuntime(t *testing.T) (*runtime, *observer.ObservedLogs) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	repo := store.NewGorm(db)
	require.NoError(t, repo.Migrate(context.Background()))

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := &config.Config{Storage: storage.Config{Root: "/srv/edi"}}
	return &runtime{
		cfg:      cfg,
		logger:   zap.New(core),
		repo:     repo,
		gateways: storage.NewDefaultRegistry(cfg.Storage, afero.NewMemMapFs()),
	}, logs
}

func TestWatchDirs(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	require.NoError(t, rt.repo.CreateBackend(ctx, &models.Backend{
		Name:             "local",
		StorageKind:      " FS ",
		InputDirPending:  "in/pending",
		InputDirDone:     "in/done",
		OutputDirPending: "out/pending",
		OutputDirDone:    "out/done",
	}))
	require.NoError(t, rt.repo.CreateBackend(ctx, &models.Backend{
		Name:            "mounted",
		StorageKind:     storage.KindFS,
		StorageLocation: "/mnt/partner",
		OutputDirError:  "out/error",
	}))
	require.NoError(t, rt.repo.CreateBackend(ctx, &models.Backend{
		Name:            "bucket",
		StorageKind:     storage.KindS3,
		InputDirPending: "in/pending",
	}))

	dirs, err := rt.watchDirs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join("/srv/edi", "in", "pending"),
		filepath.Join("/srv/edi", "out", "done"),
		filepath.Join("/mnt/partner", "out", "error"),
	}, dirs)
}

func TestCheckBackends_WarnsAboutUnknownKinds(t *testing.T) {
	rt, logs := newTestRuntime(t)
	ctx := context.Background()

	require.NoError(t, rt.repo.CreateBackend(ctx, &models.Backend{Name: "local", StorageKind: "fs"}))
	require.NoError(t, rt.repo.CreateBackend(ctx, &models.Backend{Name: "legacy", StorageKind: "ftp"}))

	require.NoError(t, rt.checkBackends(ctx))
	entries := logs.FilterMessage("Backend storage kind is not supported").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "legacy", entries[0].ContextMap()["backend"])
}

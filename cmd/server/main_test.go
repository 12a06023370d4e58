package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-server/internal/config"
	"blog-server/internal/repository"
	"blog-server/internal/repository/memory"
)

// brokenSchemaRepo fails schema creation.
type brokenSchemaRepo struct {
	*memory.UserRepository
}

func (brokenSchemaRepo) Init(ctx context.Context) error {
	return errors.New("disk full")
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestOpenUserRepository_ClosesStoreWhenInitFails(t *testing.T) {
	closed := 0
	orig := newUserRepository
	newUserRepository = func(cfg config.Config, logger *logrus.Logger) (repository.UserRepository, io.Closer, error) {
		return brokenSchemaRepo{memory.NewUserRepository()}, closerFunc(func() error {
			closed++
			return nil
		}), nil
	}
	t.Cleanup(func() { newUserRepository = orig })

	repo, db, err := openUserRepository(context.Background(), config.Config{}, quietLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "init user repository")
	assert.Nil(t, repo)
	assert.Nil(t, db)
	assert.Equal(t, 1, closed)
}

func TestOpenUserRepository_Sqlite(t *testing.T) {
	var cfg config.Config
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "blog.db")

	repo, db, err := openUserRepository(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, found, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRun_FailsWhenStoreCannotInit(t *testing.T) {
	var cfg config.Config
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "blog.db")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, cfg, quietLogger())
	assert.Error(t, err)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"blog-server/internal/config"
	apphttp "blog-server/internal/http"
	"blog-server/internal/repository"
	"blog-server/internal/repository/memory"
	"blog-server/internal/repository/mysql"
	"blog-server/internal/repository/sqlite"
	"blog-server/internal/service"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newUserRepository is swapped in tests.
var newUserRepository = buildUserRepository

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		stop()
		logger.Fatalf("%v", err)
	}
	logger.Info("bye")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	userRepo, db, err := openUserRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	userService := service.NewUserService(userRepo, cfg.Auth.RegisterPassword)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		userService,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		logger,
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openUserRepository opens the configured store and creates its schema. The
// store is closed again when schema creation fails.
func openUserRepository(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, io.Closer, error) {
	repo, db, err := newUserRepository(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.Init(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warnf("close database: %v", cerr)
		}
		return nil, nil, fmt.Errorf("init user repository: %w", err)
	}
	return repo, db, nil
}

func buildUserRepository(cfg config.Config, logger *logrus.Logger) (repository.UserRepository, io.Closer, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using in-memory user store, data is lost on restart")
		return memory.NewUserRepository(), closerFunc(func() error { return nil }), nil
	case "mysql":
		db, err := mysql.Open(cfg.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using mysql user store")
		return mysql.NewUserRepository(db), db, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("using sqlite user store at %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), db, nil
	}
}

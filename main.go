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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"retail_sales/api"
	"retail_sales/internal/config"
	"retail_sales/internal/notify"
	"retail_sales/internal/platform/database"
	"retail_sales/internal/platform/logger"
	"retail_sales/internal/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("sales api stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	storage, err := newStorage(cfg, log)
	if err != nil {
		return err
	}

	publisher, closer, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	salesService := sales.NewService(storage, publisher, log)

	r := gin.Default()
	api.InitRoutes(r, salesService, log)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("sales api listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.Storage),
			zap.String("notifier", cfg.Notifier),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("error trying to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down sales api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStorage(cfg config.Config, log *zap.Logger) (sales.Storage, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := database.Open(database.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sales.NewGormStorage(db, log)
	case config.StoragePostgres:
		db, err := database.Open(database.DriverPostgres, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return sales.NewGormStorage(db, log)
	default:
		return sales.NewLocalStorage(), nil
	}
}

func newPublisher(cfg config.Config, log *zap.Logger) (sales.Publisher, io.Closer, error) {
	if cfg.Notifier == config.NotifierRedis {
		p, err := notify.NewRedisPublisher(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}
	return sales.NewLogPublisher(log), nil, nil
}

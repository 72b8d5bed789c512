package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/stockmanagement/internal/app"
	"github.com/odyssey-erp/stockmanagement/internal/auth"
	"github.com/odyssey-erp/stockmanagement/internal/observability"
	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/physicalinventory"
	"github.com/odyssey-erp/stockmanagement/internal/platform/cache"
	"github.com/odyssey-erp/stockmanagement/internal/platform/db"
	"github.com/odyssey-erp/stockmanagement/internal/referencedata"
	"github.com/odyssey-erp/stockmanagement/internal/shared"
	"github.com/odyssey-erp/stockmanagement/jobs"
)

const tokenKeyPrefix = "stockmanagement:token"

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *app.Config) error {
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	referenceData := referencedata.NewClient(cfg.ReferenceDataURL, cfg.ReferenceDataToken, cfg.ReferenceDataTimeout)
	tokens := auth.NewTokenStore(redisClient, tokenKeyPrefix, cfg.TokenTTL)
	authContext := auth.NewContext(referenceData)
	fallback := referencedata.NewProgramFacilityTypeChecker(referenceData, authContext)
	checker := permission.NewChecker(authContext, referenceData, fallback, logger, metrics)

	queueOpts := cache.AsynqOpts(cfg.RedisAddr)
	publisher := jobs.NewClient(queueOpts, metrics)
	defer publisher.Close()
	inspector := asynq.NewInspector(queueOpts)
	defer inspector.Close()

	inventoryService := physicalinventory.NewService(checker, publisher, shared.NewIdempotencyStore(pool), logger)

	readiness := []app.ReadinessCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}
	if !app.InTestMode() {
		readiness = append(readiness, app.ReadinessCheck{Name: "referencedata", Check: referenceData.Ping})
	}

	router := app.NewRouter(app.RouterParams{
		Logger:                   logger,
		Config:                   cfg,
		Metrics:                  metrics,
		Authenticate:             auth.Middleware{Tokens: tokens, Logger: logger}.Authenticate,
		Readiness:                readiness,
		PhysicalInventoryHandler: physicalinventory.NewHandler(logger, inventoryService),
		PermissionHandler:        permission.NewHandler(logger, checker),
		JobHandler:               jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

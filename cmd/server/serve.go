package main

import (
	"context"
	"errors"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohanatextiles/storefront/internal/config"
	"github.com/mohanatextiles/storefront/internal/describe"
	"github.com/mohanatextiles/storefront/internal/imageproxy"
	"github.com/mohanatextiles/storefront/internal/limiter"
	"github.com/mohanatextiles/storefront/internal/migrate"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository/postgres"
	grpcserver "github.com/mohanatextiles/storefront/internal/server/grpc"
	httpserver "github.com/mohanatextiles/storefront/internal/server/http"
	"github.com/mohanatextiles/storefront/internal/service"
	"github.com/mohanatextiles/storefront/internal/session"
)

const shutdownTimeout = 10 * time.Second

// sweepParser accepts "@every 10m" descriptors and optional seconds.
var sweepParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}
}

func (a *app) runServe(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("env", cfg.Environment),
		zap.String("addr", cfg.HTTPAddr),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := session.NewRegistry(cfg.SessionTTL)
	srv := httpserver.New(buildDeps(cfg, db, reg, logger), httpserver.Options{
		Production:     cfg.IsProduction(),
		CORSOrigins:    cfg.CORSOriginsList(),
		DriveFolderURL: cfg.GoogleDriveFolderURL,
		MaxImageBytes:  cfg.MaxImageBytes,
	}, logger)

	if cfg.SessionSweep != "" {
		c := cron.New(cron.WithParser(sweepParser))
		if _, err := c.AddFunc(cfg.SessionSweep, func() {
			if n := reg.Sweep(); n > 0 {
				logger.Debug("expired sessions swept", zap.Int("count", n))
			}
		}); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}

	errCh := make(chan error, 2)

	var hs *grpcserver.Health
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return err
		}
		var opts []grpcserver.HealthOption
		if !cfg.IsProduction() {
			opts = append(opts, grpcserver.WithReflection())
		}
		hs = grpcserver.NewHealth(db, logger, opts...)
		go func() {
			logger.Info("grpc health listening", zap.String("addr", cfg.GRPCHealthAddr))
			errCh <- hs.Serve(ctx, lis)
		}()
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.Start(cfg.HTTPAddr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("server error", zap.Error(runErr))
		}
	}

	if hs != nil {
		hs.Stop(shutdownTimeout)
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return runErr
}

func buildDeps(cfg *config.Config, db *postgres.DB, reg *session.Registry, logger *zap.Logger) httpserver.Deps {
	lim := limiter.NewPG(db.Pool, limiter.Policy{
		Window:      cfg.LoginWindow,
		MaxFailures: cfg.LoginMaxFailures,
		BlockFor:    cfg.LoginBlockFor,
	})

	descOpts := []describe.Option{describe.WithTimeout(cfg.DescribeTimeout)}
	if cfg.OpenRouterModel != "" {
		descOpts = append(descOpts, describe.WithModel(cfg.OpenRouterModel))
	}
	desc := describe.New(cfg.OpenRouterAPIKey, logger, descOpts...)
	if !desc.Configured() {
		logger.Warn("OPENROUTER_API_KEY not set, descriptions fall back to templates")
	}

	return httpserver.Deps{
		Auth:       service.NewAuthService(postgres.NewAdminRepo(db), reg, lim),
		Products:   service.NewProductService(postgres.NewProductRepo(db)),
		Categories: service.NewCategoryService(postgres.NewCategoryRepo(db)),
		Settings:   service.NewSettingsService(postgres.NewSettingsRepo(db), model.DefaultSiteSettings()),
		Images:     imageproxy.NewResolver(logger, cfg.ImageTimeout, imageproxy.WithMaxBytes(cfg.MaxImageBytes)),
		Describer:  desc,
	}
}

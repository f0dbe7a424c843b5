package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/config"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/approval"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/point"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/sector"
	"github.com/cmlabs-hris/attendance-workflow/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/attendance-workflow/internal/handler/http"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-workflow/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-workflow/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-workflow/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/attendance-workflow/internal/service/approval"
	auditService "github.com/cmlabs-hris/attendance-workflow/internal/service/audit"
	pointService "github.com/cmlabs-hris/attendance-workflow/internal/service/point"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"
)

const (
	appName    = "attendance-workflow"
	appVersion = "v1.0.0"
)

type stores struct {
	users     user.UserRepository
	sectors   sector.SectorRepository
	points    point.PointRepository
	approvals approval.ApprovalRepository
	audit     audit.Repository
	close     func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	registry, err := approvalService.LoadRegistry(cfg.Workflow.TemplatesPath)
	if err != nil {
		return err
	}

	clk := clock.Real()
	dispatcher := auditService.NewDispatcher(st.audit, auditService.Config{
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
		QueueSize:     cfg.Audit.QueueSize,
	}, logger)

	resolver := approvalService.NewResolver(st.users, st.sectors, cfg.Workflow.SectorMaxDepth)
	guard := approvalService.NewGuard(resolver, logger)
	approvals := approvalService.NewApprovalService(st.approvals, registry, resolver, guard, dispatcher, clk, logger)
	points := pointService.NewPointService(st.points, dispatcher, clk, pointService.Config{
		DefaultLocation: cfg.Point.DefaultLocation,
		ExpectedDaily:   cfg.ExpectedDaily(),
		AllowReentry:    cfg.Point.AllowReentry,
		Location:        cfg.Location(),
	}, logger)

	scheduler := cron.NewScheduler(logger)
	cron.NewApprovalJobs(approvals, cfg.Workflow.OverdueScanInterval, logger).RegisterJobs(scheduler)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       logLevel(cfg.App.LogLevel),
		},
		jwtService,
		st.users,
		appHTTP.NewPointHandler(points, cfg.Location()),
		appHTTP.NewApprovalHandler(approvals, clk),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// The dispatcher outlives the server so events from in-flight requests
	// are still written; it is stopped after Shutdown returns.
	g.Go(func() error {
		return dispatcher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", server.Addr), slog.String("storage", cfg.App.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		dispatcher.Stop()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped", slog.Int("dropped_audit_events", dispatcher.Dropped()))
		return nil
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.App.StorageDriver {
	case config.StorageMemory:
		users := memory.NewUserRepository()
		sectors := memory.NewSectorRepository()
		if cfg.App.SeedPath != "" {
			seed, err := memory.LoadSeedFile(cfg.App.SeedPath)
			if err != nil {
				return nil, err
			}
			seed.Apply(users, sectors)
		}
		return &stores{
			users:     users,
			sectors:   sectors,
			points:    memory.NewPointRepository(),
			approvals: memory.NewApprovalRepository(),
			audit:     memory.NewAuditRepository(),
			close:     func() {},
		}, nil
	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
			MaxConns: int32(cfg.Database.MaxConns),
			MinConns: int32(cfg.Database.MinConns),
		})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		return &stores{
			users:     postgresql.NewUserRepository(db),
			sectors:   postgresql.NewSectorRepository(db),
			points:    postgresql.NewPointRepository(db),
			approvals: postgresql.NewApprovalRepository(db),
			audit:     postgresql.NewAuditRepository(db),
			close:     db.Close,
		}, nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       logLevel(cfg.App.LogLevel),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("env", cfg.App.Env),
	)
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

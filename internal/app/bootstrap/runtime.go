package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/audit"
	cacheadapter "github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/cache"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/generation"
	grpcadapter "github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/platforms"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/adapters/storage"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m31 publication service", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	files, err := storage.NewLocalFileStore(cfg.MediaRoot, cfg.PublicBaseURL)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	auditLog, err := audit.NewFileLogger(cfg.AuditLogPath, logger)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init audit log: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	locks := cacheadapter.NewRedisPublishLockStore(redisClient)
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	clients := platforms.NewClients(platforms.Config{
		Facebook: platforms.FacebookConfig{
			BaseURL:     cfg.FacebookBaseURL,
			PageID:      cfg.FacebookPageID,
			AccessToken: cfg.FacebookAccessToken,
		},
		Instagram: platforms.InstagramConfig{
			BaseURL:         cfg.InstagramBaseURL,
			UserID:          cfg.InstagramUserID,
			AccessToken:     cfg.InstagramAccessToken,
			PublishAttempts: cfg.InstagramPublishAttempts,
			PublishDelay:    cfg.InstagramPublishDelay,
		},
		LinkedIn: platforms.LinkedInConfig{
			BaseURL:     cfg.LinkedInBaseURL,
			PersonURN:   cfg.LinkedInPersonURN,
			AccessToken: cfg.LinkedInAccessToken,
		},
		WhatsApp: platforms.WhatsAppConfig{
			BaseURL:         cfg.WhatsAppBaseURL,
			AccessToken:     cfg.WhatsAppAccessToken,
			ExcludeContacts: cfg.WhatsAppExcludeContacts,
		},
		TikTok: platforms.TikTokConfig{
			BaseURL:        cfg.TikTokBaseURL,
			AccessToken:    cfg.TikTokAccessToken,
			PrivacyLevel:   cfg.TikTokPrivacyLevel,
			ShareAccount:   cfg.TikTokShareAccount,
			StatusInterval: cfg.TikTokStatusInterval,
			StatusAttempts: cfg.TikTokStatusAttempts,
		},
	}, httpClient, files, auditLog)

	runway := generation.NewRunway(generation.RunwayConfig{
		BaseURL:      cfg.RunwayBaseURL,
		APIKey:       cfg.RunwayAPIKey,
		Model:        cfg.RunwayModel,
		PollInterval: cfg.RunwayPollInterval,
		PollAttempts: cfg.RunwayPollAttempts,
	}, httpClient, files, auditLog)
	sora := generation.NewSora(generation.SoraConfig{
		BaseURL:      cfg.SoraBaseURL,
		APIKey:       cfg.SoraAPIKey,
		Model:        cfg.SoraModel,
		PollInterval: cfg.SoraPollInterval,
		PollAttempts: cfg.SoraPollAttempts,
		SampleVideo:  cfg.SoraSampleVideo,
	}, httpClient, files, auditLog)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName: cfg.ServiceID,
			LockTTL:     cfg.PublishLockTTL,
		},
		Messages:     repos.Messages,
		Publications: repos.Publications,
		Locks:        locks,
		Publishers:   clients.Ordered(),
		Generators:   []ports.VideoGenerator{runway, sora},
		Containers:   clients.Instagram,
		Files:        files,
		Audit:        auditLog,
	})

	handler := httpadapter.NewHandler(svc)
	media := httpadapter.NewMediaHandler(files)
	router := httpadapter.NewRouter(handler, media)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewPublicationInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		_ = auditLog.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
			_ = auditLog.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

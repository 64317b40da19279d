// cmd/sms-gateway/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sms-librarian/internal/alerts"
	"sms-librarian/internal/common/aws"
	"sms-librarian/internal/common/config"
	"sms-librarian/internal/common/database"
	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/common/observability"
	"sms-librarian/internal/library"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/dedupe"
	"sms-librarian/internal/sms/handlers"
	"sms-librarian/internal/sms/orchestrator"
	"sms-librarian/internal/sms/ratelimit"
	"sms-librarian/internal/sms/signature"
	"sms-librarian/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := logger.NewZapAdapter(zapLogger)

	zapLogger.Info("starting sms gateway",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Backing stores ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLogger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer pg.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := pg.Ping(pingCtx); err != nil {
		zapLogger.Warn("postgres not reachable at startup", zap.Error(err))
	}
	cancelPing()

	var redisClient *database.RedisClient
	var dedupeStore *dedupe.Store
	if cfg.Database.Redis.DedupeEnabled {
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLogger.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		dedupeStore = dedupe.NewStore(
			redisClient.GetClient(),
			config.GetMinutes(cfg.Database.Redis.DedupeTTL),
			log,
		)
	}

	storeOpts := []library.StoreOption{}
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLogger.Fatal("failed to create elasticsearch client", zap.Error(err))
		}
		storeOpts = append(storeOpts,
			library.WithElasticsearch(es.GetClient(), cfg.Database.Elasticsearch.Index))
	}
	libraryService := library.NewStore(pg.GetDB(), log, storeOpts...)

	// --- Observability ---
	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		zapLogger.Warn("failed to set up tracing", zap.Error(err))
	}
	defer tracing.Shutdown()

	// --- Security alerting ---
	var notifier *alerts.Notifier
	if cfg.Alerts.Enabled {
		awsCtx, cancelAWS := context.WithTimeout(context.Background(), 10*time.Second)
		var sesService alerts.SESService
		var snsService alerts.SNSService
		if cfg.Alerts.Email.Enabled {
			if client, err := aws.NewSESClient(awsCtx, cfg.Alerts.AWSRegion); err != nil {
				zapLogger.Warn("failed to create SES client", zap.Error(err))
			} else {
				sesService = client
			}
		}
		if cfg.Alerts.SMS.Enabled {
			if client, err := aws.NewSNSClient(awsCtx, cfg.Alerts.AWSRegion); err != nil {
				zapLogger.Warn("failed to create SNS client", zap.Error(err))
			} else {
				snsService = client
			}
		}
		cancelAWS()
		notifier = alerts.NewNotifier(cfg.Alerts, sesService, snsService, log)
	}

	// --- Pipeline components ---
	validator := signature.NewValidator(cfg.Twilio.AuthToken)
	limiter := ratelimit.NewLimiter(
		config.GetSeconds(cfg.RateLimit.WindowSeconds),
		cfg.RateLimit.MaxPerWindow,
	)
	contexts := conversation.NewStore(config.GetMinutes(cfg.Conversation.TTLMinutes))
	registry := handlers.NewRegistry(libraryService, log)

	stop := make(chan struct{})
	limiter.StartCleanup(config.GetSeconds(cfg.RateLimit.CleanupInterval), stop)
	contexts.StartSweep(config.GetSeconds(cfg.Conversation.SweepInterval), stop)

	var securityNotifier orchestrator.SecurityNotifier
	if notifier != nil {
		securityNotifier = notifier
	}

	orch := orchestrator.New(
		orchestrator.Config{
			SkipSignature:       cfg.Twilio.SkipSignature,
			SkipAuthorization:   cfg.Twilio.SkipAuthorization,
			ConfidenceThreshold: cfg.Classifier.ConfidenceThreshold,
			MaxBodyLength:       cfg.Twilio.MaxBodyLength,
		},
		validator, limiter, contexts, registry, libraryService,
		dedupeStore, securityNotifier, obs, tracing, log,
	)

	server := webhook.NewServer(orch, cfg.Twilio.WebhookBaseURL, log)
	server.AddHealthCheck("postgres", pg)
	if redisClient != nil {
		server.AddHealthCheck("redis", redisClient)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLogger.Info("webhook server listening", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	close(stop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("http server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("shutdown complete")
}

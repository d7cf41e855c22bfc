package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dmorgan-dev/consulting-site/cmd/awsconfig"
	"github.com/dmorgan-dev/consulting-site/internal/api/router"
	"github.com/dmorgan-dev/consulting-site/internal/booking"
	"github.com/dmorgan-dev/consulting-site/internal/chat"
	appconfig "github.com/dmorgan-dev/consulting-site/internal/config"
	"github.com/dmorgan-dev/consulting-site/internal/contact"
	"github.com/dmorgan-dev/consulting-site/internal/notify"
	"github.com/dmorgan-dev/consulting-site/internal/observability/metrics"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting consulting-site API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)

	// AWS clients are only needed for the DynamoDB booking backend and the
	// SES email provider.
	var (
		dynamoClient *dynamodb.Client
		sesClient    *sesv2.Client
	)
	if cfg.BookingBackend == "dynamodb" || cfg.EmailProvider == "ses" {
		awsCfg, err := awsconfig.Load(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		dynamoClient = dynamodb.NewFromConfig(awsCfg)
		sesClient = sesv2.NewFromConfig(awsCfg)
	}

	var blob booking.BlobStore
	switch cfg.BookingBackend {
	case "dynamodb":
		blob = booking.NewDynamoBlobStore(dynamoClient, cfg.BookingsTable, cfg.BookingsKey)
	case "memory":
		blob = booking.NewMemoryBlobStore()
	default:
		blob = booking.NewRedisBlobStore(redisClient, cfg.BookingsKey)
	}
	bookingStore := booking.NewStore(blob, logger)

	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		sender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "ses":
		sender = notify.NewSESSender(sesClient, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		sender = notify.NewStubEmailSender(logger)
	}
	notifyService := notify.NewService(sender, cfg.ConsultantEmail, logger)

	gateway, err := chat.NewGatewayClient(chat.GatewayConfig{
		BaseURL: cfg.GatewayURL,
		Timeout: cfg.GatewayTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to configure completion gateway", "error", err)
		os.Exit(1)
	}
	sessionStore := chat.NewRedisSessionStore(redisClient, cfg.ChatSessionTTL)

	reg := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)
	chatMetrics := metrics.NewChatMetrics(reg)

	bookingHandler := booking.NewHandler(bookingStore, notifyService, bookingMetrics, logger)
	chatHandler := chat.NewHandler(sessionStore, gateway, chat.NewStageMachine(nil), chatMetrics, logger)
	contactHandler := contact.NewHandler(notifyService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     bookingHandler,
		ChatHandler:        chatHandler,
		ContactHandler:     contactHandler,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // chat turns wait on the gateway stream
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

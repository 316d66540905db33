package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hopono/scheduling/internal/booking"
	"github.com/hopono/scheduling/internal/email"
	"github.com/hopono/scheduling/internal/handlers"
	"github.com/hopono/scheduling/internal/notify"
	"github.com/hopono/scheduling/internal/outbox"
	"github.com/hopono/scheduling/internal/reminder"
	"github.com/hopono/scheduling/internal/sms"
	"github.com/hopono/scheduling/internal/storage"
	"github.com/hopono/scheduling/libs/config"
	"github.com/hopono/scheduling/libs/db"
	"github.com/hopono/scheduling/libs/httpx"
	"github.com/hopono/scheduling/libs/kafkax"
	otelx "github.com/hopono/scheduling/libs/otel"
	"github.com/hopono/scheduling/libs/runtime"
)

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
	}

	apptsRepo := storage.NewAppointmentRepository(pool)
	clientsRepo := storage.NewClientRepository(pool)
	couponsRepo := storage.NewCouponRepository(pool)
	windowsRepo := storage.NewWindowRepository(pool)
	servicesRepo := storage.NewServiceRepository(pool)
	settingsRepo := storage.NewSettingsRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	reminderRepo := storage.NewReminderRepository(pool, outboxRepo)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@scheduling.local"),
	)
	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}
	gateway := notify.NewSenderGateway(smsSender, emailSender, logger)
	templates := notify.NewTemplates(config.String("BUSINESS_NAME", "Hopono"))

	var guard reminder.Guard = reminder.NewLocalGuard()
	if rdb != nil {
		guard = reminder.NewRedisGuard(rdb, "scheduling:reminder:dispatch", 5*time.Minute)
	}
	dispatcher := reminder.NewDispatcher(reminderRepo, settingsRepo, gateway, templates, guard, logger, reminder.Config{
		Interval: config.Minutes("REMINDER_INTERVAL_MINUTES", 5*time.Minute),
		Slack:    config.Minutes("REMINDER_SLACK_MINUTES", 12*time.Hour),
	})
	go dispatcher.Run(ctx)

	bookingSvc := booking.NewService(apptsRepo, clientsRepo, couponsRepo, windowsRepo, servicesRepo, settingsRepo, outboxRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingSvc, apptsRepo, servicesRepo, couponsRepo, logger)
	adminHandler := handlers.NewAdminHandler(windowsRepo, settingsRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/services", bookingHandler.Services)
	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/book", bookingHandler.Create)
	mux.HandleFunc("/api/v1/public/coupons/validate", bookingHandler.ValidateCoupon)
	mux.HandleFunc("/api/v1/public/confirmation", bookingHandler.Confirmation)
	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/admin/windows", adminHandler.Windows)
	mux.HandleFunc("/api/v1/admin/settings", adminHandler.Settings)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
		httpx.WithTimeout(15 * time.Second),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, config.Int("RATE_LIMIT", 60), time.Minute, "scheduling:rl")
		middlewares = append(middlewares, limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)))
	} else {
		middlewares = append(middlewares, httpx.NewRateLimiter(config.Int("RATE_LIMIT", 60), time.Minute).Middleware())
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

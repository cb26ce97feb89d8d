package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/eventhub/eventhub-api/internal/config"
	"github.com/eventhub/eventhub-api/internal/domain/auth"
	"github.com/eventhub/eventhub-api/internal/domain/event"
	"github.com/eventhub/eventhub-api/internal/domain/realtime"
	"github.com/eventhub/eventhub-api/internal/domain/review"
	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/transaction"
	"github.com/eventhub/eventhub-api/internal/domain/user"
	"github.com/eventhub/eventhub-api/internal/domain/voucher"
	"github.com/eventhub/eventhub-api/internal/middleware"
	"github.com/eventhub/eventhub-api/internal/pkg/database"
	"github.com/eventhub/eventhub-api/internal/pkg/email"
	"github.com/eventhub/eventhub-api/internal/pkg/errorhandler"
	"github.com/eventhub/eventhub-api/internal/pkg/google"
	"github.com/eventhub/eventhub-api/internal/pkg/imaging"
	"github.com/eventhub/eventhub-api/internal/pkg/jwt"
	"github.com/eventhub/eventhub-api/internal/pkg/logger"
	"github.com/eventhub/eventhub-api/internal/pkg/metrics"
	pkgresponse "github.com/eventhub/eventhub-api/internal/pkg/response"
	"github.com/eventhub/eventhub-api/internal/pkg/storage"
)

// handlers groups everything the router mounts.
type handlers struct {
	auth        *auth.Handler
	user        *user.Handler
	reward      *reward.Handler
	event       *event.Handler
	voucher     *voucher.Handler
	transaction *transaction.Handler
	review      *review.Handler
	realtime    *realtime.Handler
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	// Prices are JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting EventHub API")

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Redis backs the event cache, reset tokens and websocket fan-out.
	// Without it every one of those falls back to in-process state.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without cache and cross-instance push")
			redisClient = nil
		} else {
			defer database.CloseRedis(redisClient)
		}
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	store, err := storage.New(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.LocalStoragePath,
		LocalURL:    cfg.LocalStorageURL,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}
	uploader := storage.NewUploader(store, imaging.NewProcessor(imaging.DefaultConfig()))

	var sender email.Sender = email.LogSender{}
	if cfg.SendGridAPIKey != "" {
		sender = email.NewSendGridClient(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.MailFromEmail,
			FromName:  cfg.MailFromName,
		})
	}
	mailer := email.NewService(sender, 100)
	defer mailer.Close()

	resetTokens := auth.NewMemoryResetTokenStore()
	if redisClient != nil {
		resetTokens = auth.NewRedisResetTokenStore(redisClient)
	}

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(redisClient)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	rewardRepo := reward.NewRepository(db)
	eventRepo := event.NewRepository(db)
	voucherRepo := voucher.NewRepository(db)
	transactionRepo := transaction.NewRepository(db)
	reviewRepo := review.NewRepository(db)

	// ---------- Services ----------
	authService := auth.NewService(
		userRepo,
		auth.NewRegistrationStore(db),
		jwtService,
		google.NewClient(cfg.GoogleUserInfoURL, 10*time.Second),
		resetTokens,
		mailer,
		cfg.FrontendURL,
	)
	userService := user.NewService(userRepo, uploader)
	rewardService := reward.NewService(rewardRepo)
	eventService := event.NewService(eventRepo, event.NewCache(redisClient), uploader)
	voucherService := voucher.NewService(voucherRepo, eventService)
	transactionService := transaction.NewService(transactionRepo, uploader, mailer, hub, eventService)
	reviewService := review.NewService(reviewRepo, eventService)

	h := handlers{
		auth:        auth.NewHandler(authService, auth.CookieConfig{Secure: cfg.CookieSecure}),
		user:        user.NewHandler(userService),
		reward:      reward.NewHandler(rewardService),
		event:       event.NewHandler(eventService),
		voucher:     voucher.NewHandler(voucherService),
		transaction: transaction.NewHandler(transactionService),
		review:      review.NewHandler(reviewService),
		realtime:    realtime.NewHandler(hub, cfg.AllowedOrigins),
	}

	r := newRouter(cfg, h, middleware.Auth(jwtService))
	if local, ok := store.(*storage.LocalStorage); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.BasePath()))))
	}

	// ---------- Background workers ----------
	// PAYMENT_PROOF_TTL unset or 0 leaves pending transactions to the organizer.
	expiryWorker := transaction.NewWorker(transactionService, cfg.PaymentProofTTL, cfg.ExpiryWorkerInterval)
	expiryWorker.Start()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	expiryWorker.Stop()

	log.Info().Msg("Server exited properly")
}

func newRouter(cfg *config.Config, h handlers, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.NotFound(errorhandler.NotFoundRoute)
	r.MethodNotAllowed(errorhandler.MethodNotAllowed)

	r.With(authMiddleware).Get("/ws", h.realtime.WebSocket)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", h.auth.Routes())
		r.Mount("/users", h.user.Routes(authMiddleware, func(r chi.Router) {
			r.Get("/rewards", h.reward.GetMine)
		}))
		r.Mount("/events", h.event.Routes(authMiddleware, h.voucher.Mount))
		r.Mount("/transactions", h.transaction.Routes(authMiddleware, h.review.Mount))
	})

	return r
}

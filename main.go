package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spotted/internal/config"
	"spotted/internal/database"
	"spotted/internal/handlers"
	"spotted/internal/media"
	"spotted/internal/middleware"
	"spotted/internal/sessions"
)

func main() {
	logger := newLogger(os.Getenv("APP_ENV"))
	defer logger.Sync()

	cfg := config.Load(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(cfg.DBName)
	logger.Info("MongoDB connected", zap.String("database", db.Name()))

	if err := database.EnsureIndexes(db, logger.Named("database")); err != nil {
		logger.Warn("index setup incomplete", zap.Error(err))
	}

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("validator setup failed", zap.Error(err))
	}

	useTransactions := database.ResolveTransactions(ctx, client, cfg.Transactions, logger.Named("database"))
	store := database.NewStore(db, useTransactions, logger.Named("database"))
	manager := sessions.NewManager(
		sessions.NewMongoStore(db, database.SessionsCollection),
		sessions.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL),
		sessions.Options{
			CookieName: cfg.SessionCookie,
			TTL:        cfg.SessionTTL,
			Secure:     cfg.CookieSecure,
		},
	)

	var uploader media.Uploader = media.Disabled{}
	if cfg.Media.Enabled() {
		uploader = media.NewS3Uploader(cfg.Media, logger.Named("media"))
	} else {
		logger.Warn("MEDIA_BUCKET not configured, uploads disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.Named("http")))
	r.Use(middleware.Deadline(cfg.RequestTimeout))

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Users:    store,
		Spots:    store,
		Comments: store,
		DB:       store,
		Sessions: manager,
		Uploader: uploader,
		Logger:   logger,
	})
	if cfg.StaticDir != "" {
		r.NoRoute(handlers.SinglePageApp(cfg.StaticDir))
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		})(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment(zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if err != nil {
		panic(err)
	}
	return logger
}

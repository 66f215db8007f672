package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auxeira/realtime/pkg/auth"
	"github.com/auxeira/realtime/pkg/config"
	"github.com/auxeira/realtime/pkg/email"
	"github.com/auxeira/realtime/pkg/gateway"
	"github.com/auxeira/realtime/pkg/httpserver"
	"github.com/auxeira/realtime/pkg/logger"
	"github.com/auxeira/realtime/pkg/notifications"
	"github.com/auxeira/realtime/pkg/ratelimiter"
	"github.com/auxeira/realtime/pkg/redis"
	"github.com/auxeira/realtime/pkg/requestid"
	"github.com/auxeira/realtime/pkg/transport"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server   httpserver.Config
	Redis    redis.Config
	Auth     auth.Config
	Gateway  gateway.Config
	Notify   notifications.Config
	WS       transport.Config
	Limit    ratelimiter.Config
	Postmark emailConfig
}

// emailConfig makes sender identity optional at the app level; email
// delivery is enabled only when the Postmark tokens are present.
type emailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@auxeira.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@auxeira.com"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	logOpts := []logger.Option{
		logger.WithService("realtime"),
		logger.WithLevel(parseLevel(cfg.LogLevel)),
	}
	if cfg.Environment == "development" {
		logOpts = append(logOpts, logger.WithDevelopment())
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	authenticator, err := auth.NewTokenAuthenticator(cfg.Auth)
	if err != nil {
		return err
	}

	gw := gateway.New(authenticator,
		gateway.WithLogger(log),
		gateway.WithConfig(cfg.Gateway),
	)

	var (
		storage    notifications.Storage
		prefs      notifications.PreferenceStore
		readyFuncs []func(context.Context) error
	)
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		storage = notifications.NewRedisStorage(client)
		prefs = notifications.NewCachedPreferenceStore(notifications.NewRedisPreferenceStore(client), 1024)
		readyFuncs = append(readyFuncs, redis.Healthcheck(client))
		log.Info("using redis-backed notification stores")
	} else {
		storage = notifications.NewMemoryStorage()
		prefs = notifications.NewMemoryPreferenceStore()
		log.Warn("redis not configured, notification state is in-memory only")
	}

	dispatcherOpts := []notifications.Option{
		notifications.WithLogger(log),
		notifications.WithConfig(cfg.Notify),
	}
	if cfg.Postmark.PostmarkServerToken != "" && cfg.Postmark.PostmarkAccountToken != "" {
		sender, err := email.NewPostmarkSender(email.Config{
			PostmarkServerToken:  cfg.Postmark.PostmarkServerToken,
			PostmarkAccountToken: cfg.Postmark.PostmarkAccountToken,
			SenderEmail:          cfg.Postmark.SenderEmail,
			SupportEmail:         cfg.Postmark.SupportEmail,
		})
		if err != nil {
			return err
		}
		// Recipient addresses come from the account service; until that
		// integration lands the email channel only handles notifications
		// whose payload carries an address.
		dispatcherOpts = append(dispatcherOpts,
			notifications.WithSecondaryChannels(notifications.NewEmailChannel(sender, payloadAddressBook{})),
		)
		log.Info("email channel enabled")
	}

	dispatcher := notifications.NewDispatcher(storage, prefs, gw, dispatcherOpts...)
	defer dispatcher.Close()

	wsHandler := transport.NewHandler(gw, dispatcher,
		transport.WithLogger(log),
		transport.WithConfig(cfg.WS),
	)

	limitStore := ratelimiter.NewMemoryStore()
	defer limitStore.Close()
	limiter, err := ratelimiter.NewBucket(limitStore, cfg.Limit)
	if err != nil {
		return err
	}

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(middleware.Recoverer)
	router.With(ratelimiter.Middleware(limiter, transport.ClientIP, log)).Handle("/ws", wsHandler)
	router.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	router.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, readyFuncs...))
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gw.HealthCheck())
	})
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, gw.Metrics())
	})

	srv := httpserver.NewFromConfig(cfg.Server,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(log *slog.Logger) {
			log.Info("realtime server listening", slog.String("addr", cfg.Server.Addr))
		}),
		httpserver.WithStopHook(func(log *slog.Logger) {
			if err := gw.Shutdown(context.Background()); err != nil {
				log.Error("gateway shutdown failed", logger.Error(err))
			}
		}),
	)

	return srv.Run(ctx, router)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// payloadAddressBook is the stand-in until the account service directory
// integration lands: notifications must carry the recipient address in
// their payload, anything else is undeliverable by email.
type payloadAddressBook struct{}

func (payloadAddressBook) EmailFor(ctx context.Context, userID string) (string, error) {
	return "", notifications.ErrNoAddress
}

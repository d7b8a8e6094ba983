// @title           RecetAR API
// @version         1.0
// @description     Pharmacy prescription backend: accounts, sessions, supply catalog and the Andes integration.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/recetar/recetar-api/docs"
	"github.com/recetar/recetar-api/internal/api"
	"github.com/recetar/recetar-api/internal/core/service"
	mongorepo "github.com/recetar/recetar-api/internal/infrastructure/db/mongo"
	redisstore "github.com/recetar/recetar-api/internal/infrastructure/db/redis"
	"github.com/recetar/recetar-api/internal/infrastructure/http/handlers"
	"github.com/recetar/recetar-api/internal/infrastructure/mail"
	"github.com/recetar/recetar-api/internal/infrastructure/queue"
	"github.com/recetar/recetar-api/internal/pkg/config"
	"github.com/recetar/recetar-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is fine outside development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "recetar-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongorepo.Connect(ctx, mongorepo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	// Redis only backs the recovery throttle, which fails open. Start without
	// it and let the client reconnect when the server comes back.
	redisCfg := redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	rdb, err := redisstore.Connect(ctx, redisCfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, recovery requests are not throttled until it is back")
		rdb = redisstore.NewClient(redisCfg)
	}

	users := mongorepo.NewUserRepository(db)
	roles := mongorepo.NewRoleRepository(db)
	supplies := mongorepo.NewSupplyRepository(db)
	if err := mongorepo.EnsureIndexes(ctx, users, roles, supplies); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Mail ---
	mailLog := logger.Component("mail")
	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("mail templates failed to parse")
	}
	sender := mail.NewRetrySender(mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Secure:   cfg.Email.Secure,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.FromAddress(),
		Timeout:  cfg.Email.Timeout,
	}), cfg.Email.MaxAttempts, 0, mailLog)

	// Mail workers outlive the signal context so queued mails can finish
	// during the shutdown grace period.
	mailCtx, stopMail := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Email.Workers, sender, mailLog)
	dispatcher.Start(mailCtx)
	notifier := mail.NewNotifier(renderer, dispatcher, sender, cfg.Email.FromAddress())

	// --- Services ---
	tokens, err := service.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}
	andesTokens, err := service.NewTokenService(cfg.Auth.AndesSecret())
	if err != nil {
		log.Fatal().Err(err).Msg("andes token service")
	}

	authService := service.NewAuthService(
		users, roles, tokens, notifier,
		redisstore.NewRecoveryThrottle(rdb, cfg.Auth.RecoveryCooldown),
		service.AuthConfig{
			SessionTTL:          cfg.Auth.SessionTTL(),
			ServiceTokenTTL:     cfg.Auth.ServiceTokenTTL,
			AppDomain:           cfg.Auth.AppDomain,
			RecoveryMailTimeout: cfg.Email.RecoveryTimeout,
		},
		log,
	)
	supplyService := service.NewSupplyService(supplies, log)

	e := api.NewRouter(api.Dependencies{
		Log:      log,
		Auth:     authService,
		Supplies: supplyService,
		Sessions: tokens,
		Andes:    service.NewDelegatedVerifier(andesTokens, users),
		Checks: map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		},
		OptionalChecks: []string{"redis"},
	})
	e.Server.ReadTimeout = cfg.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.HTTP.WriteTimeout
	e.Server.ReadHeaderTimeout = cfg.HTTP.ReadHeaderTimeout

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown failed")
	}

	// Deliver queued mail until the grace period runs out.
	dispatcher.Close()
	go func() {
		<-shutdownCtx.Done()
		stopMail()
	}()
	dispatcher.Wait()
	stopMail()

	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
	log.Info().Msg("goodbye")
}

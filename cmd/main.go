package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/sentinelid/authcore/config"
	httpadapter "github.com/sentinelid/authcore/internal/adapters/primary/http"
	"github.com/sentinelid/authcore/internal/adapters/secondary/eventbroker"
	"github.com/sentinelid/authcore/internal/adapters/secondary/repository"
	"github.com/sentinelid/authcore/internal/adapters/secondary/security"
	"github.com/sentinelid/authcore/internal/adapters/secondary/telemetry"
	"github.com/sentinelid/authcore/internal/core/ports"
	"github.com/sentinelid/authcore/internal/core/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	initLogger(cfg)
	slog.Info("starting authcore", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		slog.Error("failed to build otel resource", "error", err)
		os.Exit(1)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("error shutting down tracer", "error", err)
		}
	}()

	dbConfig, err := pgxpool.ParseConfig(cfg.Postgres.URL)
	if err != nil {
		slog.Error("unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	broker, err := eventbroker.NewNatsBroker(cfg.Mail.URL)
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	slog.Info("NATS JetStream connected")
	if cfg.Mail.Vhost != "" && cfg.Mail.Vhost != "/" {
		slog.Warn("MAIL_VHOST is set but unused by the NATS transport", "vhost", cfg.Mail.Vhost)
	}

	privKey, pubKey, err := loadKeyPair(cfg.Token.PrivateKeyPath, cfg.Token.PublicKeyPath)
	if err != nil {
		slog.Error("failed to load token signing keys", "error", err)
		os.Exit(1)
	}

	random := security.NewCryptoRandom()

	signer, err := security.NewJWTSigner(privKey, pubKey, cfg.Token.KeyID, cfg.Token.Issuer, cfg.Token.Audience, cfg.Token.AccessTTL, random)
	if err != nil {
		slog.Error("failed to init token signer", "error", err)
		os.Exit(1)
	}

	passwordHasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.MemoryKiB,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})

	cipher, err := security.NewAEADCipher([]byte(cfg.CipherKey), []byte(cfg.CipherSalt))
	if err != nil {
		slog.Error("failed to init field cipher", "error", err)
		os.Exit(1)
	}

	hasher := security.NewPepperedHasher([]byte(cfg.HasherPepper))
	clock := security.NewSystemClock()
	totpGen := security.NewTotpGenerator()
	refreshMgr := security.NewRefreshTokenManager(random, int64(cfg.Token.RefreshTTLDays)*24*60*60)

	accounts := repository.NewPostgresRepo(dbPool)
	refreshTokens := repository.NewRefreshTokenRepo(dbPool)
	invites := repository.NewInviteRepo(dbPool)
	uow := repository.NewPostgresUnitOfWork(dbPool)

	promTelemetry := telemetry.NewPrometheusTelemetry(prometheus.DefaultRegisterer)

	identityService := services.NewIdentityService(services.Deps{
		Accounts:      accounts,
		RefreshTokens: refreshTokens,
		Invites:       invites,
		UnitOfWork:    uow,
		InviteOnly:    cfg.InviteOnly,
		Clock:         clock,
		Random:        random,
		Hasher:        hasher,
		Passwords:     passwordHasher,
		Totp:          totpGen,
		Cipher:        cipher,
		Signer:        signer,
		RefreshMgr:    refreshMgr,
		Telemetry:     promTelemetry,
		Mailer:        broker,
		TotpConfig:    ports.TotpConfig{Period: cfg.TOTP.Period, Digits: cfg.TOTP.Digits},
	})

	handler := httpadapter.NewHandler(identityService)
	router := httpadapter.NewRouter(handler, signer)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	slog.Info("signal received, shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during graceful shutdown", "error", err)
	}
	slog.Info("service stopped")
}

func initLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func loadKeyPair(privPath, pubPath string) ([]byte, []byte, error) {
	priv, err := os.ReadFile(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading private key: %w", err)
	}
	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading public key: %w", err)
	}
	return priv, pub, nil
}

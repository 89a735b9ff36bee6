// authgate es el servicio de autenticación: login por código de email para
// usuarios locales y access tokens bearer para usuarios API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nu-its/authgate/internal/config"
	"github.com/nu-its/authgate/internal/email"
	adminctrl "github.com/nu-its/authgate/internal/http/controllers/admin"
	authctrl "github.com/nu-its/authgate/internal/http/controllers/auth"
	healthctrl "github.com/nu-its/authgate/internal/http/controllers/health"
	mectrl "github.com/nu-its/authgate/internal/http/controllers/me"
	webhookctrl "github.com/nu-its/authgate/internal/http/controllers/webhook"
	mw "github.com/nu-its/authgate/internal/http/middlewares"
	"github.com/nu-its/authgate/internal/http/router"
	adminsvc "github.com/nu-its/authgate/internal/http/services/admin"
	authsvc "github.com/nu-its/authgate/internal/http/services/auth"
	jwtx "github.com/nu-its/authgate/internal/jwt"
	"github.com/nu-its/authgate/internal/metrics"
	"github.com/nu-its/authgate/internal/observability/logger"
	"github.com/nu-its/authgate/internal/rate"
	"github.com/nu-its/authgate/internal/security/code"
	"github.com/nu-its/authgate/internal/store"
	"github.com/nu-its/authgate/internal/store/memory"
	pgdriver "github.com/nu-its/authgate/internal/store/pg"
	migrations "github.com/nu-its/authgate/migrations/postgres"
)

const version = "1.0.0"

func main() {
	// .env local si existe; en prod todo viene del entorno real
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "authgate",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := run(cfg, log); err != nil {
		log.Fatal("service failed", logger.Err(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Paso 1: storage
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Paso 2: rate limiter por email (y por IP para los endpoints públicos)
	emailLimiter, ipLimiter, redisClient := buildLimiters(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Paso 3: generador de códigos
	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("code generator: %w", err)
	}

	// Paso 4: email
	sender := buildSender(cfg, log)
	mailQueue := email.NewQueue(sender, st.Challenges(), 64)

	// Paso 5: sesiones y métricas
	sessions := jwtx.NewIssuer([]byte(cfg.Session.Secret), cfg.Session.Issuer, cfg.SessionTTL())
	if err := metrics.RegisterAll(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// Paso 6: services y controllers
	challengeSvc := authsvc.NewChallengeService(authsvc.ChallengeDeps{
		Challenges: st.Challenges(),
		Users:      st.Users(),
		Generator:  gen,
		Limiter:    emailLimiter,
		Mail:       mailQueue,
		Sessions:   sessions,
		Config: authsvc.ChallengeConfig{
			TTL:         cfg.ChallengeTTL(),
			MaxAttempts: cfg.Auth.MaxAttempts,
			LockWindow:  cfg.LockWindow(),
		},
	})
	adminSvc := adminsvc.NewTokenService(adminsvc.TokenDeps{
		Tokens:     st.Tokens(),
		Users:      st.Users(),
		HMACKey:    []byte(cfg.Token.HMACKey),
		TokenBytes: cfg.Token.Bytes,
	})

	handler := router.New(router.Deps{
		Store:     st,
		Challenge: authctrl.NewChallengeController(challengeSvc),
		Me:        mectrl.NewController(),
		Tokens:    adminctrl.NewTokensController(adminSvc),
		Users:     adminctrl.NewUsersController(adminSvc),
		Health:    healthctrl.NewHealthController(st),
		NetID:     webhookctrl.NewNetIDController(st.Users()),
		BearerConfig: mw.BearerConfig{
			Tokens:  st.Tokens(),
			HMACKey: []byte(cfg.Token.HMACKey),
		},
		Sessions:    sessions,
		AdminAPIKey: cfg.Admin.APIKey,
		IPLimiter:   ipLimiter,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  parseTimeout(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: parseTimeout(cfg.Server.WriteTimeout, 30*time.Second),
	}

	g, gctx := errgroup.WithContext(ctx)

	// Worker de correo
	g.Go(func() error {
		return mailQueue.Run(gctx)
	})

	// Cleanup periódico de challenges viejos
	g.Go(func() error {
		return runCleanup(gctx, st, cfg.CleanupInterval(), log)
	})

	// HTTP server
	g.Go(func() error {
		log.Info("service up",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.String("storage", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Shutdown ordenado al cancelar el contexto
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("service stopped")
	return nil
}

// openStore abre el backend configurado y corre migraciones si aplica.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		st, err := pgdriver.New(ctx, pgdriver.Config{
			DSN:             cfg.Storage.DSN,
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: parseTimeout(cfg.Storage.Postgres.ConnMaxLifetime, 30*time.Minute),
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Migrate {
			if err := st.Migrate(ctx, migrations.FS, migrations.Dir); err != nil {
				_ = st.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return st, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildLimiters construye los rate limiters según cache.kind. El limiter de
// email usa ventana de una hora; el de IP una ventana corta anti-burst.
func buildLimiters(cfg *config.Config) (rate.Limiter, rate.Limiter, *rdb.Client) {
	if cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		emailL := rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix+"email:", cfg.Auth.RateLimitPerHour, time.Hour)
		ipL := rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix+"ip:", 60, time.Minute)
		return emailL, ipL, client
	}
	emailL := rate.NewMemoryLimiter("email:", cfg.Auth.RateLimitPerHour, time.Hour)
	ipL := rate.NewMemoryLimiter("ip:", 60, time.Minute)
	return emailL, ipL, nil
}

// buildGenerator arma la estrategia de generación de códigos.
func buildGenerator(cfg *config.Config) (code.Generator, error) {
	if cfg.Auth.CodeStrategy == "fixed" {
		return code.NewFixedGenerator(cfg.Auth.Digits, cfg.Auth.FixedSeed)
	}
	return code.NewRandomGenerator(cfg.Auth.Digits)
}

// buildSender elige SMTP real o log-only según configuración.
func buildSender(cfg *config.Config, log *zap.Logger) email.Sender {
	if cfg.SMTP.Host == "" {
		log.Warn("smtp host not configured, using log sender")
		return email.LogSender{}
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		From:               cfg.SMTP.From,
		TLSMode:            cfg.SMTP.TLS,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	})
}

// runCleanup borra periódicamente challenges expirados o consumidos.
func runCleanup(ctx context.Context, st store.Store, interval time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Conservar una hora extra después de expirar para diagnóstico
			cutoff := time.Now().UTC().Add(-1 * time.Hour)
			n, err := st.Challenges().DeleteExpired(ctx, cutoff)
			if err != nil {
				log.Error("challenge cleanup failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Info("expired challenges deleted", logger.Count(n))
			}
		}
	}
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

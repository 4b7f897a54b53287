package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/api"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/auth"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/config"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/guard"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/httputil"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/observability"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/profile"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/provisioning"
	"github.com/dionilsonrodrigues-bit/criadoragente/pkg/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting Atendi console")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	// Database
	db, err := sql.Open("postgres", cfg.Auth.PostgresURL)
	if err != nil {
		logger.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Error("Failed to ping database")
		os.Exit(1)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Redis profile cache (optional)
	var redisClient *redis.Client
	if cfg.Profile.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Profile.RedisURL)
		if err != nil {
			logger.WithError(err).Error("Invalid redis URL")
			os.Exit(1)
		}
		if cfg.Profile.RedisPassword != "" {
			opts.Password = cfg.Profile.RedisPassword
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Error("Failed to ping redis")
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Credential store
	sessionStore := auth.NewPostgresSessionStore(db, cfg.Auth.SessionTTL)
	creds := auth.NewLocalCredentialStore(sessionStore, logger)
	defer creds.Close()

	// Profile store, cached when redis is configured
	var profiles profile.Store = profile.NewPostgresStore(db)
	if redisClient != nil {
		profiles = profile.NewCachedStore(profiles, redisClient, cfg.Profile.CacheTTL, metrics)
	}

	// Session resolver
	resolver := session.NewResolver(creds, profiles, session.Config{
		FetchTimeout: cfg.Profile.FetchTimeout,
		Logger:       logger,
		Metrics:      metrics,
	})

	// Route guard
	policy := guard.DefaultPolicy()
	if cfg.Guard.PolicyPath != "" {
		policy, err = guard.LoadPolicy(cfg.Guard.PolicyPath)
		if err != nil {
			logger.WithError(err).Error("Failed to load guard policy")
			os.Exit(1)
		}
	} else if err := policy.Validate(); err != nil {
		logger.WithError(err).Error("Built-in guard policy is invalid")
		os.Exit(1)
	}
	guardMiddleware := guard.NewMiddleware(resolver, policy, logger, metrics)

	// Operator identity provider (optional)
	var oidc *auth.OIDCAuthenticator
	if cfg.Auth.OIDCIssuerURL != "" {
		oidc, err = auth.NewOIDCAuthenticator(ctx, auth.OIDCConfig{
			IssuerURL:    cfg.Auth.OIDCIssuerURL,
			ClientID:     cfg.Auth.OIDCClientID,
			ClientSecret: cfg.Auth.OIDCClientSecret,
			RedirectURL:  cfg.Auth.OIDCRedirectURL,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize OIDC")
			os.Exit(1)
		}
	}

	// Provisioning service boundary (optional)
	var provisioner provisioning.Service
	if cfg.Provisioning.BaseURL != "" {
		provisioner = provisioning.NewClient(cfg.Provisioning.BaseURL, cfg.Provisioning.ServiceKey)
	}

	server := api.NewServer(api.Deps{
		Credentials:  creds,
		Resolver:     resolver,
		Guard:        guardMiddleware,
		OIDC:         oidc,
		Provisioning: provisioner,
		Logger:       logger,
		Metrics:      metrics,
	})

	var handler http.Handler = server
	handler = httputil.LoggingMiddleware(logger)(handler)
	handler = httputil.RequestIDMiddleware(handler)
	handler = metrics.Middleware(handler)
	handler = observability.RecoveryMiddleware(logger)(handler)
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "console")
	}

	mainServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes
	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health/live", healthChecker.Liveness)
	healthMux.HandleFunc("/health/ready", healthChecker.Readiness)
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	// Expired session purge
	purger := cron.New()
	_, err = purger.AddFunc(cfg.Auth.PurgeSchedule, func() {
		purgeCtx, purgeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer purgeCancel()

		purged, err := sessionStore.PurgeExpired(purgeCtx)
		if err != nil {
			logger.WithError(err).Error("Session purge failed")
			return
		}
		metrics.SessionsPurgedTotal.Add(float64(purged))

		if active, err := sessionStore.CountActive(purgeCtx); err == nil {
			metrics.SessionsActive.Set(float64(active))
		}
		logger.WithField("purged", purged).Info("Expired sessions purged")
	})
	if err != nil {
		logger.WithError(err).Error("Failed to schedule session purge")
		os.Exit(1)
	}
	purger.Start()

	shutdownManager := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)
	shutdownManager.RegisterServer(mainServer)
	shutdownManager.RegisterServer(healthServer)
	shutdownManager.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		cancel() // stops the resolver loop
		stopCtx := purger.Stop()
		select {
		case <-stopCtx.Done():
		case <-shutdownCtx.Done():
		}
		return nil
	})
	if otelProviders != nil {
		shutdownManager.RegisterShutdownFunc(otelProviders.Shutdown)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return resolver.Run(gctx)
	})
	g.Go(func() error {
		logger.Infof("Console listening on %s", mainServer.Addr)
		if err := mainServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health and metrics listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return shutdownManager.WaitForShutdown()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("Console exited with error")
		os.Exit(1)
	}
	logger.Info("Console stopped")
}

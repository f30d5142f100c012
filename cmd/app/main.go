// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"effects-store/internal/config"
	"effects-store/internal/domain/ports/adapter"
	payAdapters "effects-store/internal/infra/adapters/payment"
	storeAdapters "effects-store/internal/infra/adapters/storage"
	pg "effects-store/internal/infra/db/postgres"
	"effects-store/internal/infra/logging"
	"effects-store/internal/infra/metrics"
	red "effects-store/internal/infra/redis"
	"effects-store/internal/infra/web"
	"effects-store/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed timeouts)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis (optional; rate limiting is skipped without it) ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; per-user rate limiting disabled")
	}

	// ---- Repositories ----
	purchaseRepo := pg.NewPostgresPurchaseRepo(pool)
	couponRepo := pg.NewPostgresCouponRepo(pool)
	catalogRepo := pg.NewPostgresCatalogRepo(pool)
	userRepo := pg.NewPostgresUserRepo(pool)

	// ---- Payment gateways ----
	base := strings.TrimRight(cfg.Server.BaseURL, "/")
	callbacks := adapter.CallbackURLs{
		Success: base + "/?purchase=success",
		Failure: base + "/?purchase=failure",
		Pending: base + "/?purchase=pending",
	}

	mp, err := payAdapters.NewMercadoPagoGateway(
		cfg.Payment.MercadoPago.AccessToken,
		cfg.Payment.MercadoPago.Currency,
		cfg.Payment.MercadoPago.ConversionRate,
	)
	if err != nil {
		log.Fatalf("mercadopago gateway: %v", err)
	}
	pp, err := payAdapters.NewPayPalGateway(
		cfg.Payment.PayPal.ClientID,
		cfg.Payment.PayPal.ClientSecret,
		cfg.Payment.PayPal.Sandbox,
	)
	if err != nil {
		log.Fatalf("paypal gateway: %v", err)
	}
	verifier := payAdapters.NewWebhookVerifier(cfg.Payment.MercadoPago.WebhookSecret)
	if !verifier.Enabled() {
		logger.Warn().Msg("mercadopago webhook secret not set; signature verification disabled")
	}

	// ---- Asset fetcher ----
	assets, err := storeAdapters.NewDriveFetcher(
		cfg.Drive.ServiceAccountEmail,
		cfg.Drive.PrivateKeyPEM,
		cfg.Drive.TokenURL,
	)
	if err != nil {
		log.Fatalf("drive fetcher: %v", err)
	}

	// ---- Use cases ----
	checkoutUC := usecase.NewCheckoutUseCase(purchaseRepo, catalogRepo, couponRepo, callbacks, logger)
	reconcileUC := usecase.NewReconcileUseCase(purchaseRepo, catalogRepo, userRepo, logger)
	downloadUC := usecase.NewDownloadUseCase(purchaseRepo, catalogRepo, assets, logger)
	userUC := usecase.NewUserUseCase(userRepo)
	couponUC := usecase.NewCouponUseCase(couponRepo)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret)
	srv := web.NewServer(
		checkoutUC, reconcileUC, downloadUC, userUC, couponUC,
		mp, pp, verifier,
		auth, rateLimiter, cfg.RateLimit, cfg.Server.RequestTimeout, logger,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"effects-store/internal/config"
	"effects-store/internal/domain/ports/adapter"
	"effects-store/internal/infra/adapters/payment"
	redisinfra "effects-store/internal/infra/redis"
	"effects-store/internal/usecase"
)

type Server struct {
	checkoutUC  usecase.CheckoutUseCase
	reconcileUC usecase.ReconcileUseCase
	downloadUC  usecase.DownloadUseCase
	userUC      usecase.UserUseCase
	couponUC    usecase.CouponUseCase

	mercadoPago adapter.PaymentGateway
	payPal      adapter.PaymentGateway
	verifier    *payment.WebhookVerifier

	auth    *AuthManager
	limiter *redisinfra.RateLimiter
	rl      config.RateLimitConfig
	timeout time.Duration
	log     *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	reconcileUC usecase.ReconcileUseCase,
	downloadUC usecase.DownloadUseCase,
	userUC usecase.UserUseCase,
	couponUC usecase.CouponUseCase,
	mercadoPago adapter.PaymentGateway,
	payPal adapter.PaymentGateway,
	verifier *payment.WebhookVerifier,
	auth *AuthManager,
	limiter *redisinfra.RateLimiter,
	rl config.RateLimitConfig,
	timeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC:  checkoutUC,
		reconcileUC: reconcileUC,
		downloadUC:  downloadUC,
		userUC:      userUC,
		couponUC:    couponUC,
		mercadoPago: mercadoPago,
		payPal:      payPal,
		verifier:    verifier,
		auth:        auth,
		limiter:     limiter,
		rl:          rl,
		timeout:     timeout,
		log:         logger,
	}
}

// Router builds the route tree. Checkout and download sit behind bearer auth
// and the per-user rate limit; webhook-style endpoints are reachable by the
// processors without credentials.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))
	if s.timeout > 0 {
		r.Use(Timeout(s.timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		checkoutLimit := s.RateLimit("checkout", s.rl.Checkout, s.rl.Window)
		downloadLimit := s.RateLimit("download", s.rl.Download, s.rl.Window)

		r.Method(http.MethodPost, "/create-checkout",
			Chain(http.HandlerFunc(s.handleCreateCheckout), s.RequireUser, checkoutLimit))
		r.Method(http.MethodPost, "/create-checkout-paypal",
			Chain(http.HandlerFunc(s.handleCreateCheckoutPayPal), s.RequireUser, checkoutLimit))

		r.Post("/mp-webhook", s.handleMercadoPagoWebhook)
		r.Post("/paypal-webhook", s.handlePayPalCapture)
		r.Post("/payt-postback", s.handlePaytPostback)

		r.Method(http.MethodGet, "/secure-download",
			Chain(http.HandlerFunc(s.handleSecureDownload), s.RequireUser, downloadLimit))
		r.Method(http.MethodGet, "/admin-download",
			Chain(http.HandlerFunc(s.handleAdminDownload), s.RequireAdmin))

		r.Method(http.MethodGet, "/admin-users", Chain(http.HandlerFunc(s.handleAdminUsersList), s.RequireAdmin))
		r.Method(http.MethodPost, "/admin-users", Chain(http.HandlerFunc(s.handleAdminUserRole), s.RequireAdmin))

		r.Method(http.MethodGet, "/admin-coupons", Chain(http.HandlerFunc(s.handleAdminCouponsList), s.RequireAdmin))
		r.Method(http.MethodPost, "/admin-coupons", Chain(http.HandlerFunc(s.handleAdminCouponCreate), s.RequireAdmin))
	})

	return r
}

package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/ragno-typhojem/libocculus/internal/config"
	"github.com/ragno-typhojem/libocculus/internal/transport/http/handler"
	appmiddleware "github.com/ragno-typhojem/libocculus/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	return NewHandler(cfg, deps.Services(cfg), deps.JWTProvider)
}

// NewHandler mounts the routes for already-built services.
func NewHandler(cfg *config.Config, svcs Services, verifier appmiddleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on public credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustProxyHeaders)
	// Each code request sends an email.
	otpRL := appmiddleware.OTPThrottle(3, time.Minute, cfg.TrustProxyHeaders)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(svcs.Auth)
	sessionH := handler.NewSessionHandler(svcs.Session)
	resetH := handler.NewPasswordResetHandler(svcs.Auth)
	reportH := handler.NewReportHandler(svcs.Report)
	rewardH := handler.NewRewardHandler(svcs.Reward)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(otpRL).Post("/otp/request", otpH.Request)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(otpRL).Post("/password-reset/request", resetH.Request)
		r.With(sensitiveRL.Limit).Post("/password-reset/confirm", resetH.Confirm)
		r.Get("/locations", reportH.Locations)
		r.Get("/rewards", rewardH.List)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(verifier))

			r.Get("/session", sessionH.GetCurrent)
			r.Post("/reports", reportH.Submit)
			r.Post("/rewards/{id}/redeem", rewardH.Redeem)
			r.Get("/redemptions", rewardH.Redemptions)
			r.Get("/redemptions/{id}/qr", rewardH.QRCode)
		})
	})

	return r
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sentinelid/authcore/internal/core/ports"
)

// NewRouter builds the full route tree: a public auth surface and a
// bearer-authenticated account management surface.
func NewRouter(handler *Handler, signer ports.TokenSigner) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/authenticate", handler.Authenticate)
		r.Post("/accounts", handler.CreateAccount)
		r.Post("/refresh", handler.Refresh)
		r.Post("/revoke", handler.Revoke)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(signer))

			r.Patch("/account", handler.UpdateAccount)
			r.Post("/account/password", handler.ChangePassword)
			r.Delete("/account", handler.DeleteAccount)

			r.Post("/account/totp/enroll", handler.EnrollTotp)
			r.Post("/account/totp/confirm", handler.ConfirmTotp)
			r.Post("/account/totp/disable", handler.DisableTotp)

			r.Post("/account/public-keys", handler.AddPublicKey)
			r.Delete("/account/public-keys/{fingerprint}", handler.RemovePublicKey)
		})
	})

	return r
}

// requestLogger logs each request via slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

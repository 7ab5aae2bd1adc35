// Package api exposes the multipart upload protocol over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stefando/multipartUpload/internal/auth"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Verifier enables bearer-token auth on the upload routes when non-nil.
	Verifier auth.Verifier
	// RequireTenant rejects verified tokens that carry no tenant_id claim.
	RequireTenant bool
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		if opts.Verifier != nil {
			r.Use(auth.Middleware(opts.Verifier, opts.RequireTenant, h.sendError))
		}
		r.Post("/start", h.Start)
		r.Post("/urls", h.URLs)
		r.Post("/complete", h.Complete)
		r.Post("/abort", h.Abort)
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.InfoContext(r.Context(), "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/callbridge/internal/config"
)

// Router assembles the handler and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	jwt           *JWTManager
}

// NewRouter builds a router from the API config. The JWT check is on
// only when cfg.JWTSecret is set.
func NewRouter(cfg *config.APIConfig, handler *Handler) (*Router, error) {
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.CORSOrigins
	mwCfg.RateLimitRequests = cfg.RateLimit
	if cfg.RateLimitWindow > 0 {
		mwCfg.RateLimitWindow = cfg.RateLimitWindow
	}

	r := &Router{handler: handler, chiMiddleware: NewChiMiddleware(mwCfg)}
	if cfg.JWTSecret != "" {
		m, err := NewJWTManager(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("configure API auth: %w", err)
		}
		r.jwt = m
	}
	return r, nil
}

// SetupChi returns the HTTP handler for every route.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(RequestMetrics())

		r.Get("/health/live", router.handler.HealthLive)
		r.Get("/health/ready", router.handler.HealthReady)
		r.Get("/sync/status", router.handler.SyncStatus)
		r.With(router.jwt.Authenticate).Post("/sync/trigger", router.handler.SyncTrigger)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

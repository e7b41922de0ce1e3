// Package router monta o roteador chi da aplicação.
package router

import (
	"net/http"

	"github.com/acronis/go-appkit/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/handlers"
	httpMiddleware "github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/middleware"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

// Endpoint associa um prefixo de rota ao serviço que limita suas requisições.
type Endpoint struct {
	Pattern string
	Limiter ports.Admitter
	Handler http.HandlerFunc
}

type Params struct {
	Endpoints         []Endpoint
	Authenticator     httpMiddleware.Authenticator
	TrustProxyHeaders bool
	// Gatherer nil desabilita /metrics.
	Gatherer prometheus.Gatherer
	Logger   log.FieldLogger
}

func New(p Params) http.Handler {
	logger := p.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if p.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handlers.HealthHandler)
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, endpoint := range p.Endpoints {
		handler := endpoint.Handler
		if handler == nil {
			handler = handlers.TestHandler
		}
		r.Route(endpoint.Pattern, func(r chi.Router) {
			r.Use(httpMiddleware.Authenticate(p.Authenticator))
			r.Use(httpMiddleware.NewRateLimiterMiddleware(endpoint.Limiter, logger))
			r.HandleFunc("/", handler)
			r.HandleFunc("/*", handler)
		})
	}

	return r
}

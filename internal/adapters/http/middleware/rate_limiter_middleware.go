// Package middleware disponibiliza middlewares HTTP específicos da aplicação.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/acronis/go-appkit/log"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/adapters/http/handlers"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/ports"
)

const (
	headerRateLimitLimit     = "X-RateLimit-Limit"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
)

// NewRateLimiterMiddleware consulta o limiter para cada requisição. O papel do
// cliente vem do contexto preenchido por Authenticate; o IP vem de RemoteAddr,
// que chi/middleware.RealIP reescreve quando os headers de proxy são confiáveis.
func NewRateLimiterMiddleware(limiter ports.Admitter, logger log.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Admit(r.Context(), domain.AdmissionRequest{
				Client: extractIP(r),
				Role:   RoleFromContext(r.Context()),
			})
			if decision.Limit > 0 && decision.Outcome != domain.OutcomeStoreError {
				w.Header().Set(headerRateLimitLimit, strconv.Itoa(decision.Limit))
				w.Header().Set(headerRateLimitRemaining, strconv.Itoa(decision.Remaining()))
			}
			if err != nil {
				if domain.IsRateExceeded(err) {
					handlers.WriteTooManyRequests(w, decision.Strategy)
					return
				}

				logger.Error("rate limiter failed", log.String("path", r.URL.Path), log.Error(err))
				handlers.WriteInternalError(w)
				return
			}

			if !decision.Allowed {
				handlers.WriteTooManyRequests(w, decision.Strategy)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AmirSarvestani/API-Rate-Limiter/internal/core/domain"
)

type roleContextKey struct{}

// Authenticator decide se uma requisição é autenticada.
type Authenticator interface {
	Authenticated(r *http.Request) bool
}

// BearerAuthenticator considera autenticada qualquer requisição com
// "Authorization: Bearer <token>".
type BearerAuthenticator struct{}

func (BearerAuthenticator) Authenticated(r *http.Request) bool {
	_, ok := bearerToken(r)
	return ok
}

// JWTAuthenticator exige que o bearer token seja um JWT HMAC válido.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTAuthenticator(secret string) (*JWTAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &JWTAuthenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})),
	}, nil
}

func (a *JWTAuthenticator) Authenticated(r *http.Request) bool {
	raw, ok := bearerToken(r)
	if !ok {
		return false
	}
	token, err := a.parser.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	return err == nil && token.Valid
}

// Authenticate resolve o papel do cliente e o guarda no contexto da requisição.
func Authenticate(authenticator Authenticator) func(http.Handler) http.Handler {
	if authenticator == nil {
		authenticator = BearerAuthenticator{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := domain.RoleUnauthenticated
			if authenticator.Authenticated(r) {
				role = domain.RoleAuthenticated
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

func WithRole(ctx context.Context, role domain.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext retorna RoleUnauthenticated quando Authenticate não rodou.
func RoleFromContext(ctx context.Context) domain.Role {
	role, ok := ctx.Value(roleContextKey{}).(domain.Role)
	if !ok {
		return domain.RoleUnauthenticated
	}
	return role
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
}

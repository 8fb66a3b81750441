// Package middleware provides HTTP middleware for the auction house API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/auction_house/pkg/logger"
)

// Claims are the JWT claims carried by API callers. Address is the on-ledger
// account the caller acts as; every guarded operation authorizes against it.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

type contextKey string

const callerKey contextKey = "caller_address"

// CallerAddress returns the authenticated caller's address, or "" when the
// request was not authenticated.
func CallerAddress(ctx context.Context) string {
	addr, _ := ctx.Value(callerKey).(string)
	return addr
}

// WithCallerAddress injects a caller address into the context. Used by tests
// that bypass the HTTP layer.
func WithCallerAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, callerKey, addr)
}

// Auth validates HS256 bearer tokens and places the caller address in the
// request context.
type Auth struct {
	secret    []byte
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuth creates the auth middleware. Requests to skipPaths pass through
// unauthenticated.
func NewAuth(secret []byte, log *logger.Logger, skipPaths []string) *Auth {
	if log == nil {
		log = logger.NewDefault("auth")
	}
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &Auth{secret: secret, log: log, skipPaths: skip}
}

// Handler returns the middleware handler.
func (m *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			m.unauthorized(w, "missing Authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.unauthorized(w, "malformed Authorization header")
			return
		}

		claims, err := m.validate(parts[1])
		if err != nil {
			m.log.WithError(err).Warn("token validation failed")
			m.unauthorized(w, "invalid token")
			return
		}
		if claims.Address == "" {
			m.unauthorized(w, "token carries no caller address")
			return
		}

		ctx := WithCallerAddress(r.Context(), claims.Address)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Auth) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (m *Auth) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SignToken mints a token for an address with the given signing secret.
// Exposed for tests and local tooling.
func SignToken(secret []byte, address string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Address: address})
	return token.SignedString(secret)
}

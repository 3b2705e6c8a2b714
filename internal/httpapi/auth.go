package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/ledgermint/lendingcore/internal/config"
)

type contextKey string

// ContextKeyCaller holds the bearer token's "sub" claim string as given
// (it is not parsed as a lending.ID).
const ContextKeyCaller contextKey = "httpapi.caller"

// Authenticator validates bearer tokens on governance-gated routes
// (pause/unpause/add-pool/update-pool/collect-fees). Grounded on
// gateway/middleware/auth.go's HMAC bearer-token pattern, trimmed to a
// signature/issuer/audience check plus a non-empty "sub" claim; no scope
// claim is checked, since this surface has one governance caller rather
// than many partner scopes.
type Authenticator struct {
	cfg    config.AuthConfig
	secret []byte
	logger *slog.Logger
}

// NewAuthenticator builds an Authenticator from daemon configuration.
func NewAuthenticator(cfg config.AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		cfg:    cfg,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		logger: logger,
	}
}

// Middleware enforces bearer-token auth when cfg.Enabled is true, attaching
// the authenticated caller identity to the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		token := extractBearer(r.Header.Get("Authorization"))
		if token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := a.parseToken(token)
		if err != nil {
			a.logger.Warn("auth: token rejected", "error", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		sub, _ := claims["sub"].(string)
		if strings.TrimSpace(sub) == "" {
			http.Error(w, "token missing sub claim", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ContextKeyCaller, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithLeeway(a.cfg.ClockSkew)}
	if issuer := strings.TrimSpace(a.cfg.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(a.cfg.Audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// callerFromContext returns the authenticated caller's "sub" claim, or ""
// if auth is disabled and none was attached.
func callerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyCaller).(string)
	return v
}

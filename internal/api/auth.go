package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"hotelbooking/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault = "x-api-key"
	clientKeyUnknown    = "unknown"
	healthServicePrefix = "/grpc.health.v1.Health/"

	permWritePromotions = "write:promotions"
	permReadStats       = "read:stats"
)

var (
	errMissingAPIKey    = errors.New("missing api key header")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
)

// Authenticator checks admin API keys and applies per-client rate limits.
// Guest-facing routes never pass through it; they authenticate by token.
type Authenticator struct {
	cfg *config.APIConfig

	clientsByAPIKey map[string]config.APIClientKey
	limiter         *rateLimiter
}

func NewAuthenticator(cfg *config.APIConfig) *Authenticator {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}

	return &Authenticator{
		cfg:             cfg,
		clientsByAPIKey: m,
		limiter:         newRateLimiter(cfg),
	}
}

func (a *Authenticator) headerName() string {
	h := strings.ToLower(strings.TrimSpace(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		return apiKeyHeaderDefault
	}
	return h
}

func (a *Authenticator) authenticate(apiKey, permission string) (config.APIClientKey, error) {
	if apiKey == "" {
		return config.APIClientKey{}, errMissingAPIKey
	}
	client, ok := a.clientsByAPIKey[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if permission == "" || len(client.Permissions) == 0 {
		return client, nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == permission {
			return client, nil
		}
	}
	return client, errPermissionDenied
}

// RequireAPIKey wraps an admin route.
func (a *Authenticator) RequireAPIKey(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(a.headerName()))

		if a.cfg.Auth.Enabled {
			if _, err := a.authenticate(apiKey, permission); err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					code = http.StatusForbidden
				}
				writeError(w, code, err.Error())
				return
			}
		}

		key := apiKey
		if key == "" {
			key = remoteHost(r.RemoteAddr)
		}
		if !a.limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// Unary rate-limits every call and requires an API key for everything except
// health checks.
func (a *Authenticator) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		apiKey := first(md.Get(a.headerName()))

		if a.cfg.Auth.Enabled && !strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			if _, err := a.authenticate(apiKey, ""); err != nil {
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
		}

		key := apiKey
		if key == "" {
			key = clientKeyUnknown
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				key = remoteHost(p.Addr.String())
			}
		}
		if !a.limiter.allow(key) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

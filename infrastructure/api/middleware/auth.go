package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const apiKeyHeader = "X-API-KEY"

// AuthConfig holds the set of accepted API keys, and optionally an HMAC
// secret for verifying Bearer JWTs, for WriteProtect. An empty key set and
// no JWT secret disables the check entirely, matching a deployment run
// without AppConfig.APIKeys()/JWTSecret() configured.
type AuthConfig struct {
	keys      map[string]struct{}
	jwtSecret []byte
}

// NewAuthConfigWithKeys builds an AuthConfig from a key list, with JWT
// verification disabled.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	return NewAuthConfig(keys, "")
}

// NewAuthConfig builds an AuthConfig accepting either a valid X-API-KEY
// header or a Bearer JWT signed with jwtSecret (HS256). Service-to-service
// callers issued a signed token don't need a long-lived static key.
func NewAuthConfig(keys []string, jwtSecret string) AuthConfig {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	cfg := AuthConfig{keys: set}
	if jwtSecret != "" {
		cfg.jwtSecret = []byte(jwtSecret)
	}
	return cfg
}

func (c AuthConfig) enabled() bool { return len(c.keys) > 0 || len(c.jwtSecret) > 0 }

func (c AuthConfig) valid(r *http.Request) bool {
	if _, ok := c.keys[r.Header.Get(apiKeyHeader)]; ok {
		return true
	}
	return c.validBearerToken(r)
}

func (c AuthConfig) validBearerToken(r *http.Request) bool {
	if len(c.jwtSecret) == 0 {
		return false
	}
	auth := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || tokenStr == "" {
		return false
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return c.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid
}

// safeMethods are exempt from the key check: read-only requests stay usable
// for unauthenticated discovery (list_repositories, docs, health).
var safeMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// WriteProtect requires a valid X-API-KEY header, or a valid Bearer JWT when
// a JWT secret is configured, on mutating HTTP methods (POST/PUT/PATCH/
// DELETE) when config carries at least one key or a JWT secret. Safe
// methods and a disabled config always pass through unauthenticated.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if _, safe := safeMethods[r.Method]; safe {
				next.ServeHTTP(w, r)
				return
			}
			if !config.valid(r) {
				http.Error(w, NewAuthenticationError("missing or invalid credentials").Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

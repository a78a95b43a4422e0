package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/partshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/partshop-backend/pkg/redis"
)

// Login and register payloads are tiny; anything bigger is not worth parsing
// for an email.
const maxAuthBodyBytes = 64 << 10

var errAuthBodyTooLarge = errors.New("auth payload exceeds 64KiB")

// AuthRateLimitPolicy throttles one auth endpoint per client IP and per
// submitted email. A zero limit disables that dimension.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// limitCheck is one counter consulted for a request.
type limitCheck struct {
	dimension string
	subject   string
	limit     int
}

func (c limitCheck) scope(policy string) string {
	return c.dimension + ":" + policy + ":" + c.subject
}

// AuthRateLimit rejects requests with 429 once any counter of policy is
// exhausted. Counter failures surface as DEPENDENCY_ERROR rather than letting
// traffic through unthrottled.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			checks, err := policy.checksFor(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large"))
				return
			}

			for _, check := range checks {
				allowed, count, err := limiter.FixedWindowAllow(ctx, check.scope(policy.name), int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if allowed {
					continue
				}

				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":    policy.name,
						"dimension": check.dimension,
						"subject":   check.subject,
						"attempts":  count,
						"limit":     check.limit,
					}), "auth.rate_limited")
				}
				retryAfter := int(policy.window.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later").
					WithDetails(map[string]any{"retry_after_seconds": retryAfter}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checksFor lists the counters that apply to r. Reading the email consumes
// the body, so it is replaced with a fresh reader over the same bytes.
func (p AuthRateLimitPolicy) checksFor(r *http.Request) ([]limitCheck, error) {
	var checks []limitCheck
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, limitCheck{dimension: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.emailLimit <= 0 || r.Body == nil {
		return checks, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxAuthBodyBytes {
		return nil, errAuthBodyTooLarge
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if email := strings.ToLower(strings.TrimSpace(payload.Email)); email != "" {
			sum := sha256.Sum256([]byte(email))
			checks = append(checks, limitCheck{dimension: "email", subject: hex.EncodeToString(sum[:]), limit: p.emailLimit})
		}
	}
	return checks, nil
}

// clientIP reads the peer address. Proxy headers are resolved upstream by
// chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

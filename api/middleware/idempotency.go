package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/partshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/partshop-backend/pkg/errors"
	"github.com/angelmondragon/partshop-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/partshop-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	replayedHeader        = "Idempotent-Replayed"
	tokenResponseHeader   = "X-Partshop-Token"
	maxIdempotencyKeyLen  = 128
	defaultIdempotencyTTL = 24 * time.Hour
)

const (
	entryPending  = "pending"
	entryComplete = "complete"
)

// guardedRoutes lists the method and route patterns that honour Idempotency-Key.
var guardedRoutes = map[string][]string{
	http.MethodPost: {"/api/v1/orders"},
}

type storedEntry struct {
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type idempotencyGuard struct {
	store pkgredis.IdempotencyStore
	ttl   time.Duration
	logg  *logger.Logger
}

// Idempotency replays the stored response for retried requests carrying the
// same Idempotency-Key. Requests without the header pass through untouched.
// A key is reserved while its first request runs; 5xx outcomes release it so
// the caller can retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	g := &idempotencyGuard{store: store, ttl: ttl, logg: logg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || id == "" || !routeEnabled(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if err := g.serve(w, r, id, next); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
			}
		})
	}
}

func (g *idempotencyGuard) serve(w http.ResponseWriter, r *http.Request, id string, next http.Handler) error {
	if len(id) > maxIdempotencyKeyLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long").
			WithDetails(map[string]any{"max_length": maxIdempotencyKeyLen})
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	ctx := r.Context()
	fingerprint := fingerprintBody(body)
	key := g.store.IdempotencyKey(requestScope(r), id)

	reserved, err := g.put(r, key, storedEntry{State: entryPending, Fingerprint: fingerprint}, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
	}
	if !reserved {
		return g.replay(w, r, key, fingerprint)
	}

	var captured bytes.Buffer
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	ww.Tee(&captured)
	next.ServeHTTP(ww, r)

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}
	if status >= http.StatusInternalServerError {
		if err := g.store.Del(ctx, key); err != nil {
			g.logg.Error(ctx, "release idempotency key", err)
		}
		return nil
	}

	final := storedEntry{
		State:       entryComplete,
		Fingerprint: fingerprint,
		Status:      status,
		ContentType: ww.Header().Get("Content-Type"),
		Body:        captured.Bytes(),
	}
	if _, err := g.put(r, key, final, false); err != nil {
		g.logg.Error(ctx, "persist idempotency record", err)
	}
	return nil
}

// put writes the entry. With reserve set it only succeeds when the key is free.
func (g *idempotencyGuard) put(r *http.Request, key string, entry storedEntry, reserve bool) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("encode idempotency entry: %w", err)
	}
	if reserve {
		return g.store.SetNX(r.Context(), key, string(payload), g.ttl)
	}
	return true, g.store.Set(r.Context(), key, string(payload), g.ttl)
}

func (g *idempotencyGuard) replay(w http.ResponseWriter, r *http.Request, key, fingerprint string) error {
	raw, err := g.store.Get(r.Context(), key)
	if errors.Is(err, pkgredis.Nil) {
		// the first attempt failed with a 5xx between SetNX and Get
		return pkgerrors.New(pkgerrors.CodeConflict, "idempotent request still in progress, retry")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}

	var entry storedEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	switch {
	case entry.Fingerprint != fingerprint:
		return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	case entry.State != entryComplete:
		return pkgerrors.New(pkgerrors.CodeConflict, "idempotent request still in progress, retry")
	}

	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(entry.Status)
	_, _ = w.Write(entry.Body)
	return nil
}

// requestScope keeps keys from colliding across users and endpoints.
func requestScope(r *http.Request) string {
	return fmt.Sprintf("%d|%s|%s", UserIDFromContext(r.Context()), r.Method, r.URL.Path)
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func routeEnabled(method, pattern string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	for _, guarded := range guardedRoutes[method] {
		if pattern == guarded {
			return true
		}
	}
	return false
}

// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for appointment booking. Patients
// retry POST /appointments after network failures; an Idempotency-Key header
// lets the server deduplicate those retries instead of double-booking. The
// middleware validates the header, optionally performs a lookup to detect a
// previously completed booking for (patient, key), and annotates the request
// context so downstream components can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type so the
// middleware has no repository dependency.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to convey an
// idempotency key for unsafe operations. The value is expected to be stable
// for a given semantic operation so retries deduplicate safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
// Handlers should prefer this over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request would replay a previously completed
// booking for the authenticated patient and key. When true, handlers may
// short-circuit and return the previously persisted appointment.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs inside the provided lookup function, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// RFC7230-like token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid booking exists
// for (patientID, key) at the given time. Implementations consult the stored
// idempotency record and its TTL window.
//
// Return exists=true when the prior response can be replayed; return an error
// only for lookup failures (which must not block normal processing).
type IdempotencyLookup func(ctx context.Context, patientID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a prior
// completed booking via the supplied lookup. When a replay is detected it
// marks the context so IsReplay reports true and rate limiting is bypassed.
//
// Behavior:
//   - Header absent: no-op.
//   - Header fails validation: responds 400 with a compact error body.
//   - Lookup indicates a replay: sets replay + rate-bypass flags.
//   - Always invokes the next handler unless validation fails.
//
// The middleware never returns a cached payload itself; handlers remain in
// control of how to serve replays.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		// Replay detection needs an authenticated patient; anonymous requests
		// never match a stored record.
		if lookup != nil {
			if pid, ok := UserID(c); ok {
				now := time.Now().UTC()
				if exists, _ := lookup(c.Request.Context(), pid, key, now); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}

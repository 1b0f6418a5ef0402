package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to make form
// submissions safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// IdempotencyScope returns the scope the key was validated for, e.g.
// "feedback" or "contact".
func IdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	return asString(v)
}

// IsReplay reports whether the lookup found a stored result for this key.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IdempotencySubject identifies who owns an idempotency key: the visitor
// when known, else a hash of the client address.
func IdempotencySubject(c *gin.Context) string {
	if id := VisitorID(c); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(c.ClientIP()))
	return "ip:" + hex.EncodeToString(sum[:8])
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope names the operation a key belongs to. When nil, the last
	// segment of the matched route is used.
	Scope func(*gin.Context) string
}

// IdempotencyLookup reports whether a still-valid result exists for
// (subject, scope, key). Errors are logged and treated as "no result".
type IdempotencyLookup func(ctx context.Context, subject, scope, key string, now time.Time) (bool, error)

// IdempotencyValidator validates the Idempotency-Key header on unsafe
// methods, stashes key and scope, and marks replays so the rate limiter
// lets them through. A missing header is a no-op; a malformed one is 400.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	scopeFn := opts.Scope
	if scopeFn == nil {
		scopeFn = routeScope
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}

		scope := scopeFn(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), IdempotencySubject(c), scope, key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func routeScope(c *gin.Context) string {
	p := strings.TrimRight(c.FullPath(), "/")
	if p == "" {
		p = strings.TrimRight(c.Request.URL.Path, "/")
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

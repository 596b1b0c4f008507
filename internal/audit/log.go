// Package audit records one structured log event per request. Handlers and the
// components they call add detail to the request's Entry as it is processed;
// the middleware writes the entry once the response is complete.
package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// Entry is the audit record for a single request. It never holds the session
// cookie or an access token.
type Entry struct {
	Method    string
	Path      string
	UserAgent string
	Status    int
	Duration  time.Duration

	// UserID is the digest of the session cookie.
	UserID string
	// CacheStatus is "hit" or "miss" once the token store has been consulted.
	CacheStatus string
	// ExpirySecs is the expiration time of the token used for the request.
	ExpirySecs int64
	Error      string
}

func (e *Entry) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("method", e.Method).
		Str("path", e.Path).
		Int("status", e.Status).
		Dur("duration", e.Duration)

	if e.UserAgent != "" {
		ev.Str("userAgent", e.UserAgent)
	}
	if e.UserID != "" {
		ev.Str("userId", e.UserID)
	}
	if e.CacheStatus != "" {
		ev.Str("cache", e.CacheStatus)
	}
	if e.ExpirySecs != 0 {
		ev.Int64("expirySecs", e.ExpirySecs)
	}
	if e.Error != "" {
		ev.Str("error", e.Error)
	}
}

// Context returns a context carrying a new, empty audit entry.
func Context(ctx context.Context) (context.Context, *Entry) {
	entry := &Entry{}
	return context.WithValue(ctx, contextKey{}, entry), entry
}

// Log returns the audit entry for the request. Outside of the middleware a
// detached entry is returned so callers never need to check for nil.
func Log(ctx context.Context) *Entry {
	if entry, ok := ctx.Value(contextKey{}).(*Entry); ok {
		return entry
	}
	return &Entry{}
}

// Middleware creates an audit entry for each request and logs it when the
// handler returns. A panic in the handler is recorded and answered with a 500.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, entry := Context(r.Context())
			entry.Method = r.Method
			entry.Path = r.URL.Path
			entry.UserAgent = r.UserAgent()

			start := time.Now()
			metrics := httpsnoop.CaptureMetricsFn(w, func(w http.ResponseWriter) {
				defer func() {
					if rec := recover(); rec != nil {
						entry.Error = fmt.Sprintf("panic: %v", rec)
						http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					}
				}()

				next.ServeHTTP(w, r.WithContext(ctx))
			})

			entry.Status = metrics.Code
			entry.Duration = time.Since(start)

			log.Ctx(ctx).Info().EmbedObject(entry).Msg("audit_event")
		})
	}
}

package audit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lyricsbridge/lyrics-bridge/internal/audit"
	"github.com/lyricsbridge/lyrics-bridge/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {

	t.Run("captures request info and configures context", func(t *testing.T) {
		testhelpers.SetupLogger(t)

		testAgent := "kettle/1.0"
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := audit.Log(r.Context())
			assert.Equal(t, testAgent, entry.UserAgent)
			assert.Equal(t, http.MethodGet, entry.Method)
			assert.Equal(t, "/lyrics", entry.Path)

			w.WriteHeader(http.StatusTeapot)
		})

		req, w := requestSetup()
		req.Header.Set("User-Agent", testAgent)

		audit.Middleware()(handler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Result().StatusCode)
	})

	t.Run("captures status code", func(t *testing.T) {
		testhelpers.SetupLogger(t)

		var capturedContext context.Context
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedContext = r.Context()
			w.WriteHeader(http.StatusTeapot)
		})

		req, w := requestSetup()
		audit.Middleware()(handler).ServeHTTP(w, req)

		entry := audit.Log(capturedContext)
		assert.Equal(t, http.StatusTeapot, entry.Status)
	})

	t.Run("implicit OK status is captured", func(t *testing.T) {
		testhelpers.SetupLogger(t)

		var capturedContext context.Context
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedContext = r.Context()
			_, _ = w.Write([]byte("OK"))
		})

		req, w := requestSetup()
		audit.Middleware()(handler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, audit.Log(capturedContext).Status)
	})

	t.Run("writes details added by the handler", func(t *testing.T) {
		buf := testhelpers.CaptureLogger(t)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := audit.Log(r.Context())
			entry.UserID = "digest"
			entry.CacheStatus = "hit"
			entry.ExpirySecs = 1000
			w.WriteHeader(http.StatusOK)
		})

		req, w := requestSetup()
		audit.Middleware()(handler).ServeHTTP(w, req)

		var logged map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))

		assert.Equal(t, "audit_event", logged["message"])
		assert.Equal(t, "digest", logged["userId"])
		assert.Equal(t, "hit", logged["cache"])
		assert.Equal(t, float64(1000), logged["expirySecs"])
		assert.Equal(t, float64(http.StatusOK), logged["status"])
		assert.NotContains(t, buf.String(), "SP_DC")
	})

	t.Run("recovers from panics", func(t *testing.T) {
		testhelpers.SetupLogger(t)

		var capturedContext context.Context
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedContext = r.Context()
			panic("bad things")
		})

		req, w := requestSetup()
		audit.Middleware()(handler).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Result().StatusCode)

		entry := audit.Log(capturedContext)
		assert.Equal(t, http.StatusInternalServerError, entry.Status)
		assert.Equal(t, "panic: bad things", entry.Error)
	})
}

func TestLog_OutsideMiddleware(t *testing.T) {
	entry := audit.Log(context.Background())
	require.NotNil(t, entry)

	// a detached entry is not shared
	entry.UserID = "changed"
	assert.Empty(t, audit.Log(context.Background()).UserID)
}

func TestContext(t *testing.T) {
	ctx, entry := audit.Context(context.Background())
	entry.CacheStatus = "miss"

	assert.Same(t, entry, audit.Log(ctx))
}

func requestSetup() (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/lyrics?SP_DC=secret-cookie&trackId=abc", nil)
	return req, httptest.NewRecorder()
}

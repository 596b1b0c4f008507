package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lyricsbridge/lyrics-bridge/internal/config"
)

const TestUserAgent = "test-agent/1.0"

// MockSpotifyServer provides a configurable mock of the identity, lyrics and
// player endpoints. Fields may be changed between requests; reads and writes
// of the recorded request data are guarded by the embedded mutex.
type MockSpotifyServer struct {
	Server *httptest.Server

	// identity exchange
	AccessToken  string // Token to return from the exchange
	ExpirationMs int64  // accessTokenExpirationTimestampMs to return
	TokenStatus  int    // HTTP status code to return (200 if not set)
	TokenBody    any    // Overrides the generated body when set

	LyricsStatus int
	LyricsBody   any

	PlayerStatus int
	PlayerBody   any

	mu            sync.Mutex
	tokenRequests int
	lyricsTracks  []string
	playerCalls   int
	lastHeaders   map[string]http.Header
}

// SetupMockSpotifyServer creates a mock server that answers every endpoint
// with a successful response by default.
func SetupMockSpotifyServer(t *testing.T) *MockSpotifyServer {
	t.Helper()

	mock := &MockSpotifyServer{
		AccessToken:  "test-access-token",
		ExpirationMs: 1_715_104_776_000,
		TokenStatus:  http.StatusOK,
		LyricsStatus: http.StatusOK,
		LyricsBody: map[string]any{
			"lyrics": map[string]any{
				"syncType": "LINE_SYNCED",
				"lines": []map[string]any{
					{"startTimeMs": "960", "words": "first line"},
				},
			},
		},
		PlayerStatus: http.StatusOK,
		PlayerBody:   map[string]any{"device": nil},
		lastHeaders:  map[string]http.Header{},
	}

	router := http.NewServeMux()

	router.HandleFunc("GET /get_access_token", func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.tokenRequests++
		mock.lastHeaders["token"] = r.Header.Clone()
		status, body := mock.TokenStatus, mock.TokenBody
		if body == nil {
			body = map[string]any{
				"accessToken":                      mock.AccessToken,
				"accessTokenExpirationTimestampMs": mock.ExpirationMs,
			}
		}
		mock.mu.Unlock()

		respond(w, status, body)
	})

	router.HandleFunc("GET /color-lyrics/v2/track/{trackID}", func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.lyricsTracks = append(mock.lyricsTracks, r.PathValue("trackID"))
		mock.lastHeaders["lyrics"] = r.Header.Clone()
		status, body := mock.LyricsStatus, mock.LyricsBody
		mock.mu.Unlock()

		respond(w, status, body)
	})

	router.HandleFunc("GET /v1/me/player", func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.playerCalls++
		mock.lastHeaders["player"] = r.Header.Clone()
		status, body := mock.PlayerStatus, mock.PlayerBody
		mock.mu.Unlock()

		respond(w, status, body)
	})

	mock.Server = httptest.NewServer(router)
	return mock
}

// Config returns endpoint configuration pointing at this server.
func (m *MockSpotifyServer) Config() config.SpotifyConfig {
	return config.SpotifyConfig{
		TokenURL:  m.Server.URL + "/get_access_token?reason=transport&productType=web_player",
		LyricsURL: m.Server.URL + "/color-lyrics/v2/track",
		PlayerURL: m.Server.URL + "/v1/me/player",
		UserAgent: TestUserAgent,
	}
}

// TokenRequests is the number of identity exchanges received.
func (m *MockSpotifyServer) TokenRequests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenRequests
}

// LyricsTracks lists the track IDs requested from the lyrics endpoint.
func (m *MockSpotifyServer) LyricsTracks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lyricsTracks...)
}

// PlayerCalls is the number of player requests received.
func (m *MockSpotifyServer) PlayerCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerCalls
}

// LastHeaders returns the headers of the most recent request to the named
// endpoint: "token", "lyrics" or "player".
func (m *MockSpotifyServer) LastHeaders(endpoint string) http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHeaders[endpoint]
}

// Close shuts down the mock server.
func (m *MockSpotifyServer) Close() {
	m.Server.Close()
}

func respond(w http.ResponseWriter, status int, body any) {
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, body)
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

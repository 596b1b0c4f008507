package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lyricsbridge/lyrics-bridge/internal/audit"
	"github.com/lyricsbridge/lyrics-bridge/internal/failure"
	"github.com/lyricsbridge/lyrics-bridge/internal/spotify"
	"github.com/lyricsbridge/lyrics-bridge/internal/vendor"
	"github.com/rs/zerolog/log"
)

// HTTPStatuser provides HTTP status information for errors
type HTTPStatuser interface {
	Status() (int, string)
}

// LyricsFunc fetches the lyrics payload for a track. Satisfied by
// (*spotify.Client).Lyrics.
type LyricsFunc func(ctx context.Context, accessToken, trackID string) (spotify.Payload, error)

// PlayerFunc fetches the current playback state. Satisfied by
// (*spotify.Client).Player.
type PlayerFunc func(ctx context.Context, accessToken string) (spotify.Payload, error)

func handleGetLyrics(tokenVendor vendor.AccessTokenVendor, lyrics LyricsFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		query := r.URL.Query()
		spDC := query.Get("SP_DC")
		if spDC == "" {
			writeError(w, r, failure.Validation("Missing SP_DC cookie"))
			return
		}

		trackID := query.Get("trackId")
		if trackID == "" {
			writeError(w, r, failure.Validation("Missing track ID"))
			return
		}

		token, err := tokenVendor(r.Context(), spDC)
		if err != nil {
			writeError(w, r, err)
			return
		}

		payload, err := lyrics(r.Context(), token.AccessToken, trackID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, payload)
	})
}

func handleGetPlayer(tokenVendor vendor.AccessTokenVendor, player PlayerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		spDC := r.URL.Query().Get("SP_DC")
		if spDC == "" {
			writeError(w, r, failure.Validation("Missing SP_DC cookie"))
			return
		}

		token, err := tokenVendor(r.Context(), spDC)
		if err != nil {
			writeError(w, r, err)
			return
		}

		payload, err := player(r.Context(), token.AccessToken)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, payload)
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer drainRequestBody(r)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeError maps err to a status and writes it as a JSON error response. The
// full error, including any wrapped cause, goes to the log and the audit
// entry; the client only sees the message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)

	entry := audit.Log(r.Context())
	if entry.Error == "" {
		entry.Error = err.Error()
	}

	log.Ctx(r.Context()).Info().
		Err(err).
		Str("kind", failure.KindOf(err).String()).
		Int("status", status).
		Msg("request failed")

	writeJSON(w, status, ErrorResponse{Message: message})
}

// errorStatus extracts HTTP status code and message from an error.
// Returns (StatusInternalServerError, StatusText) for errors that don't implement HTTPStatuser.
func errorStatus(err error) (int, string) {
	var statuser HTTPStatuser
	if errors.As(err, &statuser) {
		return statuser.Status()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	marshalled, err := json.Marshal(body)
	if err != nil {
		log.Info().Msgf("failed to marshal response: %v", err)
		requestError(w, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_, err = w.Write(marshalled)
	if err != nil {
		// record failure to log: trying to respond to the client at this
		// point will likely fail
		log.Info().Msgf("failed to write response: %v", err)
	}
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}

// drainRequestBody drains the request body by reading and discarding the contents.
// This is useful to ensure the request body is fully consumed, which is important
// for connection reuse in HTTP/1 clients.
func drainRequestBody(r *http.Request) {
	if r.Body != nil {
		// 5kb max: after this we'll assume the client is broken or malicious
		// and close the connection
		io.CopyN(io.Discard, r.Body, 5*1024)
	}
}

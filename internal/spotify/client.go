// Package spotify calls the undocumented web player endpoints: the identity
// exchange that turns an sp_dc session cookie into an access token, and the
// lyrics and player resources that accept that token.
//
// The endpoints gate on browser-like requests, so every call carries the
// configured user agent and, where the web player sends it, the App-Platform
// header.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lyricsbridge/lyrics-bridge/internal/config"
)

const appPlatform = "WebPlayer"

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 5 << 20 // 5 MB

// Payload is a JSON object returned to the caller. It always has a "status"
// member describing the upstream outcome.
type Payload map[string]any

// Status returns the "status" member of the payload, or 0 if it is missing or
// not an integer. An upstream body may have replaced it with a decoded number.
func (p Payload) Status() int {
	switch status := p["status"].(type) {
	case int:
		return status
	case json.Number:
		n, err := status.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// newPayload merges the upstream body over the status. Upstream members win
// when they collide.
func newPayload(status int, body map[string]any) Payload {
	p := make(Payload, len(body)+1)
	p["status"] = status
	for k, v := range body {
		p[k] = v
	}
	return p
}

type Client struct {
	httpClient *http.Client
	cfg        config.SpotifyConfig
	validate   *validator.Validate
}

// New creates a client for the configured endpoints. A nil httpClient uses
// http.DefaultClient.
func New(cfg config.SpotifyConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (c *Client) newRequest(ctx context.Context, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// decodeObject reads a JSON object from the response body. Numbers are kept as
// json.Number so they are written back exactly as received.
func decodeObject(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}
	if body == nil {
		return nil, errors.New("response body is not a JSON object")
	}

	return body, nil
}

// drainAndClose discards the remainder of the body so the connection can be
// reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, body, maxBodyBytes)
	_ = body.Close()
}

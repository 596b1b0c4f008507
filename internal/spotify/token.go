package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lyricsbridge/lyrics-bridge/internal/failure"
	"github.com/rs/zerolog/log"
)

const (
	msgAcquisitionFailed = "Failed to get access token"
	msgInvalidToken      = "Invalid access token response"
)

// Credentials is a freshly issued access token.
type Credentials struct {
	AccessToken string
	// ExpirationTime is in seconds since the epoch.
	ExpirationTime int64
}

// accessTokenResponse is the required shape of the identity exchange
// response.
type accessTokenResponse struct {
	AccessToken                      string   `json:"accessToken" validate:"required"`
	AccessTokenExpirationTimestampMs *float64 `json:"accessTokenExpirationTimestampMs" validate:"required"`
}

// AcquireLive exchanges a session cookie for a new access token. It makes a
// single request: failures are not retried.
func (c *Client) AcquireLive(ctx context.Context, spDC string) (Credentials, error) {
	req, err := c.newRequest(ctx, c.cfg.TokenURL, map[string]string{
		"App-Platform": appPlatform,
		"Cookie":       "sp_dc=" + spDC,
	})
	if err != nil {
		return Credentials{}, failure.New(failure.KindAcquisition, msgAcquisitionFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Credentials{}, failure.New(failure.KindAcquisition, msgAcquisitionFailed, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Ctx(ctx).Info().Int("status", resp.StatusCode).Msg("access token exchange rejected")
		return Credentials{}, failure.New(
			failure.KindAcquisition,
			msgAcquisitionFailed,
			fmt.Errorf("unexpected status %d", resp.StatusCode),
		)
	}

	var body accessTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return Credentials{}, failure.New(failure.KindSchemaValidation, msgInvalidToken, err)
	}

	if err := c.validate.Struct(body); err != nil {
		return Credentials{}, failure.New(failure.KindSchemaValidation, msgInvalidToken, err)
	}

	return Credentials{
		AccessToken:    body.AccessToken,
		ExpirationTime: int64(*body.AccessTokenExpirationTimestampMs / 1000),
	}, nil
}

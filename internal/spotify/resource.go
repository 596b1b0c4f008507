package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lyricsbridge/lyrics-bridge/internal/failure"
	"github.com/rs/zerolog/log"
)

const (
	msgLyricsFailed = "Failed to get lyrics"
	msgPlayerFailed = "Failed to get player state"
)

// Lyrics fetches the synced lyrics for a track. The lyrics endpoint responds
// 500 rather than 404 for tracks that have no lyrics, so a 500 is reported as
// a payload with status 404 instead of an error.
func (c *Client) Lyrics(ctx context.Context, accessToken, trackID string) (Payload, error) {
	lyricsURL := strings.TrimSuffix(c.cfg.LyricsURL, "/") + "/" + url.PathEscape(trackID) + "?format=json"

	req, err := c.newRequest(ctx, lyricsURL, map[string]string{
		"App-Platform":  appPlatform,
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgLyricsFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgLyricsFailed, err)
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		// handled below
	case http.StatusInternalServerError:
		log.Ctx(ctx).Debug().Str("track", trackID).Msg("no lyrics for track")
		return Payload{"status": http.StatusNotFound}, nil
	default:
		return nil, failure.New(
			failure.KindUpstream,
			msgLyricsFailed,
			fmt.Errorf("unexpected status %d", resp.StatusCode),
		)
	}

	body, err := decodeObject(resp.Body)
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgLyricsFailed, err)
	}

	return newPayload(http.StatusOK, body), nil
}

// Player fetches the current playback state of the token's user. Any status
// other than 200, including 204 when nothing is playing, is an error.
func (c *Client) Player(ctx context.Context, accessToken string) (Payload, error) {
	req, err := c.newRequest(ctx, c.cfg.PlayerURL, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgPlayerFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgPlayerFailed, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, failure.New(
			failure.KindUpstream,
			msgPlayerFailed,
			fmt.Errorf("unexpected status %d", resp.StatusCode),
		)
	}

	body, err := decodeObject(resp.Body)
	if err != nil {
		return nil, failure.New(failure.KindUpstream, msgPlayerFailed, err)
	}

	return newPayload(http.StatusOK, body), nil
}

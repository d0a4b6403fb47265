// Package clubapi contains a minimal client for the platform's private JSON API:
// room feed, channel membership, speaker/moderator role changes, follows, and
// profile lookup, authenticated with a bot token and numeric user id.
package clubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// StatusNone is the sentinel status for a request that never produced an HTTP
// response (connection failure, timeout, unreadable body). Callers treat it
// like any other retryable status rather than handling a separate error path.
const StatusNone = 0

const (
	appVersion = "1.0.9"
	appBuild   = "305"
)

// Client issues authenticated calls against the platform API. It is the only
// component that performs network I/O; everything above it works in terms of
// (status, payload) results.
type Client struct {
	BaseURL    string
	Token      string
	UserID     int64
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Call POSTs payload to the named endpoint and returns the HTTP status and raw
// body. Transport and decode failures never surface as errors: they are logged
// and collapsed into (StatusNone, nil) so callers handle every failure mode
// through status classification.
func (c *Client) Call(ctx context.Context, endpoint string, payload any) (int, []byte) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode request payload", slog.String("endpoint", endpoint), slog.Any("err", err))
		return StatusNone, nil
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("build request", slog.String("endpoint", endpoint), slog.Any("err", err))
		return StatusNone, nil
	}
	req.Header.Set("CH-UserID", strconv.FormatInt(c.UserID, 10))
	req.Header.Set("Authorization", "Token "+c.Token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("CH-AppVersion", appVersion)
	req.Header.Set("CH-AppBuild", appBuild)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http().Do(req)
	if err != nil {
		slog.Warn("platform call failed", slog.String("endpoint", endpoint), slog.Any("err", err))
		return StatusNone, nil
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		slog.Warn("read platform response", slog.String("endpoint", endpoint), slog.Any("err", err))
		return resp.StatusCode, nil
	}
	return resp.StatusCode, data
}

// decode unmarshals body into v, tolerating empty and non-JSON bodies the same
// way the platform's own clients do: the zero value stands in for a missing body.
func decode(body []byte, v any) {
	if len(body) == 0 {
		return
	}
	if err := json.Unmarshal(body, v); err != nil {
		slog.Debug("ignoring undecodable platform response", slog.Any("err", err))
	}
}

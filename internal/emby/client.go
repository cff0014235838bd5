// FlixPilot - Emby Administration Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/flixpilot

package emby

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/flixpilot/internal/logging"
	"github.com/tomtom215/flixpilot/internal/metrics"
	"github.com/tomtom215/flixpilot/internal/models"
)

const (
	clientName    = "FlixPilot"
	clientVersion = "1.0"

	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of an error response ends up in APIError.
	maxErrorBody = 4096
)

// Identity is the device the service presents itself as.
type Identity struct {
	Device   string
	DeviceID string
}

// Service identities. Emby lists each as its own device in the dashboard.
var (
	IdentityDashboard = Identity{Device: "Dashboard", DeviceID: "flixpilot-dashboard"}
	IdentityMonitor   = Identity{Device: "Monitor", DeviceID: "flixpilot-monitor"}
	IdentityWeb       = Identity{Device: "Web", DeviceID: "flixpilot-web"}
)

// Param is an ordered query parameter. Empty values are skipped.
type Param struct {
	Key   string
	Value string
}

// Options tunes clients created by NewClient or a Pool.
type Options struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client calls one Emby server as one identity.
type Client struct {
	baseURL    string
	apiKey     string
	identity   Identity
	httpClient *http.Client
	breaker    *breaker
}

// NewClient returns a client with its own circuit breaker. Use a Pool to share
// breakers across identities.
func NewClient(conn models.EmbyConnection, identity Identity, opts Options) (*Client, error) {
	if !conn.IsConfigured() {
		return nil, ErrNotConfigured
	}
	base := normalizeBaseURL(conn.ServerURL)
	return newClient(conn, identity, opts, newBreaker(breakerName(base), opts.BreakerFailures, opts.BreakerTimeout)), nil
}

func newClient(conn models.EmbyConnection, identity Identity, opts Options, b *breaker) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    normalizeBaseURL(conn.ServerURL),
		apiKey:     conn.APIKey,
		identity:   identity,
		httpClient: httpClient,
		breaker:    b,
	}
}

func normalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func breakerName(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return "emby:" + u.Host
	}
	return "emby:" + baseURL
}

// BuildURL returns <server>/emby/<endpoint>?<params>&api_key=<key>.
// endpoint may carry its own query string; params are appended after it.
func (c *Client) BuildURL(endpoint string, params ...Param) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/emby/")
	b.WriteString(strings.TrimLeft(endpoint, "/"))

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	for _, p := range params {
		if p.Value == "" {
			continue
		}
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
		sep = "&"
	}
	b.WriteString(sep)
	b.WriteString("api_key=")
	b.WriteString(url.QueryEscape(c.apiKey))
	return b.String()
}

// AuthorizationHeader is the X-Emby-Authorization value sent on every request.
func (c *Client) AuthorizationHeader() string {
	return fmt.Sprintf(`MediaBrowser Client="%s", Device="%s", DeviceId="%s", Version="%s", Token="%s"`,
		clientName, c.identity.Device, c.identity.DeviceID, clientVersion, c.apiKey)
}

// BreakerState reports the state of the server's circuit breaker.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

// Do performs a request and returns the status code and body. A non-2xx
// response yields an *APIError alongside the status.
func (c *Client) Do(ctx context.Context, method, endpoint string, params []Param, body any) (int, []byte, error) {
	target := c.BuildURL(endpoint, params...)

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s body: %w", method, endpoint, err)
		}
		payload = data
	}

	start := time.Now()
	res, err := c.breaker.execute(func() (response, error) {
		return c.roundTrip(ctx, method, target, payload)
	})
	metrics.RecordEmbyRequest(method, endpointLabel(endpoint), res.status, time.Since(start))

	if err != nil {
		logging.Debug().
			Str("component", "emby").
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", res.status).
			Err(err).
			Msg("Emby request failed")
		return res.status, res.body, err
	}
	return res.status, res.body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte) (response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return response{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Emby-Authorization", c.AuthorizationHeader())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("emby request %s failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return response{status: resp.StatusCode}, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("read emby response: %w", err)
	}
	return response{status: resp.StatusCode, body: data}, nil
}

// FetchJSON performs a request and decodes the JSON body into out. A 204 or
// empty body leaves out untouched.
func (c *Client) FetchJSON(ctx context.Context, method, endpoint string, params []Param, body, out any) error {
	status, data, err := c.Do(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	if out == nil || status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode emby %s: %w", endpoint, err)
	}
	return nil
}

// endpointLabel keeps metric cardinality bounded by dropping ids.
func endpointLabel(endpoint string) string {
	endpoint = strings.TrimLeft(endpoint, "/")
	if i := strings.IndexAny(endpoint, "/?"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// GetSessions lists every session known to the server.
func (c *Client) GetSessions(ctx context.Context) ([]models.EmbySession, error) {
	var sessions []models.EmbySession
	if err := c.FetchJSON(ctx, http.MethodGet, "Sessions", nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// StopPlayback stops whatever the session is playing.
func (c *Client) StopPlayback(ctx context.Context, sessionID string) error {
	_, _, err := c.Do(ctx, http.MethodPost, "Sessions/"+url.PathEscape(sessionID)+"/Playing/Stop", nil, nil)
	return err
}

// SendMessage shows a message on the session's screen.
func (c *Client) SendMessage(ctx context.Context, sessionID string, msg models.EmbyMessage) error {
	_, _, err := c.Do(ctx, http.MethodPost, "Sessions/"+url.PathEscape(sessionID)+"/Message", nil, msg)
	return err
}

// DeleteDevice removes a device registration, which signs the device out.
func (c *Client) DeleteDevice(ctx context.Context, deviceID string) error {
	_, _, err := c.Do(ctx, http.MethodDelete, "Devices", []Param{{Key: "Id", Value: deviceID}}, nil)
	return err
}

// GetDevices lists registered devices.
func (c *Client) GetDevices(ctx context.Context) ([]models.EmbyDevice, error) {
	var resp models.EmbyDevicesResponse
	if err := c.FetchJSON(ctx, http.MethodGet, "Devices", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetMediaFolders lists top-level libraries.
func (c *Client) GetMediaFolders(ctx context.Context) ([]models.EmbyMediaFolder, error) {
	var resp models.EmbyMediaFoldersResponse
	if err := c.FetchJSON(ctx, http.MethodGet, "Library/MediaFolders", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetItems queries library items.
func (c *Client) GetItems(ctx context.Context, params []Param) (*models.EmbyItemsResponse, error) {
	var resp models.EmbyItemsResponse
	if err := c.FetchJSON(ctx, http.MethodGet, "Items", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteItem deletes a library item and its files. The returned status is
// the HTTP status Emby answered with, or 0 if no response arrived.
func (c *Client) DeleteItem(ctx context.Context, itemID string) (int, error) {
	status, _, err := c.Do(ctx, http.MethodDelete, "Items/"+url.PathEscape(itemID), nil, nil)
	return status, err
}

// GetSystemInfo doubles as a connectivity check.
func (c *Client) GetSystemInfo(ctx context.Context) (*models.EmbySystemInfo, error) {
	var info models.EmbySystemInfo
	if err := c.FetchJSON(ctx, http.MethodGet, "System/Info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

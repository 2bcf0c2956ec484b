package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrAuthRequired is returned when the server rejects the credential. The
// provider has already been invalidated when this error is seen; callers
// must abort without retrying.
var ErrAuthRequired = errors.New("authentication required")

// AuthProvider supplies the credential attached to every request and is
// told when the server rejects it.
type AuthProvider interface {
	APIKey() string
	Invalidate()
}

// Client provides access to the download server API.
type Client struct {
	baseURL    string
	auth       AuthProvider
	httpClient *http.Client
	// streamClient has no overall timeout; progress streams are long-lived
	// and bounded by the caller's context instead.
	streamClient *http.Client
}

const requestTimeout = 15 * time.Second

// NewClient creates a new download server API client.
func NewClient(baseURL string, auth AuthProvider) *Client {
	return &Client{
		baseURL:      baseURL,
		auth:         auth,
		httpClient:   &http.Client{Timeout: requestTimeout},
		streamClient: &http.Client{},
	}
}

// FetchQueue retrieves the canonical queue snapshot. offset and limit page
// the completed portion; limit <= 0 requests the server default window.
func (c *Client) FetchQueue(ctx context.Context, offset, limit int) (*QueueSnapshot, error) {
	path := "/queue"
	if limit > 0 {
		values := url.Values{}
		values.Set("offset", strconv.Itoa(offset))
		values.Set("limit", strconv.Itoa(limit))
		path += "?" + values.Encode()
	}
	var snap QueueSnapshot
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddTracks enqueues track descriptors on the server.
func (c *Client) AddTracks(ctx context.Context, tracks []TrackDescriptor) (AddResult, error) {
	body := map[string][]TrackDescriptor{"tracks": tracks}
	var result AddResult
	if err := c.do(ctx, http.MethodPost, "/queue/add", body, &result); err != nil {
		return AddResult{}, err
	}
	return result, nil
}

// RemoveTrack removes one queued track.
func (c *Client) RemoveTrack(ctx context.Context, trackID string) error {
	return c.do(ctx, http.MethodDelete, "/queue/"+url.PathEscape(trackID), nil, nil)
}

// ClearQueue removes all queued tracks.
func (c *Client) ClearQueue(ctx context.Context) (int, error) {
	return c.clear(ctx, "/queue/clear")
}

// ClearCompleted removes the server's completed history.
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	return c.clear(ctx, "/queue/clear-completed")
}

// ClearFailed removes all failed entries.
func (c *Client) ClearFailed(ctx context.Context) (int, error) {
	return c.clear(ctx, "/queue/clear-failed")
}

func (c *Client) clear(ctx context.Context, path string) (int, error) {
	var result ClearResult
	if err := c.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Cleared, nil
}

// RetryTrack requeues one failed track.
func (c *Client) RetryTrack(ctx context.Context, trackID string) error {
	return c.do(ctx, http.MethodPost, "/queue/retry/"+url.PathEscape(trackID), nil, nil)
}

// RetryAllFailed requeues every failed track.
func (c *Client) RetryAllFailed(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/queue/retry-failed", nil, nil)
}

// StartProcessing enables server-side auto-processing of the queue.
func (c *Client) StartProcessing(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/queue/start", nil, nil)
}

// StopProcessing disables server-side auto-processing.
func (c *Client) StopProcessing(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/queue/stop", nil, nil)
}

// downloadStartResponse is the wire shape of a successful start call.
type downloadStartResponse struct {
	Status   string `json:"status"` // downloading or exists
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// StartDownload asks the server to download one track. A 404 is not an
// error: it maps to NotFoundAtQuality so the caller can apply quality
// fallback.
func (c *Client) StartDownload(ctx context.Context, req DownloadRequest) (DownloadStartResult, error) {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return DownloadStartResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/download/track", bytes.NewReader(jsonBody))
	if err != nil {
		return DownloadStartResult{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return DownloadStartResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.auth.Invalidate()
		return DownloadStartResult{}, ErrAuthRequired
	case resp.StatusCode == http.StatusNotFound:
		return DownloadStartResult{Outcome: NotFoundAtQuality}, nil
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return DownloadStartResult{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload downloadStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return DownloadStartResult{}, fmt.Errorf("decode response: %w", err)
	}

	result := DownloadStartResult{Filename: payload.Filename, Path: payload.Path}
	if payload.Status == "exists" {
		result.Outcome = AlreadyExists
	}
	return result, nil
}

// FetchDownloadState retrieves the reconciliation snapshot keyed by catalog
// track id.
func (c *Client) FetchDownloadState(ctx context.Context) (*DownloadState, error) {
	var state DownloadState
	if err := c.do(ctx, http.MethodGet, "/download/state", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// FetchSettings retrieves the versioned server settings.
func (c *Client) FetchSettings(ctx context.Context) (*Settings, error) {
	var settings Settings
	if err := c.do(ctx, http.MethodGet, "/system/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings writes a partial settings update carrying the version the
// settings were read at. A 409 is not an error: it yields a conflict result
// carrying the server's current settings.
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (SettingsResult, error) {
	jsonBody, err := json.Marshal(update)
	if err != nil {
		return SettingsResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/system/settings", bytes.NewReader(jsonBody))
	if err != nil {
		return SettingsResult{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SettingsResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.auth.Invalidate()
		return SettingsResult{}, ErrAuthRequired
	case resp.StatusCode == http.StatusConflict:
		var conflict conflictResponse
		if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
			return SettingsResult{}, fmt.Errorf("decode conflict response: %w", err)
		}
		return SettingsResult{Conflict: true, Settings: conflict.Detail.CurrentSettings}, nil
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return SettingsResult{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var settings Settings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return SettingsResult{}, fmt.Errorf("decode response: %w", err)
	}
	return SettingsResult{Settings: settings}, nil
}

// do performs a JSON request and decodes the response into dest when dest
// is non-nil. Any 401 invalidates the auth provider and returns
// ErrAuthRequired.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.Invalidate()
		return ErrAuthRequired
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// setHeaders sets common headers for API requests.
func (c *Client) setHeaders(req *http.Request) {
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.auth.APIKey())
}

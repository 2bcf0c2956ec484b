package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ProgressStream is a long-lived, one-way channel of progress frames for a
// single track. Frames arrive as "data: <json>" lines, each terminated by a
// blank line. Close the stream when done; cancelling the context passed to
// OpenProgressStream also tears down the underlying connection.
type ProgressStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

// OpenProgressStream opens the server-push progress channel for one catalog
// track id.
func (c *Client) OpenProgressStream(ctx context.Context, trackID string) (*ProgressStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/progress/"+url.PathEscape(trackID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("X-API-Key", c.auth.APIKey())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.auth.Invalidate()
		return nil, ErrAuthRequired
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return &ProgressStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// Next blocks until the next frame arrives. It returns io.EOF when the
// server closes the stream, or the scan error on a broken connection.
func (s *ProgressStream) Next() (ProgressFrame, error) {
	var data strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Blank line terminates the current event.
		if line == "" {
			if data.Len() == 0 {
				continue
			}
			var frame ProgressFrame
			if err := json.Unmarshal([]byte(data.String()), &frame); err != nil {
				return ProgressFrame{}, fmt.Errorf("decode frame: %w", err)
			}
			return frame, nil
		}

		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
		// Other field lines (comments, event names) are ignored.
	}

	if err := s.scanner.Err(); err != nil {
		return ProgressFrame{}, err
	}

	// A final frame without a trailing blank line still counts.
	if data.Len() > 0 {
		var frame ProgressFrame
		if err := json.Unmarshal([]byte(data.String()), &frame); err != nil {
			return ProgressFrame{}, fmt.Errorf("decode frame: %w", err)
		}
		return frame, nil
	}
	return ProgressFrame{}, io.EOF
}

// Close tears down the underlying connection.
func (s *ProgressStream) Close() error {
	return s.body.Close()
}

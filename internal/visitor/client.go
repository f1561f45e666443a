// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

package visitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/waypoint/internal/models"
)

// ErrShortlinkNotFound is the meta endpoint's 404.
var ErrShortlinkNotFound = errors.New("shortlink not found")

// Client talks to a Waypoint server the way the tracking page does.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// NewClient creates a client for the server at baseURL. userAgent is sent on
// every request so server-side derivation sees the same browser.
func NewClient(baseURL, userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		userAgent: userAgent,
	}
}

// Meta bootstraps a slug.
func (c *Client) Meta(ctx context.Context, slug string) (*models.ShortlinkMeta, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/shortlink-meta/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch shortlink meta: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrShortlinkNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("shortlink meta returned status %d", resp.StatusCode)
	}

	var meta models.ShortlinkMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode shortlink meta: %w", err)
	}
	return &meta, nil
}

// Submit implements Submitter by posting to /api/track.
func (c *Client) Submit(ctx context.Context, event *models.ClickEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode tracking payload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/track", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post tracking payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("track returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// HTTPNavigator "navigates" by fetching the target URL.
type HTTPNavigator struct {
	Client    *http.Client
	UserAgent string

	// Reached is the final URL after redirects, set on success
	Reached string
}

// Navigate implements Navigator. Any response below 500 counts as reaching the target.
func (n *HTTPNavigator) Navigate(ctx context.Context, targetURL string) error {
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return err
	}
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("target returned status %d", resp.StatusCode)
	}
	n.Reached = resp.Request.URL.String()
	return nil
}

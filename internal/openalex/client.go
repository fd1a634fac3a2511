// Package openalex talks to the OpenAlex scholarly-works API: keyword
// search over works, author lookups, and the author collection used by
// qscore.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scholarmap/pkg/config"
)

// DefaultBaseURL is the public OpenAlex API.
const DefaultBaseURL = "https://api.openalex.org"

var (
	// ErrDone is returned by WorkPager.Next after the last page.
	ErrDone = errors.New("openalex: no more pages")
	// ErrNotFound is returned for a 404 from the API.
	ErrNotFound = errors.New("openalex: not found")
)

// Client is a small OpenAlex API client.
type Client struct {
	BaseURL string
	Mailto  string // joins the OpenAlex "polite pool" when set
	PerPage int
	HTTP    *http.Client
}

func NewClient(cfg config.OpenAlexConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: base,
		Mailto:  cfg.Mailto,
		PerPage: perPage,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openalex: status %d: %s", e.Code, e.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("openalex: build url: %w", err)
	}
	if q == nil {
		q = url.Values{}
	}
	if c.Mailto != "" {
		q.Set("mailto", c.Mailto)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("openalex: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("openalex: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openalex: decode %s: %w", path, err)
	}
	return nil
}

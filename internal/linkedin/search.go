// Package linkedin finds public LinkedIn profiles by name through the Apify
// profile-search actor, so a visitor can pick their profile instead of pasting a URL.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("apify token not configured")
	ErrNameRequired  = errors.New("first and last name are required")
	ErrSearchFailed  = errors.New("profile search failed")
	ErrSearchTimeout = errors.New("profile search timed out")
)

const (
	DefaultBaseURL = "https://api.apify.com"
	Actor          = "harvestapi~linkedin-profile-search-by-name"

	PollInterval = time.Second
	MaxAttempts  = 30
)

const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
	statusAborted   = "ABORTED"
	statusTimedOut  = "TIMED-OUT"
)

type Location struct {
	LinkedInText string `json:"linkedinText,omitempty"`
}

type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Position         string    `json:"position,omitempty"`
	Photo            string    `json:"photo,omitempty"`
	Location         *Location `json:"location,omitempty"`
	LinkedInURL      string    `json:"linkedinUrl"`
	PublicIdentifier string    `json:"publicIdentifier"`
}

type Query struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type runInput struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	MaxPages           int    `json:"maxPages"`
	ProfileScraperMode string `json:"profileScraperMode"`
}

type run struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

type Client struct {
	token        string
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithPolling(interval time.Duration, attempts int) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:        token,
		baseURL:      DefaultBaseURL,
		http:         &http.Client{Timeout: 15 * time.Second},
		pollInterval: PollInterval,
		maxAttempts:  MaxAttempts,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.With("component", "linkedin_search")
	return c
}

// Search starts an actor run, polls it until it settles and returns the dataset items.
// The run must succeed within the polling budget.
func (c *Client) Search(ctx context.Context, q Query) ([]Profile, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}
	q.FirstName = strings.TrimSpace(q.FirstName)
	q.LastName = strings.TrimSpace(q.LastName)
	if q.FirstName == "" || q.LastName == "" {
		return nil, ErrNameRequired
	}

	started, err := c.start(ctx, q)
	if err != nil {
		return nil, err
	}
	runID, datasetID := started.Data.ID, started.Data.DefaultDatasetID
	c.logger.Debug("search started", "run", runID)

	status := started.Data.Status
	for attempt := 0; status != statusSucceeded; attempt++ {
		switch status {
		case statusFailed, statusAborted, statusTimedOut:
			return nil, fmt.Errorf("%w: run %s %s", ErrSearchFailed, runID, strings.ToLower(status))
		}
		if attempt >= c.maxAttempts {
			return nil, fmt.Errorf("%w: run %s still %s after %d polls", ErrSearchTimeout, runID, status, attempt)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		var polled run
		if err := c.getJSON(ctx, "/v2/actor-runs/"+url.PathEscape(runID), &polled); err != nil {
			return nil, err
		}
		status = polled.Data.Status
		if polled.Data.DefaultDatasetID != "" {
			datasetID = polled.Data.DefaultDatasetID
		}
	}

	var profiles []Profile
	if err := c.getJSON(ctx, "/v2/datasets/"+url.PathEscape(datasetID)+"/items", &profiles); err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	c.logger.Info("search finished", "run", runID, "profiles", len(profiles))
	return profiles, nil
}

func (c *Client) start(ctx context.Context, q Query) (run, error) {
	body, err := json.Marshal(runInput{
		FirstName:          q.FirstName,
		LastName:           q.LastName,
		MaxPages:           1,
		ProfileScraperMode: "Short",
	})
	if err != nil {
		return run{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v2/acts/"+Actor+"/runs"), bytes.NewReader(body))
	if err != nil {
		return run{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var out run
	if err := c.do(req, "start run", &out); err != nil {
		return run{}, err
	}
	if out.Data.ID == "" {
		return run{}, fmt.Errorf("%w: start run: no run id", ErrSearchFailed)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, "GET "+path, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: %s: apify returned %s", ErrSearchFailed, op, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSearchFailed, op, err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path + "?token=" + url.QueryEscape(c.token)
}

// Package reference is the HTTP client for the reference-data service that
// owns communication configuration records.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/metrics"
)

const upstreamName = "reference"

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	metrics *metrics.Metrics
}

type Options struct {
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

func NewClient(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		client:  hc,
		metrics: opts.Metrics,
	}
}

// GetCommunicationConfigByID fetches one configuration record. A missing
// record yields an error wrapping apperr.ErrNotFound.
func (c *Client) GetCommunicationConfigByID(ctx context.Context, id int64) (CommunicationConfig, error) {
	start := time.Now()
	cfg, err := c.getCommunicationConfigByID(ctx, id)
	c.metrics.ObserveUpstreamCall(upstreamName, outcome(err), time.Since(start))
	return cfg, err
}

func (c *Client) getCommunicationConfigByID(ctx context.Context, id int64) (CommunicationConfig, error) {
	path := "/api/communication-configs/" + strconv.FormatInt(id, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return CommunicationConfig{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return CommunicationConfig{}, fmt.Errorf("get communication config %d: %w", id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return CommunicationConfig{}, fmt.Errorf("communication config %d: %w", id, apperr.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return CommunicationConfig{}, &apperr.UpstreamError{
			Upstream:   upstreamName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var cfg CommunicationConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return CommunicationConfig{}, fmt.Errorf("decode communication config %d: %w", id, err)
	}
	return cfg, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

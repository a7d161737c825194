// Package datawarehouse reads EMS integration snapshots from the data
// warehouse, either through its HTTP API (Client) or straight from the
// warehouse database (Store).
package datawarehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/metrics"
)

const upstreamName = "dwh"

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

// GetByEMS returns the latest snapshot for an EMS. When the warehouse has
// none the error wraps apperr.ErrNotFound.
func (c *Client) GetByEMS(ctx context.Context, guid uuid.UUID) (EMSSnapshot, error) {
	start := time.Now()
	snap, err := c.getByEMS(ctx, guid)
	c.metrics.ObserveUpstreamCall(upstreamName, outcome(err), time.Since(start))
	return snap, err
}

func (c *Client) getByEMS(ctx context.Context, guid uuid.UUID) (EMSSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ems-snapshots/"+guid.String(), nil)
	if err != nil {
		return EMSSnapshot{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return EMSSnapshot{}, fmt.Errorf("get ems snapshot %s: %w", guid, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return EMSSnapshot{}, fmt.Errorf("ems snapshot %s: %w", guid, apperr.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return EMSSnapshot{}, &apperr.UpstreamError{
			Upstream:   upstreamName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var snap EMSSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return EMSSnapshot{}, fmt.Errorf("decode ems snapshot %s: %w", guid, err)
	}
	if snap.EMSGUID == uuid.Nil {
		snap.EMSGUID = guid
	}
	return snap, nil
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

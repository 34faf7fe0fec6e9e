// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Data is the subset of the ip-api.com response the emitter cares about.
type Data struct {
	Status      string  `json:"status"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Client looks up client geolocation by IP. The free ip-api tier allows
// 45 requests per minute, so lookups go through a local token bucket;
// a throttled or failed lookup degrades to unknown fields upstream.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(45.0/60.0), 5),
	}
}

// Lookup resolves geolocation for an IP address.
func (c *Client) Lookup(ctx context.Context, ip string) (Data, error) {
	if !c.limiter.Allow() {
		return Data{}, fmt.Errorf("geoip: lookup throttled")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+ip, nil)
	if err != nil {
		return Data{}, fmt.Errorf("geoip: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Data{}, fmt.Errorf("geoip: lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Data{}, fmt.Errorf("geoip: lookup returned status %d", resp.StatusCode)
	}

	var data Data
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Data{}, fmt.Errorf("geoip: decode response: %w", err)
	}

	if data.Status != "" && data.Status != "success" {
		return Data{}, fmt.Errorf("geoip: lookup unsuccessful for %s", ip)
	}

	return data, nil
}

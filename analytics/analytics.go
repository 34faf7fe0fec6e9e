// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/pollify/api/geoip"
)

const unknown = "Unknown"

// RawEvent is what the vote path knows right after the transaction
// commits, before enrichment.
type RawEvent struct {
	VoteID   string
	PollID   string
	AnswerID string
	UserID   string // empty for anonymous voters
	OwnerID  string // empty for ownerless polls
	IP       string
	UA       string
}

// VoteEvent is the enriched record dispatched to the analytics sink.
type VoteEvent struct {
	VoteID         string  `json:"vote_id"`
	UserID         string  `json:"user_id"`
	OwnerID        string  `json:"owner_id"`
	PollID         string  `json:"poll_id"`
	AnswerID       string  `json:"answer_id"`
	Timestamp      string  `json:"timestamp"`
	UA             string  `json:"ua"`
	Browser        string  `json:"browser"`
	BrowserVersion string  `json:"browser_version"`
	OS             string  `json:"os"`
	OSVersion      string  `json:"os_version"`
	Device         string  `json:"device"`
	DeviceVendor   string  `json:"device_vendor"`
	DeviceModel    string  `json:"device_model"`
	Region         string  `json:"region"`
	CountryCode    string  `json:"country_code"`
	CountryName    string  `json:"country_name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// Emitter enriches vote events with geolocation and user-agent facets
// and dispatches them to the external sink. Everything here is
// best-effort: callers invoke EmitVote from a detached goroutine after
// the vote commits, and failures are logged, never surfaced.
type Emitter struct {
	geo     *geoip.Client
	sinkURL string
	token   string
	client  *http.Client
}

func NewEmitter(geo *geoip.Client, sinkURL, token string) *Emitter {
	return &Emitter{
		geo:     geo,
		sinkURL: sinkURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// EmitVote enriches and dispatches one vote event.
func (e *Emitter) EmitVote(ctx context.Context, raw RawEvent) {
	if e.sinkURL == "" {
		return
	}

	event := e.enrich(ctx, raw)
	if err := e.dispatch(ctx, event); err != nil {
		slog.Warn("vote analytics dispatch failed", "error", err, "vote_id", raw.VoteID)
	}
}

func (e *Emitter) enrich(ctx context.Context, raw RawEvent) VoteEvent {
	event := VoteEvent{
		VoteID:         raw.VoteID,
		UserID:         orUnknown(raw.UserID),
		OwnerID:        orUnknown(raw.OwnerID),
		PollID:         raw.PollID,
		AnswerID:       raw.AnswerID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		UA:             orUnknown(raw.UA),
		Browser:        unknown,
		BrowserVersion: unknown,
		OS:             unknown,
		OSVersion:      unknown,
		Device:         "desktop",
		DeviceVendor:   unknown,
		DeviceModel:    unknown,
		Region:         unknown,
		CountryCode:    unknown,
		CountryName:    unknown,
	}

	if raw.UA != "" {
		ua := useragent.Parse(raw.UA)
		event.Browser = orUnknown(ua.Name)
		event.BrowserVersion = orUnknown(ua.Version)
		event.OS = orUnknown(ua.OS)
		event.OSVersion = orUnknown(ua.OSVersion)
		switch {
		case ua.Mobile:
			event.Device = "mobile"
		case ua.Tablet:
			event.Device = "tablet"
		}
		event.DeviceModel = orUnknown(ua.Device)
	}

	if raw.IP != "" {
		geo, err := e.geo.Lookup(ctx, raw.IP)
		if err != nil {
			slog.Debug("geo lookup failed", "error", err)
		} else {
			event.Region = orUnknown(geo.RegionName)
			event.CountryCode = orUnknown(geo.CountryCode)
			event.CountryName = orUnknown(geo.Country)
			event.Latitude = geo.Lat
			event.Longitude = geo.Lon
		}
	}

	return event
}

func (e *Emitter) dispatch(ctx context.Context, event VoteEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("analytics: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.sinkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics: sink returned status %d", resp.StatusCode)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// Invintus Sync - Invintus Webhook Ingestion and Content Reconciliation
// Copyright 2026 TVW IT
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/TVWIT/invintus-sync

// Package invintus is the outbound client for the Invintus API: player
// preference lookups (cached for a day) and the is-live poll (cached
// for a minute). Calls are rate limited and wrapped in a circuit
// breaker; the client performs no retries and propagates upstream
// errors unchanged.
package invintus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/TVWIT/invintus-sync/internal/cache"
	"github.com/TVWIT/invintus-sync/internal/config"
	"github.com/TVWIT/invintus-sync/internal/logging"
	"github.com/TVWIT/invintus-sync/internal/metrics"
)

// PlayerPreferences is the remote player configuration for a client
// account. Fields pass through verbatim; this service only caches them.
type PlayerPreferences map[string]interface{}

// LiveStatus reports whether an event is currently broadcasting.
type LiveStatus struct {
	EventID string `json:"eventID"`
	IsLive  bool   `json:"isLive"`
}

// Client calls the Invintus API with rate limiting, circuit breaking,
// and per-endpoint response caching.
type Client struct {
	config     *config.InvintusConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]

	prefsCache  *cache.Cache
	isLiveCache *cache.Cache
}

// NewClient creates an Invintus API client.
func NewClient(cfg *config.InvintusConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	prefsTTL := cfg.PreferenceTTL
	if prefsTTL <= 0 {
		prefsTTL = 24 * time.Hour
	}
	isLiveTTL := cfg.IsLiveTTL
	if isLiveTTL <= 0 {
		isLiveTTL = time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "invintus-api",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Upstream circuit breaker state change")
		},
	})

	return &Client{
		config:      cfg,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(5), 10),
		breaker:     breaker,
		prefsCache:  cache.New(prefsTTL),
		isLiveCache: cache.New(isLiveTTL),
	}
}

// GetPlayerPreferences returns the player preferences for the
// configured client, from cache when fresh.
func (c *Client) GetPlayerPreferences(ctx context.Context) (PlayerPreferences, error) {
	key := cache.GenerateKey("player-preferences", c.config.ClientID)
	if cached, ok := c.prefsCache.Get(key); ok {
		if prefs, ok := cached.(PlayerPreferences); ok {
			metrics.UpstreamRequests.WithLabelValues("player-preferences", "cache_hit").Inc()
			return prefs, nil
		}
	}

	body, err := c.get(ctx, "player-preferences", "/v2/Player/getPreferences?clientID="+c.config.ClientID)
	if err != nil {
		return nil, err
	}

	var prefs PlayerPreferences
	if err := json.Unmarshal(body, &prefs); err != nil {
		return nil, fmt.Errorf("failed to decode player preferences: %w", err)
	}

	c.prefsCache.Set(key, prefs)
	return prefs, nil
}

// PurgePreferences drops the cached player preferences so the next
// lookup refetches.
func (c *Client) PurgePreferences() {
	c.prefsCache.Purge()
	logging.Info().Msg("Purged cached player preferences")
}

// IsLive reports whether the given event is currently broadcasting,
// from cache when polled within the last minute.
func (c *Client) IsLive(ctx context.Context, eventID string) (*LiveStatus, error) {
	key := cache.GenerateKey("is-live", eventID)
	if cached, ok := c.isLiveCache.Get(key); ok {
		if status, ok := cached.(*LiveStatus); ok {
			metrics.UpstreamRequests.WithLabelValues("is-live", "cache_hit").Inc()
			return status, nil
		}
	}

	body, err := c.get(ctx, "is-live", "/v2/Event/isLive?eventID="+eventID)
	if err != nil {
		return nil, err
	}

	status := &LiveStatus{EventID: eventID}
	if err := json.Unmarshal(body, status); err != nil {
		return nil, fmt.Errorf("failed to decode is-live response: %w", err)
	}

	c.isLiveCache.Set(key, status)
	return status, nil
}

// Close releases the client's cache resources.
func (c *Client) Close() {
	c.prefsCache.Stop()
	c.isLiveCache.Stop()
}

// get performs one rate-limited, circuit-protected GET. No retries:
// the caller sees exactly what the upstream returned.
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "open").Inc()
		} else {
			metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		}
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	url := strings.TrimRight(c.config.APIURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package closecrm implements the Close REST API client used to find and
create leads, read and write call activities, and store the sync checkpoint
on a lead custom field.

Requests authenticate with HTTP Basic using the API key as the username and
an empty password. Outbound requests are paced by a token-bucket limiter,
HTTP 429 responses are retried with exponential backoff honoring
Retry-After, and every call runs through a circuit breaker.

API Reference: https://developer.close.com/
*/
package closecrm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/callbridge/internal/breaker"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
	"github.com/tomtom215/callbridge/internal/models"
)

const (
	metricsClient = "close"
	maxErrorBody  = 64 << 10

	defaultMaxRetries = 5
)

// ErrRateLimited is returned when HTTP 429 persists after all retries.
var ErrRateLimited = errors.New("close: rate limit exceeded")

// APIError is a non-2xx response from the Close API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("close: status %d: %s", e.StatusCode, e.Body)
}

// Config holds the connection settings.
type Config struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration

	// Name distinguishes breakers when more than one client exists
	// (the checkpoint client uses the sandbox key).
	Name string

	// MaxRetries on HTTP 429. Zero uses the default of 5.
	MaxRetries int

	// RetryBaseDelay is the first backoff step. Zero uses one second.
	RetryBaseDelay time.Duration

	HTTPClient *http.Client
	Breaker    *breaker.Settings
}

// Client is a Close API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *breaker.Breaker

	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	name := cfg.Name
	if name == "" {
		name = "close-api"
	}
	settings := breaker.DefaultSettings()
	if cfg.Breaker != nil {
		settings = *cfg.Breaker
	}
	settings.IsSuccessful = isBreakerSuccess

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		cb:         breaker.New(name, settings),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// isBreakerSuccess keeps client errors (bad query, unknown lead) from
// tripping the breaker. Server errors, 429 and transport failures count.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// QueryLeadsByPhone returns one page of leads whose phone number matches.
func (c *Client) QueryLeadsByPhone(ctx context.Context, phone string, offset int) (models.LeadPage, error) {
	params := url.Values{}
	params.Set("_skip", strconv.Itoa(offset))
	params.Set("query", `phone_number:"`+phone+`"`)
	params.Set("_fields", "id")

	var page models.LeadPage
	if err := c.do(ctx, http.MethodGet, "lead/", params, nil, &page); err != nil {
		return models.LeadPage{}, fmt.Errorf("query leads by phone: %w", err)
	}
	return page, nil
}

type createLeadPhone struct {
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

type createLeadContact struct {
	Phones []createLeadPhone `json:"phones"`
}

type createLeadRequest struct {
	Contacts []createLeadContact `json:"contacts"`
}

// CreateLead creates a lead with a single contact holding phone as an
// office number and returns the new lead id.
func (c *Client) CreateLead(ctx context.Context, phone string) (string, error) {
	body := createLeadRequest{Contacts: []createLeadContact{{
		Phones: []createLeadPhone{{Phone: phone, Type: "office"}},
	}}}

	var created models.LeadRef
	if err := c.do(ctx, http.MethodPost, "lead/", nil, body, &created); err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create lead: response has no id")
	}
	return created.ID, nil
}

// QueryCallActivities returns the call activities of a lead created on or
// after sinceDate (YYYY-MM-DD), limited to their id and note.
func (c *Client) QueryCallActivities(ctx context.Context, leadID, sinceDate string) ([]models.CallActivity, error) {
	params := url.Values{}
	params.Set("lead_id", leadID)
	params.Set("date_created__gte", sinceDate)
	params.Set("_fields", "id,note")

	var page models.CallActivityPage
	if err := c.do(ctx, http.MethodGet, "activity/call/", params, nil, &page); err != nil {
		return nil, fmt.Errorf("query call activities: %w", err)
	}
	return page.Data, nil
}

// PostCallActivity logs a call activity and returns its id.
func (c *Client) PostCallActivity(ctx context.Context, payload models.ActivityPayload) (string, error) {
	var created models.CallActivity
	if err := c.do(ctx, http.MethodPost, "activity/call/", nil, payload.Map(), &created); err != nil {
		return "", fmt.Errorf("post call activity: %w", err)
	}
	return created.ID, nil
}

// GetCustomField returns the value of custom.<field> on a lead, or "" when
// the field is unset.
func (c *Client) GetCustomField(ctx context.Context, leadID, field string) (string, error) {
	params := url.Values{}
	params.Set("_fields", "custom")

	var lead struct {
		Custom map[string]interface{} `json:"custom"`
	}
	if err := c.do(ctx, http.MethodGet, "lead/"+url.PathEscape(leadID)+"/", params, nil, &lead); err != nil {
		return "", fmt.Errorf("get custom field %s: %w", field, err)
	}

	switch v := lead.Custom[field].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

// SetCustomField writes custom.<field> on a lead.
func (c *Client) SetCustomField(ctx context.Context, leadID, field, value string) error {
	body := map[string]string{"custom." + field: value}
	if err := c.do(ctx, http.MethodPut, "lead/"+url.PathEscape(leadID)+"/", nil, body, nil); err != nil {
		return fmt.Errorf("set custom field %s: %w", field, err)
	}
	return nil
}

// do runs one API call through the breaker.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	_, err := breaker.Do(c.cb, func() (struct{}, error) {
		return struct{}{}, c.doWithRetry(ctx, method, path, params, body, out)
	})
	return err
}

// doWithRetry executes the request, retrying HTTP 429 with exponential
// backoff (1s, 2s, 4s, ...) unless Retry-After says otherwise.
func (c *Client) doWithRetry(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.send(ctx, method, endpoint, payload)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			if attempt >= c.maxRetries {
				return fmt.Errorf("%w after %d retries", ErrRateLimited, c.maxRetries)
			}
			delay := retryDelay(resp.Header.Get("Retry-After"), c.baseDelay, attempt)
			logging.Warn().Str("path", path).Dur("retry_delay", delay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).Msg("Close API rate limited (HTTP 429), retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordClientRequest(metricsClient, 0, time.Since(start))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	metrics.RecordClientRequest(metricsClient, resp.StatusCode, time.Since(start))
	return resp, nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryDelay returns the Retry-After seconds when present, else
// base * 2^attempt.
func retryDelay(retryAfter string, base time.Duration, attempt int) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return base * time.Duration(1<<attempt)
}

// Callbridge - RingCentral to Close Call Log Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callbridge

/*
Package ringcentral implements the RingCentral REST client used by the sync
engine.

Authentication uses the OAuth2 resource-owner password grant against
<server>/restapi/oauth/token with the client credentials in a Basic header.
The session token is guarded by a sync.RWMutex: API calls hold the read lock
for the duration of one HTTP request and RefreshSession holds the write lock,
so a refresh never swaps the token under an in-flight request.

API Reference: https://developers.ringcentral.com/api-reference
*/
package ringcentral

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/tomtom215/callbridge/internal/breaker"
	"github.com/tomtom215/callbridge/internal/logging"
	"github.com/tomtom215/callbridge/internal/metrics"
	"github.com/tomtom215/callbridge/internal/models"
)

const (
	tokenPath   = "/restapi/oauth/token"
	callLogPath = "/restapi/v1.0/account/~/call-log"

	metricsClient = "ringcentral"

	maxErrorBody = 64 << 10
)

// ErrNoSession is returned by API calls made before a successful Login.
var ErrNoSession = errors.New("ringcentral: no active session")

// APIError is a non-2xx response from the RingCentral API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ringcentral: status %d: %s", e.StatusCode, e.Body)
}

// Config holds the connection settings.
type Config struct {
	ServerURL    string
	ClientID     string
	ClientSecret string
	Username     string
	Extension    string
	Password     string
	Timeout      time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client

	// Breaker overrides the default breaker settings.
	Breaker *breaker.Settings
}

// Client is a RingCentral API client holding one OAuth2 session.
type Client struct {
	serverURL  string
	username   string
	password   string
	oauth      *oauth2.Config
	httpClient *http.Client
	cb         *breaker.Breaker

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewClient creates a client. Call Login before any API call.
func NewClient(cfg Config) *Client {
	serverURL := strings.TrimSuffix(cfg.ServerURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	settings := breaker.DefaultSettings()
	if cfg.Breaker != nil {
		settings = *cfg.Breaker
	}

	// RingCentral accepts "<number>*<extension>" as the username for
	// extension-scoped logins.
	username := cfg.Username
	if cfg.Extension != "" {
		username = username + "*" + cfg.Extension
	}

	return &Client{
		serverURL: serverURL,
		username:  username,
		password:  cfg.Password,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  serverURL + tokenPath,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: httpClient,
		cb:         breaker.New("ringcentral-api", settings),
	}
}

// Login performs the password grant and stores the session.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	start := time.Now()
	tok, err := c.oauth.PasswordCredentialsToken(c.oauthContext(ctx), c.username, c.password)
	metrics.RecordClientRequest(metricsClient, tokenStatus(err), time.Since(start))
	if err != nil {
		return fmt.Errorf("ringcentral login: %w", err)
	}
	c.token = tok
	logging.Info().Time("expires_at", tok.Expiry).Msg("RingCentral session established")
	return nil
}

// RefreshSession exchanges the refresh token for a new access token. When
// no session exists, or the refresh token is rejected, it falls back to a
// full password login.
func (c *Client) RefreshSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.refreshLocked(ctx)
	metrics.RecordSessionRefresh(err)
	return err
}

func (c *Client) refreshLocked(ctx context.Context) error {
	if c.token == nil || c.token.RefreshToken == "" {
		return c.loginLocked(ctx)
	}

	// An expired-looking token forces the source to hit the token endpoint.
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: c.token.RefreshToken})
	start := time.Now()
	tok, err := src.Token()
	metrics.RecordClientRequest(metricsClient, tokenStatus(err), time.Since(start))
	if err != nil {
		logging.Warn().Err(err).Msg("RingCentral token refresh rejected, logging in again")
		return c.loginLocked(ctx)
	}
	c.token = tok
	logging.Info().Time("expires_at", tok.Expiry).Msg("RingCentral token refreshed")
	return nil
}

// HasSession reports whether a token is held.
func (c *Client) HasSession() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil && c.token.AccessToken != ""
}

// GetCallLog fetches one page of voice calls in the Detailed view.
func (c *Client) GetCallLog(ctx context.Context, q models.CallLogQuery, page int) (*models.CallLogPage, error) {
	params := url.Values{}
	params.Set("type", "Voice")
	params.Set("view", "Detailed")
	params.Set("dateFrom", q.DateFrom.UTC().Format(models.CallLogTimeLayout))
	params.Set("dateTo", q.DateTo.UTC().Format(models.CallLogTimeLayout))
	params.Set("page", strconv.Itoa(page))
	if q.PerPage > 0 {
		params.Set("perPage", strconv.Itoa(q.PerPage))
	}

	var result models.CallLogPage
	if err := c.get(ctx, callLogPath, params, &result); err != nil {
		return nil, fmt.Errorf("call log page %d: %w", page, err)
	}
	return &result, nil
}

// get performs an authenticated GET under the session read lock.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	_, err := breaker.Do(c.cb, func() (struct{}, error) {
		return struct{}{}, c.doGet(ctx, path, params, out)
	})
	return err
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == nil || c.token.AccessToken == "" {
		return ErrNoSession
	}

	endpoint := c.serverURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordClientRequest(metricsClient, 0, time.Since(start))
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordClientRequest(metricsClient, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// tokenStatus maps a token endpoint error to a status for metrics.
func tokenStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode
	}
	return 0
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/klauspost/compress/gzip"

	"github.com/bureau-foundation/tig/lib/credential"
	"github.com/bureau-foundation/tig/lib/netutil"
	"github.com/bureau-foundation/tig/lib/version"
)

// DefaultRequestTimeout bounds REST calls. The stream has no timeout;
// its liveness is policed by the stall timer in package stream.
const DefaultRequestTimeout = 30 * time.Second

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// StreamURL is the full URL of the user stream.
	StreamURL string

	// APIURL is the REST base URL (e.g., "https://api.twitter.com/1.1").
	APIURL string

	// Credentials sign every request. Required.
	Credentials *credential.Set

	// Compression requests a gzip-encoded stream.
	Compression bool

	// HTTPClient is the unsigned base client. It must not set a Timeout,
	// which would cut the stream. If nil, a client on
	// http.DefaultTransport is used.
	HTTPClient *http.Client

	// RequestTimeout bounds ShowUser and Update. Defaults to
	// DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is a signed feed client. Safe for concurrent use.
type Client struct {
	streamURL      string
	apiURL         string
	compression    bool
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewClient creates a feed client signing with config.Credentials.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Credentials == nil {
		return nil, errors.New("feed: Credentials is required")
	}
	for name, value := range map[string]string{"StreamURL": config.StreamURL, "APIURL": config.APIURL} {
		if value == "" {
			return nil, fmt.Errorf("feed: %s is required", name)
		}
		if _, err := url.Parse(value); err != nil {
			return nil, fmt.Errorf("feed: invalid %s %q: %w", name, value, err)
		}
	}

	base := config.HTTPClient
	if base == nil {
		base = &http.Client{Transport: http.DefaultTransport}
	}

	// The oauth1 package only accepts string secrets; this is the one
	// place they leave their locked buffers.
	oauthConfig := oauth1.NewConfig(config.Credentials.ConsumerKey.String(), config.Credentials.ConsumerSecret.String())
	token := oauth1.NewToken(config.Credentials.AccessToken.String(), config.Credentials.AccessTokenSecret.String())
	signed := oauthConfig.Client(context.WithValue(context.Background(), oauth1.HTTPClient, base), token)

	requestTimeout := config.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		streamURL:      config.StreamURL,
		apiURL:         strings.TrimRight(config.APIURL, "/"),
		compression:    config.Compression,
		requestTimeout: requestTimeout,
		httpClient:     signed,
		logger:         logger,
	}, nil
}

// OpenStream connects to the user stream and returns its body. The
// caller must Close it; cancelling ctx also aborts reads.
func (c *Client) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: failed to create stream request: %w", err)
	}
	request.Header.Set("User-Agent", version.UserAgent())
	if c.compression {
		// Setting the header explicitly disables the transport's own
		// transparent decompression, so the body is decoded below.
		request.Header.Set("Accept-Encoding", "gzip")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("feed: stream request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		return nil, newAPIError(http.MethodGet, request.URL.Path, response.StatusCode, netutil.ErrorBody(response.Body))
	}

	if !strings.EqualFold(response.Header.Get("Content-Encoding"), "gzip") {
		return response.Body, nil
	}
	decompressor, err := gzip.NewReader(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, fmt.Errorf("feed: reading gzip stream header: %w", err)
	}
	c.logger.Debug("feed stream is gzip encoded")
	return &gzipBody{Reader: decompressor, body: response.Body}, nil
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Close() error {
	return errors.Join(g.Reader.Close(), g.body.Close())
}

// ShowUser looks up a user by screen name. The result includes the
// user's most recent status when the service provides one.
func (c *Client) ShowUser(ctx context.Context, screenName string) (*User, error) {
	query := url.Values{"screen_name": {screenName}}
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/users/show.json?"+query.Encode(), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update posts text as a new status and returns the created status.
func (c *Client) Update(ctx context.Context, text string) (*Status, error) {
	form := url.Values{"status": {text}}
	var status Status
	if err := c.doJSON(ctx, http.MethodPost, "/statuses/update.json", form, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// doJSON performs a signed REST call. A non-nil form is sent as an
// urlencoded body, which oauth1 includes in the signature base.
func (c *Client) doJSON(ctx context.Context, method, path string, form url.Values, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	request, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("feed: failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", version.UserAgent())
	if form != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("feed: request to %s %s failed: %w", method, request.URL.Path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("feed: failed to read response body: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return newAPIError(method, request.URL.Path, response.StatusCode, string(responseBody))
	}
	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("feed: decoding %s %s response: %w", method, request.URL.Path, err)
	}
	return nil
}

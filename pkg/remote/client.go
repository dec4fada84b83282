// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remote sends authenticated, retried requests to the catalog API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/auth"
	"github.com/walteh/loyalty/pkg/config"
	"github.com/walteh/loyalty/pkg/retry"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/oauth2"
)

const maxErrorBody = 4096

// ⚠️ Error is a failed catalog call
//
// Status is zero for transport failures.
type Error struct {
	Method string
	Path   string
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("catalog %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("catalog API error: %d %s", e.Status, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthorized reports whether the upstream rejected the token.
func (e *Error) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status >= 500:
		return true
	case e.Unauthorized():
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	}
	return false
}

// 🔧 ClientOptions configures a Client
type ClientOptions struct {
	HTTPClient   *http.Client
	BaseURL      string
	Tokens       TokenSource
	Region       string
	Retry        retry.Policy
	RetryOptions []retry.Option
}

// 🌐 Client is the authenticated request wrapper
//
// Every attempt asks the TokenSource for a token, so a revoke between attempts
// forces a refresh.
type Client struct {
	http         *http.Client
	baseURL      string
	tokens       TokenSource
	region       string
	policy       retry.Policy
	retryOptions []retry.Option
}

// 🏭 NewClient creates a new client with the given options
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.Errorf("token source is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.Errorf("base url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}

	return &Client{
		http:         opts.HTTPClient,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		tokens:       opts.Tokens,
		region:       opts.Region,
		policy:       opts.Retry,
		retryOptions: opts.RetryOptions,
	}, nil
}

// 🚀 Do sends the request with retries and decodes the JSON response into out
//
// out may be nil. Non-2xx answers surface as *Error; 401 and 403 revoke the
// token before the error is returned.
func (c *Client) Do(ctx context.Context, path string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	region := opts.Region
	if region == "" {
		region = c.region
	}

	var body []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return errors.Errorf("encoding request body: %w", err)
		}
		body = b
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	requestID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Str("method", method).Str("path", path).Logger()
	ctx = logger.WithContext(ctx)

	return retry.Run(ctx, c.policy, func(ctx context.Context) error {
		return c.attempt(ctx, method, target, path, region, requestID, body, opts, out)
	}, c.retryOptions...)
}

func (c *Client) attempt(ctx context.Context, method, target, path, region, requestID string, body []byte, opts RequestOptions, out any) error {
	logger := zerolog.Ctx(ctx)

	token, err := c.tokens.Token(ctx, region)
	if err != nil {
		var cerr *config.Error
		var aerr *auth.Error
		if errors.As(err, &cerr) || errors.As(err, &aerr) || ctx.Err() != nil {
			return retry.Permanent(err)
		}
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return retry.Permanent(errors.Errorf("creating request: %w", err))
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.bearer(token).Do(req)
	if err != nil {
		rerr := &Error{Method: method, Path: path, Err: err}
		if ctx.Err() != nil {
			return retry.Permanent(rerr)
		}
		return rerr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		rerr := &Error{Method: method, Path: path, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}

		if rerr.Unauthorized() {
			logger.Debug().Int("status", resp.StatusCode).Msg("token rejected, revoking")
			c.tokens.Revoke()
		}
		if !rerr.Retryable() {
			return retry.Permanent(rerr)
		}
		return rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(errors.Errorf("decoding response from %s: %w", path, err))
	}

	logger.Trace().Int("status", resp.StatusCode).Msg("request succeeded")
	return nil
}

// bearer returns a copy of the http client that authorizes every request with token
func (c *Client) bearer(token string) *http.Client {
	hc := *c.http
	hc.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   c.http.Transport,
	}
	return &hc
}

// 🎯 Request performs a call and decodes the response into a new T
func Request[T any](ctx context.Context, c Doer, path string, opts RequestOptions) (T, error) {
	var out T
	if err := c.Do(ctx, path, opts, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

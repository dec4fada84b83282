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

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/walteh/loyalty/pkg/retry"
	"gitlab.com/tozd/go/errors"
)

const grantRefreshToken = "refresh_token"

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
}

type refreshResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    *float64 `json:"expires_in,omitempty"`
}

// statusError is a non-2xx answer from the refresh endpoint
type statusError struct {
	Status int
	Reason string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("refresh endpoint returned %d %s", e.Status, e.Reason)
}

// retryable is true for server-side and throttling failures only.
func (e *statusError) retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// exchange performs one refresh round trip
func (m *Manager) exchange(ctx context.Context, clientID, secret string) (*refreshResponse, error) {
	body, err := json.Marshal(refreshRequest{
		GrantType:    grantRefreshToken,
		RefreshToken: secret,
		ClientID:     clientID,
		RedirectURI:  m.opts.RedirectURI,
	})
	if err != nil {
		return nil, retry.Permanent(errors.Errorf("encoding refresh request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.opts.AuthURL+"/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(errors.Errorf("creating refresh request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Errorf("sending refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &statusError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
		if serr.retryable() {
			return nil, serr
		}
		return nil, retry.Permanent(serr)
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Errorf("decoding refresh response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, retry.Permanent(errors.New("refresh response has no access_token"))
	}

	return &out, nil
}

// jwtExpiry reads the exp claim without verifying the signature.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

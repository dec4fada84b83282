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
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx    context.Context
	m      *Manager
	region string
}

// 🔌 TokenSource adapts the manager to golang.org/x/oauth2
//
// ctx is used for every refresh the source triggers. The reported expiry
// already accounts for the safety margin.
func (m *Manager) TokenSource(ctx context.Context, region string) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, m: m, region: region}
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	access, err := s.m.Token(s.ctx, s.region)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if cur, ok := s.m.Current(); ok && cur.AccessToken == access {
		tok.Expiry = cur.ExpiresAt.Add(-s.m.opts.SafetyMargin)
	}
	return tok, nil
}

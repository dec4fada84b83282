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

// Package cards imports the wallet's loyalty cards into local card records.
package cards

import (
	"context"
	"time"

	"gitlab.com/tozd/go/errors"
)

// UnsavedID marks a card that has not been persisted.
const UnsavedID int64 = -1

// Type is how a card code is rendered
type Type string

const (
	TypeBarcode Type = "barcode"
	TypeQR      Type = "qr"
	TypeAuto    Type = "auto"
)

// Valid reports whether t is a known card type.
func (t Type) Valid() bool {
	switch t {
	case TypeBarcode, TypeQR, TypeAuto:
		return true
	}
	return false
}

// 🎴 Card is a loyalty card as the wallet shows it
type Card struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Logo      string    `json:"logo"` // data URI, URL or empty
	Color     string    `json:"color"`
	Type      Type      `json:"type"`
	Provider  string    `json:"provider,omitempty"`
	Country   string    `json:"country,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Validate checks the fields every stored card needs.
func (c *Card) Validate() error {
	if c.Name == "" {
		return errors.Errorf("card name is required")
	}
	if c.Code == "" {
		return errors.Errorf("card code is required")
	}
	if !c.Type.Valid() {
		return errors.Errorf("unknown card type %q", c.Type)
	}
	return nil
}

// Filter narrows Store.List; empty fields match everything
type Filter struct {
	Country  string
	Provider string
}

// ErrNotFound is returned by stores for unknown card ids.
var ErrNotFound = errors.Base("card not found")

// 🗄️ Store persists cards
type Store interface {
	// Create saves a new card and returns it with its id and timestamps
	Create(ctx context.Context, c Card) (Card, error)
	// Get returns the card with id or ErrNotFound
	Get(ctx context.Context, id int64) (Card, error)
	// Update replaces the card with c.ID
	Update(ctx context.Context, c Card) (Card, error)
	// Delete removes the card with id
	Delete(ctx context.Context, id int64) error
	// List returns matching cards, newest first
	List(ctx context.Context, f Filter) ([]Card, error)
}

// 🎫 PassGenerator turns a card into a platform wallet pass
type PassGenerator interface {
	// Generate returns a URL the user opens to add the pass
	Generate(ctx context.Context, c Card, platform string) (string, error)
}

// 🔳 BarcodeRenderer draws the code of a card
type BarcodeRenderer interface {
	// Render returns an image of the code in the given symbology
	Render(ctx context.Context, code string, format string) ([]byte, error)
}

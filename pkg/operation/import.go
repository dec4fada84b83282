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
package operation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 📥 ImportParams controls a card import
type ImportParams struct {
	Country string // stamped on saved cards
	Save    bool   // write the cards to the local store
}

// ImportOperation pulls the wallet's cards and optionally stores them
type ImportOperation struct {
	BaseOperation
	params ImportParams

	Result []cards.Card
}

// NewImportOperation imports cards.
func NewImportOperation(opts Options, params ImportParams) *ImportOperation {
	return &ImportOperation{BaseOperation: NewBaseOperation(opts), params: params}
}

func (op *ImportOperation) Name() string { return "import" }

func (op *ImportOperation) Execute(ctx context.Context) error {
	if op.Importer == nil {
		return errors.Errorf("card importer is required")
	}
	if op.params.Save && op.Cards == nil {
		return errors.Errorf("card store is required to save")
	}
	console := log.FromContext(ctx)

	imported, err := op.Importer.Import(ctx)
	if err != nil {
		return errors.Errorf("importing cards: %w", err)
	}

	console.StartSection(ctx, log.Section{Title: "cards"})
	for i := range imported {
		c := &imported[i]
		if op.params.Save {
			if err := op.save(ctx, c); err != nil {
				console.EndSection(ctx)
				return err
			}
		}
		console.LogCard(ctx, log.CardLine{
			ID:       c.ID,
			Name:     c.Name,
			Type:     string(c.Type),
			Provider: c.Provider,
			HasLogo:  c.Logo != "",
			Saved:    op.params.Save,
		})
	}
	n := console.EndSection(ctx)

	if op.params.Save {
		console.Successf("%d cards saved", n)
	} else {
		console.Successf("%d cards imported", n)
	}

	op.Result = imported
	return nil
}

func (op *ImportOperation) save(ctx context.Context, c *cards.Card) error {
	if op.params.Country != "" {
		c.Country = strings.ToUpper(op.params.Country)
	}
	if !c.Type.Valid() {
		c.Type = cards.TypeAuto
	}
	saved, err := op.Cards.Create(ctx, *c)
	if err != nil {
		return errors.Errorf("saving card %q: %w", c.Name, err)
	}
	zerolog.Ctx(ctx).Debug().Int64("id", saved.ID).Str("name", saved.Name).Msg("card saved")
	*c = saved
	return nil
}

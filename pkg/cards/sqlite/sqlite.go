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

// Package sqlite stores cards in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/loyalty/pkg/cards"
	"gitlab.com/tozd/go/errors"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    code TEXT NOT NULL,
    logo TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    provider_id TEXT NOT NULL DEFAULT '',
    country TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_country ON cards(country);
CREATE INDEX IF NOT EXISTS idx_cards_provider ON cards(provider_id);
CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at);
`

const columns = `id, name, code, logo, color, type, provider_id, country, created_at, updated_at`

// 🗄️ Store is a cards.Store backed by SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ cards.Store = (*Store)(nil)

// 🏭 Open opens or creates the database at path; ":memory:" is allowed
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Errorf("opening card database: %w", err)
	}
	// one connection so ":memory:" databases are shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Errorf("initializing card schema: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("card database opened")
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, c cards.Card) (cards.Card, error) {
	if err := c.Validate(); err != nil {
		return cards.Card{}, err
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (name, code, logo, color, type, provider_id, country, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Code, c.Logo, c.Color, string(c.Type), c.Provider, strings.ToUpper(c.Country), now.UnixNano(), now.UnixNano())
	if err != nil {
		return cards.Card{}, errors.Errorf("inserting card: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return cards.Card{}, errors.Errorf("reading card id: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id int64) (cards.Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM cards WHERE id = ?`, id)
	c, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cards.Card{}, errors.Errorf("card %d: %w", id, cards.ErrNotFound)
	}
	if err != nil {
		return cards.Card{}, errors.Errorf("reading card %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) Update(ctx context.Context, c cards.Card) (cards.Card, error) {
	if err := c.Validate(); err != nil {
		return cards.Card{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, code = ?, logo = ?, color = ?, type = ?, provider_id = ?, country = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Code, c.Logo, c.Color, string(c.Type), c.Provider, strings.ToUpper(c.Country), s.now().UTC().UnixNano(), c.ID)
	if err != nil {
		return cards.Card{}, errors.Errorf("updating card %d: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return cards.Card{}, errors.Errorf("card %d: %w", c.ID, cards.ErrNotFound)
	}
	return s.Get(ctx, c.ID)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return errors.Errorf("deleting card %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Errorf("card %d: %w", id, cards.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f cards.Filter) ([]cards.Card, error) {
	query := `SELECT ` + columns + ` FROM cards`
	var where []string
	var args []any
	if f.Country != "" {
		where = append(where, "country = ?")
		args = append(args, strings.ToUpper(f.Country))
	}
	if f.Provider != "" {
		where = append(where, "provider_id = ?")
		args = append(args, f.Provider)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	var out []cards.Card
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, errors.Errorf("reading card row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("listing cards: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (cards.Card, error) {
	var (
		c                cards.Card
		typ              string
		created, updated int64
	)
	if err := r.Scan(&c.ID, &c.Name, &c.Code, &c.Logo, &c.Color, &typ, &c.Provider, &c.Country, &created, &updated); err != nil {
		return cards.Card{}, err
	}
	c.Type = cards.Type(typ)
	c.CreatedAt = time.Unix(0, created).UTC()
	c.UpdatedAt = time.Unix(0, updated).UTC()
	return c, nil
}

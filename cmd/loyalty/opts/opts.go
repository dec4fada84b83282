package opts

import (
	"context"

	"github.com/walteh/loyalty/pkg/auth"
	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/cards/sqlite"
	"github.com/walteh/loyalty/pkg/config"
	"github.com/walteh/loyalty/pkg/log"
	"github.com/walteh/loyalty/pkg/operation"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/remote"
	"github.com/walteh/loyalty/pkg/state"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config   *config.Config
	Settings *config.Settings
	Secrets  *config.Secrets
	Tokens   *auth.Manager
	Client   *remote.Client
	Store    *state.Store
	Cache    *provider.Cache
	Importer *cards.Importer
	Console  *log.Logger
	Database string // default path of the local card database
}

// Context attaches the console logger to ctx.
func (o *RootOpts) Context(ctx context.Context) context.Context {
	return log.NewContext(ctx, o.Console)
}

// Operations returns the collaborators shared by every operation
func (o *RootOpts) Operations() operation.Options {
	return operation.Options{
		Catalog:  o.Cache,
		Importer: o.Importer,
		Cache:    o.Store,
		TTL:      o.Settings.CacheTTL,
	}
}

// OpenCards opens the local card database at path, or the default one when path is empty.
func (o *RootOpts) OpenCards(ctx context.Context, path string) (*sqlite.Store, error) {
	if path == "" {
		path = o.Database
	}
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, errors.Errorf("opening card database: %w", err)
	}
	return db, nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/walteh/loyalty/cmd/loyalty/opts"
	"github.com/walteh/loyalty/pkg/auth"
	"github.com/walteh/loyalty/pkg/cards"
	"github.com/walteh/loyalty/pkg/config"
	"github.com/walteh/loyalty/pkg/log"
	"github.com/walteh/loyalty/pkg/logo"
	"github.com/walteh/loyalty/pkg/provider"
	"github.com/walteh/loyalty/pkg/remote"
	"github.com/walteh/loyalty/pkg/state"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile   string
	envFiles     []string
	region       string
	debugLogging bool
	noColor      bool
)

// initRootOpts loads configuration and wires the catalog stack into root
func initRootOpts(ctx context.Context, root *opts.RootOpts) error {
	if err := config.LoadDotEnv(ctx, envFiles...); err != nil {
		return errors.Errorf("loading env files: %w", err)
	}

	cfg, err := config.LoadOrDefault(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	if region != "" {
		cfg.DefaultRegion = region
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return errors.Errorf("applying environment: %w", err)
	}

	settings, err := cfg.Settings()
	if err != nil {
		return errors.Errorf("resolving settings: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("config", cfg.String()).Msg("configuration loaded")

	secrets := config.NewSecrets(settings, config.SystemKeyring())
	httpClient := &http.Client{Timeout: settings.HTTPTimeout}

	authOpts := auth.OptionsFromSettings(settings, secrets)
	authOpts.HTTPClient = httpClient
	tokens, err := auth.New(authOpts)
	if err != nil {
		return errors.Errorf("creating token manager: %w", err)
	}

	client, err := remote.NewClient(remote.ClientOptions{
		HTTPClient: httpClient,
		BaseURL:    settings.APIURL,
		Tokens:     tokens,
		Region:     settings.DefaultRegion,
		Retry:      settings.Retry,
	})
	if err != nil {
		return errors.Errorf("creating client: %w", err)
	}

	logos := logo.New(logo.Options{
		HTTPClient: httpClient,
		Retry:      settings.Retry,
		MaxBytes:   settings.LogoMaxBytes,
	})

	store, err := state.New(settings.CacheRoot)
	if err != nil {
		return errors.Errorf("creating cache store: %w", err)
	}

	cache, err := provider.NewCache(provider.Options{
		Store:       store,
		Fetcher:     provider.NewRemoteFetcher(client, settings.ProvidersPath),
		Logos:       logos,
		TTL:         settings.CacheTTL,
		Concurrency: settings.Concurrency,
	})
	if err != nil {
		return errors.Errorf("creating provider cache: %w", err)
	}

	importer, err := cards.NewImporter(cards.ImporterOptions{
		Client:      client,
		Path:        settings.LoyaltyPath,
		Logos:       logos,
		TTL:         settings.CardsTTL,
		Concurrency: settings.Concurrency,
	})
	if err != nil {
		return errors.Errorf("creating card importer: %w", err)
	}

	*root = opts.RootOpts{
		Config:   cfg,
		Settings: settings,
		Secrets:  secrets,
		Tokens:   tokens,
		Client:   client,
		Store:    store,
		Cache:    cache,
		Importer: importer,
		Console:  log.New(os.Stdout, *zerolog.Ctx(ctx)),
		Database: filepath.Join(filepath.Dir(settings.CacheRoot), "cards.db"),
	}
	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile(), "config file path (yaml, hcl or json)")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files to load before reading the environment")
	cmd.PersistentFlags().StringVarP(&region, "region", "r", "", "upstream region (EU, US, AP)")
	cmd.PersistentFlags().BoolVarP(&debugLogging, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func defaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".loyalty.yaml"
	}
	return filepath.Join(dir, "loyalty", "config.yaml")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debugLogging {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if noColor {
		color.NoColor = true
	}
	zlog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog.Logger
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"bgdb/annotator/adapters/dbsnp"
	"bgdb/annotator/adapters/gnomad"
	"bgdb/annotator/adapters/variantvalidator"
	"bgdb/annotator/models"
	"bgdb/annotator/repositories/leadstore"
	"bgdb/annotator/services/annotation"
	"bgdb/annotator/utils"
)

// resolveConfig merges credentials: environment first, then the
// config file (when readable), then explicit flags. An explicitly
// passed --config that cannot be read is fatal; the default
// config.json is allowed to be absent.
func resolveConfig(cmd *cobra.Command) (*models.Config, error) {
	var cfg models.Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	creds, err := models.LoadCredentialsFile(rootFlags.config)
	if err != nil {
		if cmd.Flags().Changed("config") || !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config %s: %w", rootFlags.config, err)
		}
	} else {
		if creds.LeadUrl != "" {
			cfg.Store.Url = creds.LeadUrl
		}
		if creds.Email != "" {
			cfg.Store.Email = creds.Email
		}
		if creds.Password != "" {
			cfg.Store.Password = creds.Password
		}
	}

	if rootFlags.url != "" {
		cfg.Store.Url = rootFlags.url
	}
	if rootFlags.email != "" {
		cfg.Store.Email = rootFlags.email
	}
	if rootFlags.password != "" {
		cfg.Store.Password = rootFlags.password
	}

	if cfg.Store.Url == "" || cfg.Store.Email == "" || cfg.Store.Password == "" {
		return nil, fmt.Errorf("missing credentials: provide --url/--email/--password, a config file, or BGDB_* environment variables")
	}
	return &cfg, nil
}

func policyFromFlags() (models.Policy, error) {
	if rootFlags.clearNotFound && !rootFlags.overwriteAll {
		return models.Policy{}, fmt.Errorf("--clear-not-found requires --overwrite-all")
	}
	return models.Policy{
		Overwrite:     rootFlags.overwriteAll,
		Limit:         rootFlags.limit,
		TestMode:      rootFlags.testMode,
		ClearNotFound: rootFlags.clearNotFound,
	}, nil
}

func newLogger(cfg *models.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildAdapter wires one source adapter with its own retry client and
// API-specific rate limiter.
func buildAdapter(name string, logger *slog.Logger) (annotation.SourceAdapter, error) {
	switch name {
	case "gnomad":
		client := utils.NewRetryClient(utils.NewRateLimiter(gnomad.RequestInterval), utils.WithLogger(logger))
		return gnomad.New(client, logger), nil
	case "dbsnp":
		client := utils.NewRetryClient(utils.NewRateLimiter(dbsnp.RequestInterval), utils.WithLogger(logger))
		return dbsnp.New(client, logger), nil
	case "variantvalidator":
		client := utils.NewRetryClient(utils.NewRateLimiter(variantvalidator.RequestInterval), utils.WithLogger(logger))
		return variantvalidator.New(client, logger), nil
	}
	return nil, fmt.Errorf("unknown annotator: %s", name)
}

// runAnnotator performs one full fetch-validate-merge-patch run for a
// single source. Per-record errors are logged and summarized, never
// fatal; only startup failures return an error (non-zero exit).
func runAnnotator(cmd *cobra.Command, adapterName string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := policyFromFlags()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store := leadstore.New(cfg.Store.Url, cfg.Store.Email, cfg.Store.Password, leadstore.WithLogger(logger))
	if err := store.Login(ctx); err != nil {
		return err
	}
	records, err := store.GetVariants(ctx)
	if err != nil {
		return err
	}

	adapter, err := buildAdapter(adapterName, logger)
	if err != nil {
		return err
	}

	pipeline := annotation.NewPipeline(adapter, store, policy, logger)
	summary := pipeline.Run(ctx, records)
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s models.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %d updated, %d skipped, %d not found", s.Adapter, s.Updated, s.Skipped, s.NotFound)
	if s.Cleared > 0 {
		fmt.Fprintf(out, ", %d cleared", s.Cleared)
	}
	if s.Errored > 0 || s.WriteFailed > 0 {
		fmt.Fprintf(out, ", %d errored, %d writes failed", s.Errored, s.WriteFailed)
	}
	fmt.Fprintln(out)
}

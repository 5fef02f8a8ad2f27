package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bgdb/annotator/repositories/leadstore"
	"bgdb/annotator/services/annotation"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the gnomAD, rsID and exon annotators in one go",
	Long: "Runs all three annotators against one variant snapshot. Each annotator\n" +
		"drives its own sequential pipeline against its own API quota, so the\n" +
		"three run concurrently without breaching any rate limit.",
	RunE: runAll,
}

func runAll(cmd *cobra.Command, _ []string) error {
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

	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range []string{"gnomad", "dbsnp", "variantvalidator"} {
		adapter, err := buildAdapter(name, logger)
		if err != nil {
			return err
		}
		group.Go(func() error {
			pipeline := annotation.NewPipeline(adapter, store, policy, logger)
			printSummary(cmd, pipeline.Run(groupCtx, records))
			return nil
		})
	}
	return group.Wait()
}

package main

import "github.com/spf13/cobra"

var exonsCmd = &cobra.Command{
	Use:   "exons",
	Short: "Annotate variants with exon/intron numbers from VariantValidator",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnnotator(cmd, "variantvalidator")
	},
}

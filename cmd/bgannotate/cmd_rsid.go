package main

import "github.com/spf13/cobra"

var rsidCmd = &cobra.Command{
	Use:   "rsid",
	Short: "Annotate variants with dbSNP rsIDs via the NCBI Variation API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnnotator(cmd, "dbsnp")
	},
}

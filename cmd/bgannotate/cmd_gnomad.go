package main

import "github.com/spf13/cobra"

var gnomadCmd = &cobra.Command{
	Use:   "gnomad",
	Short: "Annotate variants with gnomAD v4 population minor-allele frequencies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnnotator(cmd, "gnomad")
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	testMode      bool
	overwriteAll  bool
	clearNotFound bool
	limit         int
	config        string
	url           string
	email         string
	password      string
}

var rootCmd = &cobra.Command{
	Use:   "bgannotate",
	Short: "Annotate blood group database variants from external genomic APIs",
	Long: "bgannotate enriches records in the blood group variant database with\n" +
		"gnomAD population frequencies, dbSNP rsIDs and VariantValidator\n" +
		"exon/intron positions, patching back only missing or stale fields.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&rootFlags.testMode, "test-mode", false, "log what would be updated without making PATCH requests")
	pf.BoolVar(&rootFlags.overwriteAll, "overwrite-all", false, "update all variants, even those with existing values")
	pf.BoolVar(&rootFlags.clearNotFound, "clear-not-found", false, "clear existing values when the upstream API has no match (requires --overwrite-all)")
	pf.IntVar(&rootFlags.limit, "limit", 0, "cap on candidates actually considered (0 = no cap)")
	pf.StringVar(&rootFlags.config, "config", "config.json", "path to a JSON or YAML credentials file")
	pf.StringVar(&rootFlags.url, "url", "", "base URL of the variant database (overrides config file)")
	pf.StringVar(&rootFlags.email, "email", "", "email for authentication (overrides config file)")
	pf.StringVar(&rootFlags.password, "password", "", "password for authentication (overrides config file)")

	rootCmd.AddCommand(gnomadCmd)
	rootCmd.AddCommand(rsidCmd)
	rootCmd.AddCommand(exonsCmd)
	rootCmd.AddCommand(allCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

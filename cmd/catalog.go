package cmd

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query and export the stored crater catalog",
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.PersistentFlags().String("store", "sqlite", "Catalog store: sqlite, postgres or csv")
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cratercat/internal/catalog"
	"cratercat/internal/config"
)

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored catalog to a CSV file",
	RunE:  runCatalogExport,
}

func init() {
	catalogCmd.AddCommand(catalogExportCmd)

	catalogExportCmd.Flags().String("out", "", "Output CSV path (defaults to CRATERCAT_CSV)")
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	store, _ := cmd.Flags().GetString("store")
	out, _ := cmd.Flags().GetString("out")

	ctx := context.Background()
	cfg := config.Load()
	if out == "" {
		out = cfg.Catalog.CSVPath
	}

	reader, cleanup, err := openReader(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	craters, err := reader.Craters(ctx)
	if err != nil {
		return err
	}

	if err := catalog.NewCSVStore(out).SaveCatalog(ctx, catalog.Run{}, craters); err != nil {
		return err
	}

	fmt.Printf("Exported %d craters to %s\n", len(craters), out)
	return nil
}

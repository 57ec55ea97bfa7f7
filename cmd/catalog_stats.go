package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cratercat/internal/config"
	"cratercat/internal/web/handlers"
)

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the stored catalog",
	RunE:  runCatalogStats,
}

func init() {
	catalogCmd.AddCommand(catalogStatsCmd)
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	store, _ := cmd.Flags().GetString("store")

	cfg := config.Load()
	reader, cleanup, err := openReader(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	craters, err := reader.Craters(context.Background())
	if err != nil {
		return err
	}

	s := handlers.Summarize(craters)
	fmt.Printf("Craters: %d\n", s.Count)
	if s.Count == 0 {
		return nil
	}
	fmt.Printf("Radius km: min %.2f, median %.2f, mean %.2f, max %.2f\n",
		s.MinRadiusKm, s.MedianRadiusKm, s.MeanRadiusKm, s.MaxRadiusKm)
	return nil
}

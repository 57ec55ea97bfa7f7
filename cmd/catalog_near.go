package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cratercat/internal/config"
	"cratercat/internal/index"
)

var catalogNearCmd = &cobra.Command{
	Use:   "near",
	Short: "Find the stored craters nearest to a point",
	Long: `Find the k catalog craters closest to a longitude/latitude point.

Example:
  cratercat catalog near --lon 23.4 --lat -12.1 -k 5`,
	RunE: runCatalogNear,
}

func init() {
	catalogCmd.AddCommand(catalogNearCmd)

	catalogNearCmd.Flags().Float64("lon", 0, "Longitude in degrees")
	catalogNearCmd.Flags().Float64("lat", 0, "Latitude in degrees")
	catalogNearCmd.Flags().IntP("k", "k", 10, "Number of neighbors")
	catalogNearCmd.MarkFlagRequired("lon")
	catalogNearCmd.MarkFlagRequired("lat")
}

func runCatalogNear(cmd *cobra.Command, args []string) error {
	store, _ := cmd.Flags().GetString("store")
	lon, _ := cmd.Flags().GetFloat64("lon")
	lat, _ := cmd.Flags().GetFloat64("lat")
	k, _ := cmd.Flags().GetInt("k")

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
	if len(craters) == 0 {
		fmt.Println("Catalog is empty")
		return nil
	}

	idx := index.New()
	idx.Build(craters)

	neighbors, err := idx.Nearest(lon, lat, k)
	if err != nil {
		return err
	}

	for _, n := range neighbors {
		fmt.Printf("lon %9.4f  lat %9.4f  radius %7.2f km  (%.4f deg away)\n",
			n.Crater.Lon, n.Crater.Lat, n.Crater.RadiusKm, n.Distance)
	}
	return nil
}

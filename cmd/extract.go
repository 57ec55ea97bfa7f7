package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cratercat/internal/catalog"
	"cratercat/internal/config"
	"cratercat/internal/dataset"
	"cratercat/internal/detect"
	"cratercat/internal/inference"
	"cratercat/internal/pipeline"
	"cratercat/internal/registry"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract craters from model predictions into the catalog",
	Long: `Extract runs the full pipeline: load cached model predictions (or
regenerate them through the inference server), template-match crater
candidates per image, convert them to physical coordinates and merge them
into a deduplicated catalog.

The catalog is written to a CSV artifact and, unless disabled, to the
selected store.

Examples:
  # Process the whole geometry table, persist to SQLite and CSV
  cratercat extract

  # Process the first 100 images without persisting anything
  cratercat extract --images 100 --dry-run

  # Looser duplicate matching
  cratercat extract --llt2 2.5 --rt2 1.5`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Int("images", 0, "Number of images to process (0 = whole geometry table)")
	extractCmd.Flags().Bool("dry-run", false, "Run the pipeline without persisting the catalog")
	extractCmd.Flags().String("store", "sqlite", "Catalog store: sqlite, postgres or none")
	extractCmd.Flags().Float64("llt2", 0, "Override squared longitude/latitude threshold")
	extractCmd.Flags().Float64("rt2", 0, "Override squared radius threshold")
}

func runExtract(cmd *cobra.Command, args []string) error {
	images, _ := cmd.Flags().GetInt("images")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	store, _ := cmd.Flags().GetString("store")
	llt2, _ := cmd.Flags().GetFloat64("llt2")
	rt2, _ := cmd.Flags().GetFloat64("rt2")

	ctx := context.Background()
	cfg := config.Load()

	table, err := dataset.LoadGeometryTable(cfg.Dataset.GeometryPath)
	if err != nil {
		return err
	}

	if images == 0 {
		images = cfg.Dataset.ImageCount
	}
	if images == 0 {
		images = table.Count()
	}

	thresholds := registry.Thresholds{
		LongLat2: cfg.Matching.ThreshLongLat2,
		Rad2:     cfg.Matching.ThreshRad2,
	}
	if llt2 > 0 {
		thresholds.LongLat2 = llt2
	}
	if rt2 > 0 {
		thresholds.Rad2 = rt2
	}

	client, err := inference.NewClient(cfg.Inference.URL, cfg.Inference.Model)
	if err != nil {
		return fmt.Errorf("configuring inference client: %w", err)
	}

	var persist catalog.Writer
	if !dryRun {
		w, cleanup, err := openWriter(cfg, store)
		if err != nil {
			return err
		}
		defer cleanup()
		persist = catalog.MultiWriter(catalog.NewCSVStore(cfg.Catalog.CSVPath), w)
	}

	p := &pipeline.Pipeline{
		Images:      images,
		Dim:         cfg.Dataset.ImageDim,
		Thresholds:  thresholds,
		Geometry:    table,
		Provider:    detect.NewMatcher(),
		Predictions: dataset.NewSurfaceDir(cfg.Dataset.PredictionsDir),
		Inputs:      dataset.NewSurfaceDir(cfg.Dataset.InputsDir),
		Inference:   client,
		Persist:     persist,
		Progress:    true,
	}

	fmt.Printf("Processing %d images (dim %d, llt2 %.2f, rt2 %.2f)\n",
		images, cfg.Dataset.ImageDim, thresholds.LongLat2, thresholds.Rad2)

	result, err := p.Extract(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nRun %s finished\n", result.Run.ID)
	fmt.Printf("Raw detections: %d\n", result.Run.RawDetections)
	fmt.Printf("Unique craters: %d\n", len(result.Craters))
	if !dryRun {
		fmt.Printf("Catalog written to %s", cfg.Catalog.CSVPath)
		if store != "none" {
			fmt.Printf(" and %s store", store)
		}
		fmt.Println()
	}

	return nil
}

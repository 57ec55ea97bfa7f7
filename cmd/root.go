package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cratercat",
	Short: "A CLI tool for building a deduplicated lunar crater catalog",
	Long: `cratercat extracts crater candidates from CNN prediction surfaces,
converts them to selenographic coordinates (longitude, latitude, radius in km)
and merges detections from overlapping images into a single deduplicated
global catalog.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

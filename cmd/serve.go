package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cratercat/internal/config"
	"cratercat/internal/index"
	"cratercat/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the crater catalog over HTTP",
	Long: `Serve starts an HTTP API over the stored catalog:

  GET /api/v1/health
  GET /api/v1/craters?limit=&offset=
  GET /api/v1/craters/near?lon=&lat=&k=
  GET /api/v1/stats`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8094, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("store", "sqlite", "Catalog store: sqlite, postgres or csv")
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	store, _ := cmd.Flags().GetString("store")

	cfg := config.Load()
	reader, cleanup, err := openReader(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	craters, err := reader.Craters(context.Background())
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	idx := index.New()
	idx.Build(craters)
	fmt.Printf("Indexed %d craters\n", idx.Count())

	server := web.NewServer(reader, idx, host, port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claimtriage/checkprioritizer/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prioritization HTTP API",
	Long: `Serve starts the HTTP API consumed by the front-end dashboard.

Endpoints:
  POST /prioritize   {"texts": ["claim one", "claim two"]}
  GET  /status       liveness check

Example:
  checkprioritizer serve
  checkprioritizer serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	count, err := a.corpus.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("inspect corpus: %w", err)
	}
	if count == 0 {
		fmt.Println("Warning: corpus is empty - run 'checkprioritizer index <dataset.tsv>' first")
	}

	return server.NewServer(a.prioritizer).Run(cfg.Server.Addr)
}

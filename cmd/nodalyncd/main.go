// Command nodalyncd runs a single Nodalync node: identity management,
// content publish/query, channel lifecycle, and the long-running network
// daemon, all driven from one data directory (§6 persistent layout).
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nodalync/engine/pkg/config"
)

var dataDir string

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "nodalyncd",
		Short: "Nodalync node and CLI",
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "node data directory")

	root.AddCommand(
		initCmd(),
		startCmd(),
		statusCmd(),
		publishCmd(),
		queryCmd(),
		channelCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg)
	return cfg, nil
}

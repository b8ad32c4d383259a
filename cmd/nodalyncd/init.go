package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodalync/engine/internal/primitives"
)

// initCmd creates a node's data directory and a fresh protocol identity,
// the Go counterpart of the reference CLI's `init` command
// (NodeContext::for_init plus KeyStore::Generate).
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create a new node identity in the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, dir := range []string{cfg.Storage.DataDir, cfg.ContentDir(), cfg.CacheDir(), cfg.IdentityDir()} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}

			keystore, err := primitives.NewKeyStore(cfg.IdentityDir())
			if err != nil {
				return err
			}
			if keystore.Exists() {
				return fmt.Errorf("identity already exists in %s", cfg.IdentityDir())
			}

			password, err := readPassword("Choose an identity password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			peerID, err := keystore.Generate(password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Identity created.\nPeerId: %s\n", peerID.String())
			return nil
		},
	}
}

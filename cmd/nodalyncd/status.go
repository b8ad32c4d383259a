package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd prints the node's identity and, if it has ever run with
// networking, its last recorded health snapshot fields are unavailable
// from a stopped process — this prints local identity/config state only,
// the same scope the reference CLI's offline `status` falls back to when
// no running daemon can be reached.
func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "show node identity and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			nc, err := localContext(cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			summary := map[string]any{
				"peer_id":           nc.engine.PeerID.String(),
				"data_dir":          cfg.Storage.DataDir,
				"listen_addr":       cfg.Network.ListenAddr,
				"network_enabled":   cfg.Network.Enabled,
				"settlement_tag":    cfg.Settlement.NetworkTag,
				"cache_max_size_mb": cfg.Storage.CacheMaxSizeMB,
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PeerId:        %s\n", summary["peer_id"])
			fmt.Fprintf(cmd.OutOrStdout(), "Data dir:      %s\n", summary["data_dir"])
			fmt.Fprintf(cmd.OutOrStdout(), "Listen addr:   %s\n", summary["listen_addr"])
			fmt.Fprintf(cmd.OutOrStdout(), "Network on:    %v\n", summary["network_enabled"])
			fmt.Fprintf(cmd.OutOrStdout(), "Settlement:    %s\n", summary["settlement_tag"])
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

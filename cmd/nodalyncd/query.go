package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodalync/engine/internal/primitives"
)

func queryCmd() *cobra.Command {
	var (
		bid     uint64
		version uint64
		output  string
	)

	cmd := &cobra.Command{
		Use:   "query <hash>",
		Short: "fetch content, paying for it over a channel if not owned locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := parseHash(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			nc, err := networkedContext(ctx, cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			var versionNumber *uint64
			if version > 0 {
				versionNumber = &version
			}

			now := primitives.Timestamp(time.Now().UnixMilli())
			data, receipt, err := nc.engine.Query(ctx, hash, primitives.Amount(bid), versionNumber, now)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), output)
			} else {
				if _, err := cmd.OutOrStdout().Write(data); err != nil {
					return err
				}
			}

			if receipt.Amount > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Paid %d tinybars, payment %s\n", receipt.Amount, receipt.PaymentID.String())
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&bid, "bid", 0, "amount to offer if it exceeds the manifest's listed price")
	cmd.Flags().Uint64Var(&version, "version", 0, "specific version number to fetch (0 means latest)")
	cmd.Flags().StringVar(&output, "out", "", "write content to this file instead of stdout")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodalync/engine/internal/econ"
	"github.com/nodalync/engine/internal/manifest"
	"github.com/nodalync/engine/internal/primitives"
)

// mimeTypeFor guesses a mime type from a file extension, the same small
// fixed table the reference CLI's publish command uses.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// looksBinary checks the first 8KB for a null byte, the reference CLI's
// heuristic for warning about unindexable binary content.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

func publishCmd() *cobra.Command {
	var (
		price       uint64
		visibility  string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "store a file as new content and publish its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("cannot publish a directory; specify a file path")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if len(data) == 0 {
				return fmt.Errorf("cannot publish an empty file")
			}
			if looksBinary(data) {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: file appears to be binary; binary content cannot be meaningfully indexed or queried")
			}

			vis, err := parseVisibility(visibility)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			priceAmount := primitives.Amount(price)
			if priceAmount == 0 {
				priceAmount = primitives.Amount(cfg.Economics.DefaultPrice)
			}
			if priceAmount < econ.MinPrice || priceAmount > econ.MaxPrice {
				return fmt.Errorf("price %d out of bounds [%d, %d]", priceAmount, econ.MinPrice, econ.MaxPrice)
			}

			if title == "" {
				title = filepath.Base(path)
			}
			mime := mimeTypeFor(path)
			meta := manifest.Metadata{Title: title, MimeType: &mime}
			if description != "" {
				meta.Description = &description
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			nc, err := networkedContext(ctx, cfg)
			if err != nil {
				return err
			}
			defer nc.Close()

			now := primitives.Timestamp(time.Now().UnixMilli())
			m, err := nc.engine.CreateContent(data, meta, now)
			if err != nil {
				return fmt.Errorf("store content: %w", err)
			}

			published, err := nc.engine.Publish(ctx, m.Hash, nc.engine.PeerID, vis, priceAmount, now)
			if err != nil {
				return fmt.Errorf("publish manifest: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published.\nHash:       %s\nVisibility: %s\nPrice:      %d\n",
				published.Hash.String(), published.Visibility.String(), published.Economics.Price)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&price, "price", 0, "price in tinybars (defaults to economics.default_price)")
	cmd.Flags().StringVar(&visibility, "visibility", "unlisted", "private, unlisted, or shared")
	cmd.Flags().StringVar(&title, "title", "", "content title (defaults to the file name)")
	cmd.Flags().StringVar(&description, "description", "", "content description")
	return cmd
}

func parseVisibility(s string) (manifest.Visibility, error) {
	switch strings.ToLower(s) {
	case "private":
		return manifest.Private, nil
	case "unlisted":
		return manifest.Unlisted, nil
	case "shared":
		return manifest.Shared, nil
	default:
		return 0, fmt.Errorf("invalid visibility %q: expected private, unlisted, or shared", s)
	}
}

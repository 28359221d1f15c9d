package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/mlp-train/go-config/internal/hyperparams"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/log"
	"github.com/danielpatrickdp/mlp-train/go-config/internal/snapshot"
	"github.com/spf13/cobra"
)

// #region export
func newExportCmd() *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the table for the training scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := snapshot.Take(hyperparams.Default())

			var write func(io.Writer) error
			switch format {
			case "json":
				write = snap.WriteJSON
			case "protojson":
				write = snap.WriteProtoJSON
			default:
				return fmt.Errorf("unknown format %q (want json or protojson)", format)
			}

			if outPath == "" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(outPath, write); err != nil {
				return err
			}

			fp, err := snapshot.Fingerprint(snap)
			if err != nil {
				return err
			}
			logger := log.WithComponent("export")
			logger.Info().Str("path", outPath).Str("format", format).Str("fingerprint", fp).Msg("snapshot exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or protojson")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (default stdout)")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// #endregion export

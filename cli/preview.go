package cli

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/digitorus/memorycard"
	"github.com/digitorus/memorycard/layout"
	"github.com/digitorus/memorycard/raster"
)

func (a *app) previewCmd() *cobra.Command {
	var (
		output    string
		scale     float64
		thumbnail bool
	)
	cmd := &cobra.Command{
		Use:   "preview <card.toml>",
		Short: "Render a card to a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadCard(args[0])
			if err != nil {
				return err
			}
			mode := layout.ModePreview
			if thumbnail {
				mode = layout.ModeThumbnail
			}
			tree := layout.Render(req.Card, req.Options, mode)

			b, err := raster.Acquire(cmd.Context(), nil, raster.WithLogger(a.log))
			if err != nil {
				return err
			}
			bm, err := b.Render(cmd.Context(), tree, scale)
			if err != nil {
				return err
			}

			if output == "" {
				name := strings.TrimSuffix(memorycard.Filename(req.Card), ".pdf") + ".png"
				output = filepath.Join(a.cfg.OutputDir, name)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := png.Encode(f, bm.Image); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to encode %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "PNG file (default derived from the card)")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Pixels per card unit")
	cmd.Flags().BoolVar(&thumbnail, "thumbnail", false, "Truncate long notes as in the card gallery")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	disimaging "github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-studio-mcp/internal/studio"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var in, out, recipePath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Apply a saved recipe to an image at full resolution",
		Long: "render loads an image, applies the adjustments and filters of a JSON recipe\n" +
			"(as returned by the studio_recipe tool) and writes the result. The output\n" +
			"format follows the file extension.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" || out == "" {
				return errors.New("--in and --out are required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			recipe := studio.NeutralRecipe()
			if recipePath != "" {
				if recipe, err = studio.LoadRecipe(recipePath); err != nil {
					return err
				}
			}

			src, err := ctx.newLoader(cfg, "").Load(cmd.Context(), in)
			if err != nil {
				return err
			}
			result := recipe.Render(src.Native)

			if err := disimaging.Save(result.Image(), out); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", out, result.Width, result.Height)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Source image path or URL")
	cmd.Flags().StringVar(&out, "out", "", "Output image path")
	cmd.Flags().StringVar(&recipePath, "recipe", "", "Recipe JSON file (neutral when omitted)")
	return cmd
}

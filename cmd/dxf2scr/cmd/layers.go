package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/logger"
	"github.com/OpenTraceLab/OpenTraceDXF/internal/report"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/dxf"
)

var layersPlain bool

var layersCmd = &cobra.Command{
	Use:   "layers <file.dxf>",
	Short: "List the layers of a DXF drawing",
	Long: `List every layer that is declared or used in a DXF drawing together with
the number of entities of each kind on it. Use the names with --layers to
restrict a conversion.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayers,
}

func init() {
	rootCmd.AddCommand(layersCmd)
	layersCmd.Flags().BoolVar(&layersPlain, "plain", false, "print the table without colors")
}

func runLayers(cmd *cobra.Command, args []string) error {
	drawing, err := dxf.NewReader(logger.L()).ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read drawing: %w", err)
	}

	th := report.DefaultTheme()
	if layersPlain {
		th = report.PlainTheme()
	}

	out := cmd.OutOrStdout()
	version := drawing.Version
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintf(out, "%s %s\n", th.Label.Render("version"), version)
	fmt.Fprintf(out, "%s %d\n", th.Label.Render("entities"), len(drawing.Entities))
	fmt.Fprintf(out, "%s %d\n\n", th.Label.Render("layers"), len(drawing.LayerNames()))
	fmt.Fprint(out, report.Layers(th, drawing.LayerStats()))
	return nil
}

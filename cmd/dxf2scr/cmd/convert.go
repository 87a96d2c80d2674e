package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/config"
	"github.com/OpenTraceLab/OpenTraceDXF/internal/logger"
	"github.com/OpenTraceLab/OpenTraceDXF/internal/report"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/dxf"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

var (
	convertFlags conversionFlags
	outputPath   string
	strict       bool
	plain        bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.dxf>",
	Short: "Convert a DXF drawing into an editor script",
	Long: `Convert the entities of a DXF drawing into script commands.

Coordinates are transformed as output = input * scale + offset. Splines are
flattened into (control points * spline scalar) points. Entities that cannot
be converted are listed in the summary and do not stop the run.

The output defaults to the input path with .dxf replaced by the dialect's
extension (or the extension appended). Use -o - to write to stdout.

Examples:
  dxf2scr convert board.dxf
  dxf2scr convert -s 2 -t 5,5 -o board.scr board.dxf
  dxf2scr convert -l Outline -l Holes --layer-map Outline=Dimension board.dxf
  dxf2scr convert --dialect kicad -o - board.dxf
  dxf2scr convert --config profile.yaml board.dxf`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertFlags.register(convertCmd)
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"output script, - for stdout (default: input name with the dialect extension)")
	convertCmd.Flags().BoolVar(&strict, "strict", false, "fail when any entity was skipped")
	convertCmd.Flags().BoolVar(&plain, "plain", false, "print the summary without borders or colors")
}

// conversion is a finished run together with the settings it used
type conversion struct {
	profile config.Profile
	dialect script.Dialect
	drawing *dxf.Drawing
	result  *convert.Result
}

// convertFile reads a drawing and converts it with the merged settings
func convertFile(cmd *cobra.Command, flags *conversionFlags, path string) (*conversion, error) {
	profile, err := flags.profile(cmd)
	if err != nil {
		return nil, err
	}
	dialect, err := profile.OutputDialect()
	if err != nil {
		return nil, err
	}
	opts, err := profile.Options(logger.L())
	if err != nil {
		return nil, err
	}
	conv, err := convert.New(opts)
	if err != nil {
		return nil, err
	}

	drawing, err := dxf.NewReader(logger.L()).ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read drawing: %w", err)
	}
	logger.L().Debug("drawing loaded",
		"path", path,
		"version", drawing.Version,
		"entities", len(drawing.Entities),
		"layers", len(drawing.Layers))

	res, err := conv.RunContext(cmd.Context(), drawing.Entities)
	if err != nil {
		return nil, fmt.Errorf("conversion interrupted: %w", err)
	}
	return &conversion{profile: profile, dialect: dialect, drawing: drawing, result: res}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	c, err := convertFile(cmd, &convertFlags, input)
	if err != nil {
		return err
	}

	out := defaultOutput(input, outputPath, c.dialect)
	summary := cmd.OutOrStdout()
	if out == "-" {
		summary = cmd.ErrOrStderr()
		err = c.result.Document.Encode(cmd.OutOrStdout(), c.dialect, c.profile.Format())
	} else {
		err = writeScript(out, c)
	}
	if err != nil {
		return err
	}

	th := report.DefaultTheme()
	if plain {
		th = report.PlainTheme()
	}
	fmt.Fprint(summary, report.Summary(th, c.result, out))

	if strict && len(c.result.Diagnostics) > 0 {
		return fmt.Errorf("%d entities were skipped", len(c.result.Diagnostics))
	}
	return nil
}

// defaultOutput derives the script path from the input path
func defaultOutput(input, output string, d script.Dialect) string {
	if output != "" {
		return output
	}
	ext := filepath.Ext(input)
	if strings.EqualFold(ext, ".dxf") {
		return strings.TrimSuffix(input, ext) + d.Extension()
	}
	return input + d.Extension()
}

func writeScript(path string, c *conversion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := c.result.Document.Encode(f, c.dialect, c.profile.Format()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

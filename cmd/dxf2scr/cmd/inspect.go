package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chewxy/sexp"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/logger"
	"github.com/OpenTraceLab/OpenTraceDXF/pkg/script"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Check that a generated script parses",
	Long: `Parse a generated script and list its commands. Files ending in .scr are
read as EAGLE scripts and listed by verb, after checking the point counts of
wire, circle and text statements. Other files are read as KiCad s-expressions
and listed by head, e.g. gr_line or gr_arc. An error means the file cannot be
run in the editor.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	filename := args[0]
	if strings.EqualFold(filepath.Ext(filename), script.Eagle{}.Extension()) {
		return inspectEagle(cmd.OutOrStdout(), filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	exprs, err := sexp.Parse(file)
	if err != nil {
		return fmt.Errorf("%s: invalid s-expression: %w", filename, err)
	}

	heads := make(map[string]int)
	atoms := 0
	for _, s := range exprs {
		if s == nil {
			continue
		}
		if s.IsLeaf() {
			atoms++
			continue
		}
		heads[fmt.Sprint(s.Head())]++
	}
	logger.L().Debug("script parsed", "path", filename, "expressions", len(exprs), "atoms", atoms)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d expressions\n", filename, len(exprs))
	printCounts(out, heads)
	if atoms > 0 {
		fmt.Fprintf(out, "  %-12s %d\n", "(atoms)", atoms)
	}
	return nil
}

func inspectEagle(out io.Writer, filename string) error {
	p, err := script.NewEagleParser()
	if err != nil {
		return err
	}
	s, err := p.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("%s: invalid EAGLE script: %w", filename, err)
	}
	if err := s.Check(); err != nil {
		return fmt.Errorf("invalid EAGLE script: %w", err)
	}
	logger.L().Debug("script parsed", "path", filename, "statements", len(s.Statements))

	fmt.Fprintf(out, "%s: %d statements\n", filename, len(s.Statements))
	printCounts(out, s.Count())
	return nil
}

func printCounts(out io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s %d\n", name, counts[name])
	}
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceDXF/internal/logger"
)

var (
	// Global flags
	debug   bool
	logFile string

	cleanupLogger func() error
)

var rootCmd = &cobra.Command{
	Use:   "dxf2scr",
	Short: "Convert DXF drawings into PCB editor scripts",
	Long: `dxf2scr converts the lines, arcs, circles, polylines, splines and text of a
DXF drawing into a script for a PCB editor. EAGLE scripts (.scr) are the
default; KiCad board graphics can be emitted with --dialect kicad.

Examples:
  dxf2scr convert outline.dxf                          # Write outline.scr
  dxf2scr convert -s 39.37 -t 100,50 -l Outline a.dxf  # Scale, offset, one layer
  dxf2scr layers outline.dxf                           # List layers and entity counts
  dxf2scr preview outline.dxf                          # Show the converted result`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := closeLogger(); err != nil {
			return err
		}
		cleanup, err := logger.Setup(logger.Config{Debug: debug, File: logFile, Writer: cmd.ErrOrStderr()})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		cleanupLogger = cleanup
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogger()
	},
}

// closeLogger releases the logger installed by the previous run, if any
func closeLogger() error {
	if cleanupLogger == nil {
		return nil
	}
	err := cleanupLogger()
	cleanupLogger = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every filtered and skipped entity")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write a JSON log to this file")
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trackset",
	Short: "Connection geometry for track and rail lighting scenes",
	Long: `Solve where catalog components land when their connection points are
attached, check point compatibility, and repair point collections.

Examples:
  trackset solve examples/ceiling.lisp             # Print solved poses
  trackset solve --room 4x4x2.5 --trace wall.lisp  # Custom room, trace solves
  trackset place scene.lisp lamp --origin 0,5,0 --dir 0,-1,0  # Add a point by ray
  trackset heal points.json                        # Drop invalid point entries
  trackset compat track accessory                  # Check two point types`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

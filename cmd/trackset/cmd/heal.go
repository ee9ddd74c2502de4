package cmd

import (
	"fmt"
	"os"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/spf13/cobra"
)

var healOutput string

var healCmd = &cobra.Command{
	Use:   "heal <points.json>",
	Short: "Drop invalid entries from a connection point collection",
	Long: `Read a JSON array of connection points, drop entries that are not
objects or have no id, and print the cleaned collection.

Examples:
  trackset heal points.json
  trackset heal -o clean.json points.json`,
	Args: cobra.ExactArgs(1),
	RunE: runHeal,
}

func init() {
	rootCmd.AddCommand(healCmd)

	healCmd.Flags().StringVarP(&healOutput, "output", "o", "",
		"write the cleaned collection to a file instead of stdout")
}

func runHeal(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read points: %w", err)
	}

	points, dropped, err := catalog.DecodePoints(data)
	if err != nil {
		return fmt.Errorf("failed to decode points: %w", err)
	}
	out, err := catalog.EncodePoints(points)
	if err != nil {
		return fmt.Errorf("failed to encode points: %w", err)
	}

	if healOutput != "" {
		if err := os.WriteFile(healOutput, append(out, '\n'), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", healOutput, err)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	if verbose || dropped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "kept %d point(s), dropped %d\n", len(points), dropped)
	}
	return nil
}

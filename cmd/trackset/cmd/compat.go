package cmd

import (
	"fmt"
	"strings"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/spf13/cobra"
)

var compatCmd = &cobra.Command{
	Use:   "compat <type> <type>",
	Short: "Check whether two connection point types may join",
	Long: `Report whether points of the two given types are compatible under the
built-in rules. Known types: power, mechanical, data, track, mounting,
accessory.

Examples:
  trackset compat track accessory
  trackset compat power data`,
	Args: cobra.ExactArgs(2),
	RunE: runCompat,
}

func init() {
	rootCmd.AddCommand(compatCmd)
}

func runCompat(cmd *cobra.Command, args []string) error {
	var points [2]catalog.ConnectionPoint
	for i, arg := range args {
		t := catalog.PointType(strings.ToLower(arg))
		if !t.Valid() {
			return fmt.Errorf("unknown point type %q", arg)
		}
		points[i] = catalog.ConnectionPoint{ID: arg, Type: t}
	}

	verdict := "incompatible"
	if connect.AreCompatible(points[0], points[1]) {
		verdict = "compatible"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s + %s: %s\n", points[0].Type, points[1].Type, verdict)
	return nil
}

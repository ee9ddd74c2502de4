package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/trackset"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/spf13/cobra"
)

var (
	solveRoom     string
	solveLength   float64
	solveMeasured bool
	solveTrace    bool
	solveJSON     bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <scene>",
	Short: "Attach the components of a scene and print their poses",
	Long: `Evaluate a scene script, run its attachments in order and print where
each attached component was placed. Attachment problems and unconnected
required points are printed as warnings.

A (room ...) form in the scene overrides --room.

Examples:
  trackset solve examples/ceiling.lisp
  trackset solve --room 4x4x2.5 --measured examples/wall.lisp
  trackset solve --trace --json examples/ceiling.lisp`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)

	solveCmd.Flags().StringVar(&solveRoom, "room", "",
		"room envelope as WIDTHxLENGTHxHEIGHT in meters (default 8x6x3)")
	solveCmd.Flags().Float64Var(&solveLength, "length", connect.DefaultComponentLength,
		"rail length assumed by the boundary check")
	solveCmd.Flags().BoolVar(&solveMeasured, "measured", false,
		"use each rail's own size for the boundary check")
	solveCmd.Flags().BoolVar(&solveTrace, "trace", false,
		"log one line per solve to stderr")
	solveCmd.Flags().BoolVar(&solveJSON, "json", false,
		"print the full result as JSON")
}

func runSolve(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scene: %w", err)
	}

	opts := []connect.Option{connect.WithComponentLength(solveLength)}
	if solveRoom != "" {
		room, err := parseRoom(solveRoom)
		if err != nil {
			return err
		}
		opts = append(opts, connect.WithRoom(room))
	}
	if solveMeasured {
		opts = append(opts, connect.WithMeasuredLength())
	}
	logger := log.New(cmd.ErrOrStderr(), "", 0)
	if solveTrace {
		opts = append(opts, connect.WithTracer(connect.LogTracer(logger)))
	}

	app := trackset.NewApp(
		trackset.WithoutMeshes(),
		trackset.WithSolverOptions(opts...),
		trackset.WithLogger(logger),
	)
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "Solving scene: %s\n", args[0])
	}
	result := app.Evaluate(string(source))

	out := cmd.OutOrStdout()
	if solveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printResult(cmd, result)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %d error(s)", args[0], len(result.Errors))
	}
	return nil
}

func printResult(cmd *cobra.Command, result trackset.EvalResult) {
	out := cmd.OutOrStdout()
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(out, "error: line %d: %s\n", e.Line, e.Message)
		} else {
			fmt.Fprintf(out, "error: %s\n", e.Message)
		}
	}
	if len(result.Errors) > 0 {
		return
	}

	fmt.Fprintf(out, "Connections: %d\n", len(result.Connections))
	for _, c := range result.Connections {
		fmt.Fprintf(out, "  %-24s -> %-24s pos=%v rot=%v\n",
			c.Candidate+"."+c.CandidatePoint, c.Anchor+"."+c.AnchorPoint,
			c.Pose.Position, c.Pose.Rotation)
	}
	if verbose {
		fmt.Fprintf(out, "Components: %d\n", len(result.Components))
		for _, c := range result.Components {
			fmt.Fprintf(out, "  %-24s %-20s pos=%v rot=%v\n", c.ID, c.Type, c.Position, c.Rotation)
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "Warnings: %d\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  %s\n", w.Message)
		}
	}
}

// parseRoom parses WIDTHxLENGTHxHEIGHT.
func parseRoom(s string) (connect.Room, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 3 {
		return connect.Room{}, fmt.Errorf("invalid room %q: want WIDTHxLENGTHxHEIGHT", s)
	}
	var dims [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return connect.Room{}, fmt.Errorf("invalid room %q: %w", s, err)
		}
		if v <= 0 {
			return connect.Room{}, fmt.Errorf("invalid room %q: dimensions must be positive", s)
		}
		dims[i] = v
	}
	return connect.Room{Width: dims[0], Length: dims[1], Height: dims[2]}, nil
}

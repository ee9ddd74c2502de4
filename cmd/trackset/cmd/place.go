package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/trackset"
	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/geom"
	"github.com/chazu/trackset/pkg/kernel"
	"github.com/chazu/trackset/pkg/kernel/sdfx"
	"github.com/chazu/trackset/pkg/placement"
	"github.com/chazu/trackset/pkg/tessellate"
	"github.com/spf13/cobra"
)

var (
	placeOrigin string
	placeDir    string
	placeType   string
	placeID     string
)

var placeCmd = &cobra.Command{
	Use:   "place <scene> <component>",
	Short: "Add a connection point where a ray hits a component",
	Long: `Solve a scene, cast a world-space ray at one of its components and add
a connection point at the hit. Hits near a face center snap to it.
Prints the component's resulting point collection as JSON.

Examples:
  trackset place examples/ceiling.lisp spot --origin 0,5,0 --dir 0,-1,0
  trackset place --type power --id feed-2 scene.lisp lamp --origin 2,1,0 --dir -1,0,0`,
	Args: cobra.ExactArgs(2),
	RunE: runPlace,
}

func init() {
	rootCmd.AddCommand(placeCmd)

	placeCmd.Flags().StringVar(&placeOrigin, "origin", "",
		"ray origin in world space as x,y,z")
	placeCmd.Flags().StringVar(&placeDir, "dir", "",
		"ray direction in world space as x,y,z")
	placeCmd.Flags().StringVar(&placeType, "type", string(catalog.PointMechanical),
		"type of the new point")
	placeCmd.Flags().StringVar(&placeID, "id", "",
		"id of the new point (default: a generated uuid)")
	_ = placeCmd.MarkFlagRequired("origin")
	_ = placeCmd.MarkFlagRequired("dir")
}

func runPlace(cmd *cobra.Command, args []string) error {
	origin, err := parseVec3(placeOrigin)
	if err != nil {
		return fmt.Errorf("invalid --origin: %w", err)
	}
	dir, err := parseVec3(placeDir)
	if err != nil {
		return fmt.Errorf("invalid --dir: %w", err)
	}
	if dir == geom.Zero {
		return fmt.Errorf("invalid --dir: direction must be non-zero")
	}
	pointType := catalog.PointType(strings.ToLower(placeType))
	if !pointType.Valid() {
		return fmt.Errorf("unknown point type %q", placeType)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scene: %w", err)
	}
	result := trackset.NewApp(trackset.WithoutMeshes()).Evaluate(string(source))
	if len(result.Errors) > 0 {
		return fmt.Errorf("%s: %s", args[0], result.Errors[0].Message)
	}
	var target *catalog.Component
	for i := range result.Components {
		if result.Components[i].ID == args[1] {
			target = &result.Components[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("scene has no component %q", args[1])
	}

	mesh, err := tessellate.LocalMesh(sdfx.New(), *target)
	if err != nil {
		return err
	}
	opts := []placement.Option{placement.WithDefaultType(pointType)}
	if placeID != "" {
		id := placeID
		opts = append(opts, placement.WithIDGenerator(func() string { return id }))
	}
	session := placement.NewSession(*target, opts...)
	if err := session.BeginPlacement(); err != nil {
		return err
	}
	in := kernel.MeshIntersector{Mesh: mesh, Placement: target.Placement()}
	p, ok := session.Cast(in, geom.Ray{Origin: origin, Direction: dir})
	if !ok {
		return fmt.Errorf("ray from %v along %v missed %s", origin, dir, target.ID)
	}
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "placed %s (%s) at %v\n", p.ID, p.Name, p.Position)
	}

	points, err := session.Save()
	if err != nil {
		return err
	}
	out, err := catalog.EncodePoints(points)
	if err != nil {
		return fmt.Errorf("failed to encode points: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// parseVec3 parses x,y,z.
func parseVec3(s string) (geom.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.Vec3{}, fmt.Errorf("%q: want x,y,z", s)
	}
	var v geom.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("%q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}

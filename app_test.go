package trackset

import (
	"os"
	"testing"

	"github.com/chazu/trackset/pkg/geom"
)

// TestE2ECeilingExample exercises the full pipeline: script -> engine ->
// scene -> assembly -> tessellate -> meshes.
func TestE2ECeilingExample(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/ceiling.lisp")
	if err != nil {
		t.Fatalf("failed to read ceiling.lisp: %v", err)
	}

	result := app.Evaluate(string(source))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	if len(result.Connections) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(result.Connections))
	}
	for _, c := range result.Connections[:2] {
		if c.Anchor != "hub" || c.AnchorPoint != "down" {
			t.Errorf("rail connection %s.%s attached to %s.%s", c.Candidate, c.CandidatePoint, c.Anchor, c.AnchorPoint)
		}
		// Hung 0.1 below a hub at 2.5, rotated horizontal.
		if c.Pose.Position[1] != 2.6 {
			t.Errorf("%s: y = %v, want 2.6", c.Candidate, c.Pose.Position[1])
		}
		if c.Pose.Rotation != (geom.Vec3{geom.Round(1.5707963267948966), 0, 0}) {
			t.Errorf("%s: rotation = %v, want horizontal", c.Candidate, c.Pose.Rotation)
		}
	}
	spot := result.Connections[2]
	if spot.Candidate != "spot" || spot.CandidatePoint != "clip" {
		t.Errorf("expected spot to attach by its clip, got %s.%s", spot.Candidate, spot.CandidatePoint)
	}

	if len(result.Unsatisfied) != 1 || result.Unsatisfied[0] != "spot.feed" {
		t.Errorf("expected unsatisfied [spot.feed], got %v", result.Unsatisfied)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}

	expected := map[string]bool{
		"hub":    false,
		"rail-a": false,
		"rail-b": false,
		"spot":   false,
	}
	if len(result.Meshes) != len(expected) {
		t.Fatalf("expected %d meshes, got %d", len(expected), len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if _, ok := expected[m.ComponentID]; !ok {
			t.Errorf("unexpected component id: %q", m.ComponentID)
			continue
		}
		expected[m.ComponentID] = true

		if len(m.Vertices) == 0 {
			t.Errorf("component %q: no vertices", m.ComponentID)
		}
		if len(m.Normals) == 0 {
			t.Errorf("component %q: no normals", m.ComponentID)
		}
		if len(m.Indices) == 0 {
			t.Errorf("component %q: no indices", m.ComponentID)
		}
		if m.Color == "" {
			t.Errorf("component %q: no color assigned", m.ComponentID)
		}
	}
	for id, found := range expected {
		if !found {
			t.Errorf("missing mesh for component %q", id)
		}
	}
}

// TestE2EPlacedComponents checks that returned components carry the
// solved poses, not the script poses.
func TestE2EPlacedComponents(t *testing.T) {
	app := NewApp(WithoutMeshes())

	source, err := os.ReadFile("examples/ceiling.lisp")
	if err != nil {
		t.Fatalf("failed to read ceiling.lisp: %v", err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected no meshes with WithoutMeshes, got %d", len(result.Meshes))
	}
	if len(result.Components) != 4 {
		t.Fatalf("expected 4 components, got %d", len(result.Components))
	}

	order := []string{"hub", "rail-a", "rail-b", "spot"}
	for i, c := range result.Components {
		if c.ID != order[i] {
			t.Errorf("component %d = %q, want %q", i, c.ID, order[i])
		}
	}
	hub := result.Components[0]
	if hub.Position != (geom.Vec3{1, 2.5, 0}) {
		t.Errorf("anchor moved: %v", hub.Position)
	}
	for _, c := range result.Components[1:3] {
		if c.Position != result.Connections[0].Pose.Position {
			t.Errorf("%s: position %v does not match solved pose %v", c.ID, c.Position, result.Connections[0].Pose.Position)
		}
	}
}

// TestE2EWallExample checks the boundary fallback through the pipeline.
func TestE2EWallExample(t *testing.T) {
	app := NewApp(WithoutMeshes())

	source, err := os.ReadFile("examples/wall.lisp")
	if err != nil {
		t.Fatalf("failed to read wall.lisp: %v", err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d: %v", len(result.Connections), result.Warnings)
	}

	run := result.Connections[0].Pose
	if run.Rotation != (geom.Vec3{geom.Round(1.5707963267948966), 0, 0}) {
		t.Errorf("run should stay horizontal, got %v", run.Rotation)
	}
	pipe := result.Connections[1].Pose
	if pipe.Rotation != geom.Zero {
		t.Errorf("pipe near the wall should fall back to vertical, got %v", pipe.Rotation)
	}
	if pipe.Position != (geom.Vec3{3.9, 1.6, 0}) {
		t.Errorf("pipe position = %v, want [3.9 1.6 0]", pipe.Position)
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(component \"test\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

// TestE2ESingleComponent ensures a minimal single-component source renders one mesh.
func TestE2ESingleComponent(t *testing.T) {
	app := NewApp()
	source := `(component "box" :type "enclosure" :size (vec3 0.3 0.2 0.1))`
	result := app.Evaluate(source)

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error: %s", e.Message)
		}
		t.FailNow()
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(result.Meshes))
	}
	if result.Meshes[0].ComponentID != "box" {
		t.Errorf("expected component id 'box', got %q", result.Meshes[0].ComponentID)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/trackset"
	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/chazu/trackset/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseRoom(t *testing.T) {
	tests := []struct {
		in      string
		want    connect.Room
		wantErr bool
	}{
		{in: "8x6x3", want: connect.Room{Width: 8, Length: 6, Height: 3}},
		{in: "4X4X2.5", want: connect.Room{Width: 4, Length: 4, Height: 2.5}},
		{in: " 3 x 3 x 3 ", want: connect.Room{Width: 3, Length: 3, Height: 3}},
		{in: "8x6", wantErr: true},
		{in: "8x6xtall", wantErr: true},
		{in: "8x0x3", wantErr: true},
		{in: "-1x6x3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRoom(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompatCommand(t *testing.T) {
	out, _, err := run(t, "compat", "track", "Accessory")
	require.NoError(t, err)
	assert.Equal(t, "track + accessory: compatible\n", out)

	out, _, err = run(t, "compat", "power", "data")
	require.NoError(t, err)
	assert.Equal(t, "power + data: incompatible\n", out)

	_, _, err = run(t, "compat", "power", "laser")
	assert.ErrorContains(t, err, `unknown point type "laser"`)
}

func TestHealCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.json")
	payload := `[
  {"id": "a", "name": "A", "type": "track"},
  "garbage",
  {"name": "no id", "type": "power"},
  {"id": "b", "name": "B", "type": "power", "maxConnections": -1}
]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	out, stderr, err := run(t, "heal", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "kept 2 point(s), dropped 2")

	var points []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	require.Len(t, points, 2)
	assert.Equal(t, "a", points[0]["id"])
	assert.Equal(t, "b", points[1]["id"])
	assert.EqualValues(t, -1, points[1]["maxConnections"])
}

func TestSolveCommandJSON(t *testing.T) {
	out, stderr, err := run(t, "solve", "--json", "--trace", filepath.Join("..", "..", "..", "examples", "ceiling.lisp"))
	require.NoError(t, err)

	var result trackset.EvalResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Empty(t, result.Errors)
	require.Len(t, result.Connections, 3)
	assert.Equal(t, "rail-a", result.Connections[0].Candidate)
	assert.Equal(t, 2.6, result.Connections[0].Pose.Position[1])
	assert.Equal(t, []string{"spot.feed"}, result.Unsatisfied)
	assert.Empty(t, result.Meshes)

	assert.Contains(t, stderr, "rail-a.end -> hub.down")
	assert.Contains(t, stderr, "ceiling=true")
}

func TestSolveCommandMissingFile(t *testing.T) {
	_, _, err := run(t, "solve", filepath.Join(t.TempDir(), "nope.lisp"))
	assert.ErrorContains(t, err, "failed to read scene")
}

func TestParseVec3(t *testing.T) {
	v, err := parseVec3(" 1, -2.5 ,0")
	require.NoError(t, err)
	assert.Equal(t, geom.Vec3{1, -2.5, 0}, v)

	_, err = parseVec3("1,2")
	assert.Error(t, err)
	_, err = parseVec3("1,2,z")
	assert.Error(t, err)
}

func writeScene(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.lisp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestPlaceCommand(t *testing.T) {
	scene := writeScene(t, `(component "box" :type "enclosure" :at (vec3 1 1 0)
  (point "existing" :type :mounting :at (vec3 0 -0.25 0)))`)

	out, _, err := run(t, "place", scene, "box",
		"--origin", "1.03,1.02,5", "--dir", "0,0,-1", "--type", "Power", "--id", "feed")
	require.NoError(t, err)

	var points []catalog.ConnectionPoint
	require.NoError(t, json.Unmarshal([]byte(out), &points))
	require.Len(t, points, 2)
	assert.Equal(t, "existing", points[0].ID)

	p := points[1]
	assert.Equal(t, "feed", p.ID)
	assert.Equal(t, catalog.PointPower, p.Type)
	assert.Equal(t, "Back Connection", p.Name)
	assert.Equal(t, geom.Vec3{0, 0, 0.15}, p.Position)
	assert.NotNil(t, p.FaceReference)
}

func TestPlaceCommandErrors(t *testing.T) {
	scene := writeScene(t, `(component "box" :type "enclosure")`)

	_, _, err := run(t, "place", scene, "box", "--origin", "10,10,10", "--dir", "0,0,-1", "--type", "mechanical")
	assert.ErrorContains(t, err, "missed box")

	_, _, err = run(t, "place", scene, "lamp", "--origin", "0,0,5", "--dir", "0,0,-1", "--type", "mechanical")
	assert.ErrorContains(t, err, `no component "lamp"`)

	_, _, err = run(t, "place", scene, "box", "--origin", "0,0,5", "--dir", "0,0,0", "--type", "mechanical")
	assert.ErrorContains(t, err, "non-zero")

	_, _, err = run(t, "place", scene, "box", "--origin", "0,0,5", "--dir", "0,0,-1", "--type", "laser")
	assert.ErrorContains(t, err, "unknown point type")
}

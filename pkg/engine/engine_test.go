package engine

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chazu/trackset/pkg/assembly"
	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/chazu/trackset/pkg/geom"
)

func readExample(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile("../../examples/" + name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(src)
}

func TestEvaluateWallExample(t *testing.T) {
	scene := evalScene(t, readExample(t, "wall.lisp"))

	wantRoom := connect.Room{Width: 4, Length: 4, Height: 2.5}
	if scene.Room == nil || *scene.Room != wantRoom {
		t.Errorf("room = %v, want %v", scene.Room, wantRoom)
	}

	ids := make([]string, len(scene.Components))
	for i, c := range scene.Components {
		ids[i] = c.ID
	}
	if want := []string{"feed", "run", "edge", "pipe"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("component ids = %v, want %v", ids, want)
	}

	feed := scene.Components[0]
	if feed.Type != "wall-connector" || feed.Position != (geom.Vec3{0.5, 1, 0}) {
		t.Errorf("unexpected feed: %+v", feed)
	}
	if len(feed.Points) != 1 || feed.Points[0].Position != (geom.Vec3{0.1, 0, 0}) {
		t.Errorf("unexpected feed points: %+v", feed.Points)
	}
	pipe := scene.Components[3]
	if pipe.Dimensions != (geom.Vec3{0.05, 1.2, 0.05}) {
		t.Errorf("pipe size = %v", pipe.Dimensions)
	}
	if len(pipe.Points) != 1 || pipe.Points[0].Type != catalog.PointTrack {
		t.Errorf("unexpected pipe points: %+v", pipe.Points)
	}

	want := []assembly.Attachment{
		{Candidate: "run", CandidatePoint: "end", Anchor: "feed", AnchorPoint: "out"},
		{Candidate: "pipe", CandidatePoint: "end", Anchor: "edge", AnchorPoint: "out"},
	}
	if !reflect.DeepEqual(scene.Attachments, want) {
		t.Errorf("attachments = %v, want %v", scene.Attachments, want)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	source := readExample(t, "ceiling.lisp")

	first, evalErrs, err := eng.Evaluate(source)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("first evaluation failed: %v %v", err, evalErrs)
	}
	for i := 0; i < 5; i++ {
		scene, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if !reflect.DeepEqual(scene, first) {
			t.Errorf("iteration %d: scene differs from the first evaluation", i)
		}
	}
}

func TestEvaluateFreshSandbox(t *testing.T) {
	eng := NewEngine()

	scene, _, err := eng.Evaluate(`(def w 0.5) (component "a" :size (vec3 w w w))`)
	if err != nil || scene == nil || len(scene.Components) != 1 {
		t.Fatalf("first evaluation failed: %v", err)
	}

	// Neither the component nor the definition survives into the next run.
	scene, evalErrs, err := eng.Evaluate(`(component "a" :type "track")`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("re-declaring a component in a new run failed: %v %v", err, evalErrs)
	}
	if len(scene.Components) != 1 || scene.Components[0].Type != "track" {
		t.Errorf("unexpected scene: %+v", scene.Components)
	}

	_, evalErrs, err = eng.Evaluate(`(component "b" :size (vec3 w 1 1))`)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) == 0 {
		t.Error("expected an eval error for a definition from an earlier run")
	}
}

func TestEvaluateErrorDiscardsPartialScene(t *testing.T) {
	source := `
(component "hub" :type "ceiling-connector" (point "down" :type :track))
(component "rail" :type "track" (point "end" :type :track))
(attach "rail" :to "hub")
`
	scene, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if scene != nil {
		t.Fatalf("expected nil scene, got %d components", len(scene.Components))
	}
	if len(evalErrs) == 0 || !strings.Contains(evalErrs[0].Message, "missing :at") {
		t.Errorf("expected missing :at error, got %v", evalErrs)
	}
}

func TestEvaluateSyntaxErrorHasLineInfo(t *testing.T) {
	source := "(component \"hub\" :type \"connector\")\n(component \"rail\""
	scene, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if scene != nil {
		t.Fatal("expected nil scene on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	e := evalErrs[0]
	if e.Message == "" {
		t.Error("eval error message should not be empty")
	}
	t.Logf("line=%d, message=%q", e.Line, e.Message)
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Message: "attach rail: missing :to"}
	if s := e.Error(); s != "line 5: attach rail: missing :to" {
		t.Errorf("Error() = %q", s)
	}
	e2 := EvalError{Message: "no location"}
	if s := e2.Error(); s != "no location" {
		t.Errorf("Error() without line = %q", s)
	}
}

func TestWithTimeout(t *testing.T) {
	if got := NewEngine().timeout; got != DefaultTimeout {
		t.Errorf("default timeout = %s, want %s", got, DefaultTimeout)
	}
	if got := NewEngine(WithTimeout(time.Second)).timeout; got != time.Second {
		t.Errorf("timeout = %s, want 1s", got)
	}
	if got := NewEngine(WithTimeout(-1)).timeout; got != DefaultTimeout {
		t.Errorf("non-positive timeout should keep the default, got %s", got)
	}
}

func TestAwaitTimeout(t *testing.T) {
	var tk tickets
	ticket := tk.issue()
	ch := make(chan outcome) // never sends

	start := time.Now()
	scene, _, err := tk.await(ch, ticket, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if scene != nil {
		t.Error("expected nil scene on timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("await took %s", elapsed)
	}
}

func TestAwaitDropsSupersededScene(t *testing.T) {
	scene := evalScene(t, readExample(t, "ceiling.lisp"))

	var tk tickets
	stale := tk.issue()
	latest := tk.issue()

	ch := make(chan outcome, 1)
	ch <- outcome{scene: scene}
	got, _, err := tk.await(ch, stale, time.Second)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if got != nil {
		t.Error("a superseded evaluation must not deliver its scene")
	}

	ch <- outcome{scene: scene}
	got, _, err = tk.await(ch, latest, time.Second)
	if err != nil {
		t.Fatalf("latest evaluation failed: %v", err)
	}
	if got != scene || len(got.Components) != 4 || len(got.Attachments) != 3 {
		t.Errorf("latest evaluation should deliver the ceiling scene, got %+v", got)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short form", "line 3: attach rail: missing :to", 3, "attach rail: missing :to"},
		{"no line info", "component: id must not be empty", 0, "component: id must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %d", len(errs))
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if errs[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}

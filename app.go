package trackset

import (
	"errors"
	"fmt"
	"log"

	"github.com/chazu/trackset/pkg/assembly"
	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/chazu/trackset/pkg/engine"
	"github.com/chazu/trackset/pkg/geom"
	"github.com/chazu/trackset/pkg/kernel"
	"github.com/chazu/trackset/pkg/kernel/sdfx"
	"github.com/chazu/trackset/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to components.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App evaluates scene scripts end to end: script -> scene -> assembly ->
// meshes.
type App struct {
	engine     evaluator
	kernel     kernel.Kernel
	solverOpts []connect.Option
	logger     *log.Logger
	meshes     bool
}

// evaluator turns script source into a scene.
type evaluator interface {
	Evaluate(source string) (*assembly.Scene, []engine.EvalError, error)
}

// Option configures an App.
type Option func(*App)

// WithKernel sets the geometry kernel used for meshes.
func WithKernel(k kernel.Kernel) Option {
	return func(a *App) { a.kernel = k }
}

// WithSolverOptions adds options applied to every solver the App builds.
// A room declared in the script is applied after these.
func WithSolverOptions(opts ...connect.Option) Option {
	return func(a *App) { a.solverOpts = append(a.solverOpts, opts...) }
}

// WithLogger sets the logger for fatal evaluation errors.
func WithLogger(l *log.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithoutMeshes skips tessellation.
func WithoutMeshes() Option {
	return func(a *App) { a.meshes = false }
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices    []float32 `json:"vertices"`
	Normals     []float32 `json:"normals"`
	Indices     []uint32  `json:"indices"`
	ComponentID string    `json:"componentId"`
	Color       string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ConnectionData is one completed attachment.
type ConnectionData struct {
	Anchor         string    `json:"anchor"`
	AnchorPoint    string    `json:"anchorPoint"`
	Candidate      string    `json:"candidate"`
	CandidatePoint string    `json:"candidatePoint"`
	Pose           geom.Pose `json:"pose"`
}

// EvalResult is the full result of one evaluation. Slices are never nil.
type EvalResult struct {
	Components  []catalog.Component `json:"components"`
	Connections []ConnectionData    `json:"connections"`
	Unsatisfied []string            `json:"unsatisfied"`
	Meshes      []MeshData          `json:"meshes"`
	Errors      []EvalErrorData     `json:"errors"`
	Warnings    []EvalErrorData     `json:"warnings"`
}

// NewApp creates an App with an engine and the sdfx kernel.
func NewApp(opts ...Option) *App {
	a := &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		logger: log.Default(),
		meshes: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Evaluate runs a scene script and returns the placed components,
// connections and meshes. Script errors stop the pipeline; attachment
// problems are reported as warnings and the rest of the scene still
// builds.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Components:  []catalog.Component{},
		Connections: []ConnectionData{},
		Unsatisfied: []string{},
		Meshes:      []MeshData{},
		Errors:      []EvalErrorData{},
		Warnings:    []EvalErrorData{},
	}

	// Step 1: Evaluate the script into a scene.
	scene, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// A newer evaluation owns the result; nothing went wrong.
		if !errors.Is(err, engine.ErrSuperseded) {
			a.logger.Printf("Evaluate fatal error: %v", err)
		}
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 2: Resolve attachments against an in-memory catalog.
	store := catalog.NewMemStore()
	asm := assembly.New(store, a.solver(scene))
	report, err := asm.Build(*scene)
	if err != nil {
		a.logger.Printf("Assembly error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	unsatisfied := asm.Unsatisfied()
	result.Warnings = append(result.Warnings, warnings(scene, report, unsatisfied)...)
	for _, c := range report.Connections {
		result.Connections = append(result.Connections, ConnectionData{
			Anchor:         c.Anchor,
			AnchorPoint:    c.AnchorPoint,
			Candidate:      c.Candidate,
			CandidatePoint: c.CandidatePoint,
			Pose:           c.Pose,
		})
	}
	for _, ref := range unsatisfied {
		result.Unsatisfied = append(result.Unsatisfied, ref.String())
	}

	// Step 3: Collect placed components in script order.
	for _, c := range scene.Components {
		placed, err := store.Get(c.ID)
		if err != nil {
			continue
		}
		result.Components = append(result.Components, placed)
	}
	if !a.meshes {
		return result
	}

	// Step 4: Tessellate placed components into triangle meshes.
	meshes, err := tessellate.Tessellate(result.Components, a.kernel)
	if err != nil {
		a.logger.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:    m.Vertices,
			Normals:     m.Normals,
			Indices:     m.Indices,
			ComponentID: m.ComponentID,
			Color:       colorPalette[i%len(colorPalette)],
		})
	}

	return result
}

func (a *App) solver(scene *assembly.Scene) *connect.Solver {
	opts := append([]connect.Option(nil), a.solverOpts...)
	if scene.Room != nil {
		opts = append(opts, connect.WithRoom(*scene.Room))
	}
	return connect.NewSolver(opts...)
}

// warnings flattens a build report into messages, in component order.
func warnings(scene *assembly.Scene, report assembly.Report, unsatisfied []assembly.PointRef) []EvalErrorData {
	var out []EvalErrorData
	for _, f := range report.Findings {
		out = append(out, EvalErrorData{Message: f.Error()})
	}
	for _, c := range scene.Components {
		if n := report.Healed[c.ID]; n > 0 {
			out = append(out, EvalErrorData{
				Message: fmt.Sprintf("component %q: dropped %d invalid connection point(s)", c.ID, n),
			})
		}
	}
	for _, issue := range report.Issues {
		out = append(out, EvalErrorData{Message: issue.Error()})
	}
	for _, ref := range unsatisfied {
		out = append(out, EvalErrorData{Message: fmt.Sprintf("required point %s is not connected", ref)})
	}
	return out
}

// Package assembly runs the attach workflow on top of a catalog store:
// it resolves the points to join, enforces compatibility and capacity,
// asks the solver for a pose and persists the moved component.
package assembly

import (
	"errors"
	"fmt"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/chazu/trackset/pkg/geom"
)

var (
	ErrUnknownComponent = errors.New("assembly: unknown component")
	ErrUnknownPoint     = errors.New("assembly: unknown point")
	ErrIncompatible     = errors.New("assembly: incompatible points")
	ErrCapacity         = errors.New("assembly: point at capacity")
	ErrInvalidComponent = errors.New("assembly: component fails validation")
	ErrSelfAttach       = errors.New("assembly: component attached to itself")
)

// Attachment asks for Candidate to be moved so that CandidatePoint meets
// AnchorPoint on Anchor. An empty CandidatePoint lets the assembler pick
// the best compatible point.
type Attachment struct {
	Candidate      string `json:"candidate"`
	CandidatePoint string `json:"candidatePoint,omitempty"`
	Anchor         string `json:"anchor"`
	AnchorPoint    string `json:"anchorPoint"`
}

func (a Attachment) String() string {
	via := a.CandidatePoint
	if via == "" {
		via = "*"
	}
	return fmt.Sprintf("%s.%s -> %s.%s", a.Candidate, via, a.Anchor, a.AnchorPoint)
}

// Scene is a set of components plus the attachments to run on them, in
// order. A nil Room means the solver's own envelope.
type Scene struct {
	Components  []catalog.Component `json:"components"`
	Attachments []Attachment        `json:"attachments"`
	Room        *connect.Room       `json:"room,omitempty"`
}

// Connection is a completed attachment.
type Connection struct {
	Anchor         string    `json:"anchor"`
	AnchorPoint    string    `json:"anchorPoint"`
	Candidate      string    `json:"candidate"`
	CandidatePoint string    `json:"candidatePoint"`
	Pose           geom.Pose `json:"pose"`
}

// PointRef names a point on a component.
type PointRef struct {
	Component string `json:"component"`
	Point     string `json:"point"`
}

func (r PointRef) String() string { return r.Component + "." + r.Point }

// Assembler applies attachments against a store. It is not safe for
// concurrent use; the store may be shared.
type Assembler struct {
	store       catalog.Store
	solver      *connect.Solver
	connections []Connection
	used        map[PointRef]int
}

// New returns an Assembler. A nil solver uses connect's defaults.
func New(store catalog.Store, solver *connect.Solver) *Assembler {
	if solver == nil {
		solver = connect.NewSolver()
	}
	return &Assembler{
		store:  store,
		solver: solver,
		used:   make(map[PointRef]int),
	}
}

// Connections returns the attachments completed so far, in order.
func (a *Assembler) Connections() []Connection {
	return append([]Connection(nil), a.connections...)
}

// Used returns how many connections a point currently has.
func (a *Assembler) Used(component, point string) int {
	return a.used[PointRef{Component: component, Point: point}]
}

// Attach performs one attachment and persists the candidate's new pose.
func (a *Assembler) Attach(att Attachment) (Connection, error) {
	if att.Anchor == att.Candidate {
		return Connection{}, fmt.Errorf("%w: %s", ErrSelfAttach, att)
	}
	anchor, err := a.load(att.Anchor)
	if err != nil {
		return Connection{}, err
	}
	candidate, err := a.load(att.Candidate)
	if err != nil {
		return Connection{}, err
	}

	ap, ok := anchor.Point(att.AnchorPoint)
	if !ok {
		return Connection{}, fmt.Errorf("%w: %s has no point %q", ErrUnknownPoint, anchor.ID, att.AnchorPoint)
	}
	var cp catalog.ConnectionPoint
	if att.CandidatePoint == "" {
		cp, ok = connect.BestPoint(ap, candidate)
		if !ok {
			return Connection{}, fmt.Errorf("%w: %s has no point compatible with %s", ErrIncompatible, candidate.ID, ap.Type)
		}
	} else {
		cp, ok = candidate.Point(att.CandidatePoint)
		if !ok {
			return Connection{}, fmt.Errorf("%w: %s has no point %q", ErrUnknownPoint, candidate.ID, att.CandidatePoint)
		}
	}

	if !connect.AreCompatible(ap, cp) {
		return Connection{}, fmt.Errorf("%w: %s (%s) and %s (%s)", ErrIncompatible, ap.ID, ap.Type, cp.ID, cp.Type)
	}
	if !connect.AcceptsComponent(ap, candidate) {
		return Connection{}, fmt.Errorf("%w: %s.%s does not accept %s", ErrIncompatible, anchor.ID, ap.ID, candidate.ID)
	}
	if !connect.AcceptsComponent(cp, anchor) {
		return Connection{}, fmt.Errorf("%w: %s.%s does not accept %s", ErrIncompatible, candidate.ID, cp.ID, anchor.ID)
	}

	aRef := PointRef{Component: anchor.ID, Point: ap.ID}
	cRef := PointRef{Component: candidate.ID, Point: cp.ID}
	if ap.AtCapacity(a.used[aRef]) {
		return Connection{}, fmt.Errorf("%w: %s.%s", ErrCapacity, aRef.Component, aRef.Point)
	}
	if cp.AtCapacity(a.used[cRef]) {
		return Connection{}, fmt.Errorf("%w: %s.%s", ErrCapacity, cRef.Component, cRef.Point)
	}

	pose := a.solver.Solve(&anchor, &ap, &candidate, &cp)
	if err := a.store.Put(candidate.WithPose(pose)); err != nil {
		return Connection{}, fmt.Errorf("assembly: persist %s: %w", candidate.ID, err)
	}

	conn := Connection{
		Anchor:         anchor.ID,
		AnchorPoint:    ap.ID,
		Candidate:      candidate.ID,
		CandidatePoint: cp.ID,
		Pose:           pose,
	}
	a.connections = append(a.connections, conn)
	a.used[aRef]++
	a.used[cRef]++
	return conn, nil
}

// load heals and validates a stored component.
func (a *Assembler) load(id string) (catalog.Component, error) {
	c, _, err := catalog.Heal(a.store, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return catalog.Component{}, fmt.Errorf("%w: %q", ErrUnknownComponent, id)
	}
	if err != nil {
		return catalog.Component{}, err
	}
	if findings := catalog.Validate(c); catalog.HasErrors(findings) {
		return catalog.Component{}, fmt.Errorf("%w: %s", ErrInvalidComponent, findings[0])
	}
	return c, nil
}

// Issue is an attachment that could not be completed.
type Issue struct {
	Index      int
	Attachment Attachment
	Err        error
}

func (i Issue) Error() string {
	return fmt.Sprintf("attachment %d (%s): %v", i.Index, i.Attachment, i.Err)
}

func (i Issue) Unwrap() error { return i.Err }

// Report is the outcome of Build.
type Report struct {
	Connections []Connection
	Issues      []Issue
	Findings    []catalog.ValidationError
	Healed      map[string]int // component id -> dropped point entries
}

// Build loads a scene's components into the store and runs its
// attachments in order. A failed attachment is recorded and skipped;
// later attachments still run.
func (a *Assembler) Build(scene Scene) (Report, error) {
	report := Report{Healed: make(map[string]int)}
	for _, c := range scene.Components {
		report.Findings = append(report.Findings, catalog.Validate(c)...)
		clean, dropped := catalog.SanitizeComponent(c)
		if dropped > 0 {
			report.Healed[c.ID] = dropped
		}
		if err := a.store.Put(clean); err != nil {
			return report, fmt.Errorf("assembly: load %s: %w", c.ID, err)
		}
	}
	start := len(a.connections)
	for i, att := range scene.Attachments {
		if _, err := a.Attach(att); err != nil {
			report.Issues = append(report.Issues, Issue{Index: i, Attachment: att, Err: err})
		}
	}
	report.Connections = append([]Connection(nil), a.connections[start:]...)
	return report, nil
}

// Unsatisfied lists required points that have no connection, ordered by
// component id and then point order.
func (a *Assembler) Unsatisfied() []PointRef {
	var out []PointRef
	for _, c := range a.store.List() {
		for _, p := range catalog.Sanitize(c.Points) {
			ref := PointRef{Component: c.ID, Point: p.ID}
			if p.IsRequired && a.used[ref] == 0 {
				out = append(out, ref)
			}
		}
	}
	return out
}

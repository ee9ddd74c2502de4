package catalog

import (
	"fmt"
	"math"

	"github.com/chazu/trackset/pkg/geom"
)

// ValidationSeverity indicates whether a finding should block use of a
// component or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks attachment
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ComponentID string             // owning component
	PointID     string             // empty for component-level findings
	Message     string             // human-readable description
	Severity    ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.PointID == "" {
		return fmt.Sprintf("[%s] component %s: %s", e.Severity, e.ComponentID, e.Message)
	}
	return fmt.Sprintf("[%s] component %s point %s: %s", e.Severity, e.ComponentID, e.PointID, e.Message)
}

// Validate runs every check on a component and returns its findings.
// An empty slice means the component is clean. Validate is read-only;
// use SanitizeComponent to repair the points collection.
func Validate(c Component) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateScale(c)...)
	errs = append(errs, validatePointIDs(c)...)
	errs = append(errs, validatePointFields(c)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateScale checks that no scale component is zero or non-finite.
// The transform engine substitutes 1 for such components, so the
// finding is reported but evaluation still succeeds. An all-zero scale
// is an absent one and means identity.
func validateScale(c Component) []ValidationError {
	var errs []ValidationError
	if c.Scale != geom.Zero {
		for i, s := range c.Scale {
			if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
				errs = append(errs, ValidationError{
					ComponentID: c.ID,
					Message:     fmt.Sprintf("scale %c is %v, must be non-zero and finite", "xyz"[i], s),
					Severity:    SeverityError,
				})
			}
		}
	}
	if !c.Position.IsFinite() || !c.Rotation.IsFinite() {
		errs = append(errs, ValidationError{
			ComponentID: c.ID,
			Message:     "pose has non-finite values; identity defaults will be used",
			Severity:    SeverityWarning,
		})
	}
	return errs
}

// validatePointIDs reports missing and duplicate ids.
func validatePointIDs(c Component) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for i, p := range c.Points {
		if !Valid(p) {
			errs = append(errs, ValidationError{
				ComponentID: c.ID,
				Message:     fmt.Sprintf("point at index %d has no id and will be dropped", i),
				Severity:    SeverityWarning,
			})
			continue
		}
		if first, dup := seen[p.ID]; dup {
			errs = append(errs, ValidationError{
				ComponentID: c.ID,
				PointID:     p.ID,
				Message:     fmt.Sprintf("duplicate point id (first used at index %d)", first),
				Severity:    SeverityError,
			})
			continue
		}
		seen[p.ID] = i
	}
	return errs
}

// validatePointFields checks per-point values that the engine tolerates
// but that usually indicate a bad edit.
func validatePointFields(c Component) []ValidationError {
	var errs []ValidationError
	for _, p := range c.Points {
		if !Valid(p) {
			continue
		}
		warn := func(format string, args ...any) {
			errs = append(errs, ValidationError{
				ComponentID: c.ID,
				PointID:     p.ID,
				Message:     fmt.Sprintf(format, args...),
				Severity:    SeverityWarning,
			})
		}
		if !p.Type.Valid() {
			warn("unknown point type %q", p.Type)
		}
		if !p.Position.IsFinite() || !p.Rotation.IsFinite() {
			warn("non-finite position or rotation")
		}
		if p.MaxConnections < Unlimited {
			warn("maxConnections %d is below %d", p.MaxConnections, Unlimited)
		}
		if p.IsRequired && p.MaxConnections == 0 {
			warn("required point accepts no connections")
		}
		for _, t := range p.CompatibleTypes {
			if !t.Valid() {
				warn("unknown compatible type %q", t)
			}
		}
	}
	return errs
}

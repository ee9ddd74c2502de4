package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/trackset/pkg/assembly"
	"github.com/chazu/trackset/pkg/catalog"
	"github.com/chazu/trackset/pkg/connect"
	"github.com/chazu/trackset/pkg/geom"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rail-length -> rail_length
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec3.
type sexpVec3 struct {
	vec geom.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpPoint wraps a connection point so it can be returned from `point`
// and consumed by `component`.
type sexpPoint struct {
	point catalog.ConnectionPoint
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %q :type :%s)", p.point.ID, p.point.Type)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpComponentRef names a component declared in the scene.
type sexpComponentRef struct {
	id string
}

func (c *sexpComponentRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(component-ref %q)", c.id)
}
func (c *sexpComponentRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected whole number, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_track) and plain strings ("track").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toBool accepts true/false, :yes/:no or a number. A bare trailing
// keyword (parsed as null) counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	if s == zygo.SexpNull {
		return true, nil
	}
	if f, err := toFloat64(s); err == nil {
		return f != 0, nil
	}
	text := s.SexpString(nil)
	if kw, err := toKeywordString(s); err == nil {
		text = kw
	}
	switch strings.ToLower(text) {
	case "true", "yes":
		return true, nil
	case "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean, got %s", s.SexpString(nil))
}

// toPointType converts a keyword or string to a point type. Unknown
// types are accepted; the collection validator reports them.
func toPointType(s zygo.Sexp) (catalog.PointType, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected point type keyword: %w", err)
	}
	return catalog.PointType(strings.ToLower(name)), nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toComponentID accepts a component reference or its id as a string.
func toComponentID(s zygo.Sexp) (string, error) {
	if ref, ok := s.(*sexpComponentRef); ok {
		return ref.id, nil
	}
	id, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected component reference or id: %w", err)
	}
	return id, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Scene building
// ---------------------------------------------------------------------------

// sceneBuilder accumulates the scene while builtins run.
type sceneBuilder struct {
	scene assembly.Scene
	index map[string]int
}

func newSceneBuilder() *sceneBuilder {
	return &sceneBuilder{index: make(map[string]int)}
}

func (b *sceneBuilder) addComponent(c catalog.Component) error {
	if _, dup := b.index[c.ID]; dup {
		return fmt.Errorf("duplicate component id %q", c.ID)
	}
	b.index[c.ID] = len(b.scene.Components)
	b.scene.Components = append(b.scene.Components, c)
	return nil
}

// build returns the finished scene with non-nil slices.
func (b *sceneBuilder) build() *assembly.Scene {
	s := b.scene
	if s.Components == nil {
		s.Components = []catalog.Component{}
	}
	if s.Attachments == nil {
		s.Attachments = []assembly.Attachment{}
	}
	return &s
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys
// environment. The builtins populate sb during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sb *sceneBuilder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		var v geom.Vec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (deg 90) -> radians
	// -----------------------------------------------------------------------
	env.AddFunction("deg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("deg requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deg: %w", err)
		}
		return &zygo.SexpFloat{Val: f * math.Pi / 180}, nil
	})

	// -----------------------------------------------------------------------
	// (point "id" :type :track :at (vec3 0 0 0) :rotation (vec3 ..)
	//        :name "End" :subtype "48v" :max 2 :priority 3 :required true
	//        :compatible-types (list :power) :compatible-components (list "rail"))
	// -----------------------------------------------------------------------
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		p := catalog.ConnectionPoint{
			Type:           catalog.PointMechanical,
			MaxConnections: catalog.DefaultMaxConnections,
			Priority:       catalog.DefaultPriority,
		}

		// The id is optional here so that incomplete points reach the
		// collection validator and get reported there.
		if len(pa.positional) > 0 {
			id, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: id: %w", err)
			}
			p.ID = id
			p.Name = id
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: name: %w", err)
			}
			p.Name = s
		}
		if v, ok := pa.kw["description"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: description: %w", err)
			}
			p.Description = s
		}
		if v, ok := pa.kw["type"]; ok {
			t, err := toPointType(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: type: %w", err)
			}
			p.Type = t
		}
		if v, ok := pa.kw["subtype"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: subtype: %w", err)
			}
			p.Subtype = s
		}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: at: %w", err)
			}
			p.Position = vec
		}
		if v, ok := pa.kw["rotation"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: rotation: %w", err)
			}
			p.Rotation = vec
		}
		if v, ok := pa.kw["max"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: max: %w", err)
			}
			p.MaxConnections = n
		}
		if v, ok := pa.kw["unlimited"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: unlimited: %w", err)
			}
			if b {
				p.MaxConnections = catalog.Unlimited
			}
		}
		if v, ok := pa.kw["priority"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: priority: %w", err)
			}
			p.Priority = n
		}
		if v, ok := pa.kw["required"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: required: %w", err)
			}
			p.IsRequired = b
		}
		if v, ok := pa.kw["compatible-types"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: compatible-types: %w", err)
			}
			for _, item := range items {
				t, err := toPointType(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("point: compatible-types entry: %w", err)
				}
				p.CompatibleTypes = append(p.CompatibleTypes, t)
			}
		}
		if v, ok := pa.kw["compatible-components"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("point: compatible-components: %w", err)
			}
			for _, item := range items {
				s, err := toKeywordString(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("point: compatible-components entry: %w", err)
				}
				p.CompatibleComponents = append(p.CompatibleComponents, s)
			}
		}

		return &sexpPoint{point: p}, nil
	})

	// -----------------------------------------------------------------------
	// (component "id" :type "track" :name "Rail" :at (vec3 ..) :rotation (vec3 ..)
	//            :scale (vec3 ..) :size (vec3 ..) (point ..) (point ..))
	// -----------------------------------------------------------------------
	env.AddFunction("component", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("component requires an id argument")
		}
		id, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("component: id: %w", err)
		}
		if id == "" {
			return zygo.SexpNull, fmt.Errorf("component: id must not be empty")
		}

		c := catalog.Component{ID: id, Scale: geom.One, Points: []catalog.ConnectionPoint{}}
		if v, ok := pa.kw["type"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %s: type: %w", id, err)
			}
			c.Type = s
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %s: name: %w", id, err)
			}
			c.Name = s
		}
		vecs := []struct {
			kw  string
			dst *geom.Vec3
		}{
			{"at", &c.Position},
			{"rotation", &c.Rotation},
			{"scale", &c.Scale},
			{"size", &c.Dimensions},
		}
		for _, f := range vecs {
			v, ok := pa.kw[f.kw]
			if !ok {
				continue
			}
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("component %s: %s: %w", id, f.kw, err)
			}
			*f.dst = vec
		}

		for i, arg := range pa.positional[1:] {
			p, ok := arg.(*sexpPoint)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("component %s: child %d: expected point, got %T (%s)",
					id, i+1, arg, arg.SexpString(nil))
			}
			c.Points = append(c.Points, p.point)
		}

		if err := sb.addComponent(c); err != nil {
			return zygo.SexpNull, fmt.Errorf("component: %w", err)
		}
		return &sexpComponentRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (attach "lamp" :via "clip" :to "rail" :at "slot")
	// -----------------------------------------------------------------------
	env.AddFunction("attach", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("attach requires a component as first argument")
		}

		var att assembly.Attachment
		var err error
		if att.Candidate, err = toComponentID(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("attach: %w", err)
		}
		to, ok := pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("attach %s: missing :to", att.Candidate)
		}
		if att.Anchor, err = toComponentID(to); err != nil {
			return zygo.SexpNull, fmt.Errorf("attach %s: to: %w", att.Candidate, err)
		}
		at, ok := pa.kw["at"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("attach %s: missing :at", att.Candidate)
		}
		if att.AnchorPoint, err = toString(at); err != nil {
			return zygo.SexpNull, fmt.Errorf("attach %s: at: %w", att.Candidate, err)
		}
		if v, ok := pa.kw["via"]; ok {
			if att.CandidatePoint, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("attach %s: via: %w", att.Candidate, err)
			}
		}

		sb.scene.Attachments = append(sb.scene.Attachments, att)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (room :width 8 :length 6 :height 3)
	// -----------------------------------------------------------------------
	env.AddFunction("room", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r := connect.DefaultRoom
		dims := []struct {
			kw  string
			dst *float64
		}{
			{"width", &r.Width},
			{"length", &r.Length},
			{"height", &r.Height},
		}
		for _, d := range dims {
			v, ok := pa.kw[d.kw]
			if !ok {
				continue
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("room: %s: %w", d.kw, err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("room: %s must be positive, got %g", d.kw, f)
			}
			*d.dst = f
		}
		sb.scene.Room = &r
		return zygo.SexpNull, nil
	})
}

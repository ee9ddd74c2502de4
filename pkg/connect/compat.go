package connect

import (
	"strings"

	"github.com/chazu/trackset/pkg/catalog"
	"github.com/samber/lo"
)

// adjacency is the built-in compatibility table used when neither point
// carries an explicit allow-list naming the other's type. It is checked
// from both sides, so it need not be symmetric itself.
var adjacency = map[catalog.PointType][]catalog.PointType{
	catalog.PointPower:      {catalog.PointMechanical, catalog.PointMounting},
	catalog.PointMechanical: {catalog.PointPower, catalog.PointTrack, catalog.PointMounting},
	catalog.PointTrack:      {catalog.PointMechanical, catalog.PointAccessory},
	catalog.PointMounting:   {catalog.PointPower, catalog.PointMechanical},
	catalog.PointAccessory:  {catalog.PointTrack, catalog.PointMechanical},
}

// AreCompatible reports whether two points may legally join. Rules, in
// order: equal types; either allow-list names the other's type; the
// built-in table read from either side.
func AreCompatible(a, b catalog.ConnectionPoint) bool {
	if a.Type == b.Type {
		return true
	}
	if lo.Contains(a.CompatibleTypes, b.Type) || lo.Contains(b.CompatibleTypes, a.Type) {
		return true
	}
	return lo.Contains(adjacency[a.Type], b.Type) || lo.Contains(adjacency[b.Type], a.Type)
}

// AcceptsComponent reports whether p's compatibleComponents allow-list
// admits c. An empty list admits everything; entries match the
// component id exactly or its type case-insensitively.
func AcceptsComponent(p catalog.ConnectionPoint, c catalog.Component) bool {
	if len(p.CompatibleComponents) == 0 {
		return true
	}
	return lo.ContainsBy(p.CompatibleComponents, func(entry string) bool {
		return entry == c.ID || strings.EqualFold(entry, c.Type)
	})
}

// BestPoint picks the candidate point to attach with when the caller
// did not name one: the compatible point with the highest priority,
// ties going to the earliest in the collection.
func BestPoint(anchor catalog.ConnectionPoint, candidate catalog.Component) (catalog.ConnectionPoint, bool) {
	var best catalog.ConnectionPoint
	found := false
	for _, p := range catalog.Sanitize(candidate.Points) {
		if !AreCompatible(anchor, p) {
			continue
		}
		if !found || p.Priority > best.Priority {
			best, found = p, true
		}
	}
	return best, found
}

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Valid reports whether p may enter a points collection: it must carry
// a non-empty id.
func Valid(p ConnectionPoint) bool {
	return p.ID != ""
}

// Sanitize returns the valid points of a collection in their original
// order. The input is never modified; the result shares no memory with
// it. Sanitize(Sanitize(x)) equals Sanitize(x).
func Sanitize(points []ConnectionPoint) []ConnectionPoint {
	kept := lo.Filter(points, func(p ConnectionPoint, _ int) bool {
		return Valid(p)
	})
	return lo.Map(kept, func(p ConnectionPoint, _ int) ConnectionPoint {
		return p.Clone()
	})
}

// SanitizeComponent returns a copy of c whose points collection has
// been sanitized, plus the number of entries dropped. A non-zero count
// means the caller should persist the returned component.
func SanitizeComponent(c Component) (Component, int) {
	out := c.Clone()
	out.Points = Sanitize(c.Points)
	return out, len(c.Points) - len(out.Points)
}

// DecodePoints decodes a JSON array of points at the storage boundary.
// Entries that are not objects, fail to decode, or lack an id are
// dropped and counted. Only a payload that is not an array at all is
// an error.
func DecodePoints(data []byte) ([]ConnectionPoint, int, error) {
	entries, bad, err := decodeEntries(data)
	if err != nil {
		return nil, 0, err
	}
	clean := Sanitize(entries)
	return clean, bad + len(entries) - len(clean), nil
}

// decodeEntries decodes every object entry of a JSON array and counts
// the entries that could not be represented as a ConnectionPoint.
func decodeEntries(data []byte) ([]ConnectionPoint, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, 0, fmt.Errorf("catalog: points must be a JSON array: %w", err)
	}
	points := make([]ConnectionPoint, 0, len(raw))
	bad := 0
	for _, entry := range raw {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || entry[0] != '{' {
			bad++
			continue
		}
		var p ConnectionPoint
		if err := json.Unmarshal(entry, &p); err != nil {
			bad++
			continue
		}
		points = append(points, p)
	}
	return points, bad, nil
}

// EncodePoints serializes a collection after sanitizing it, so that
// nothing malformed is ever written back.
func EncodePoints(points []ConnectionPoint) ([]byte, error) {
	clean := Sanitize(points)
	if clean == nil {
		clean = []ConnectionPoint{}
	}
	return json.MarshalIndent(clean, "", "  ")
}

// Package placement implements the interactive authoring workflow for
// connection points. A Session moves between idle, placing and editing
// as ray hits, selections and drags arrive from the caller, and turns
// hits on a component's mesh into new component-local points.
//
// The package never talks to a renderer. Ray intersection goes through
// the Intersector interface and live mesh vertices through VertexSource.
package placement

// Package geom is the transform engine for trackset. It maps
// connection-point coordinates between a component's local frame and
// world space. Every function is pure and rounds its results to
// Precision so that logically identical points compare equal.
package geom

// Package connect decides which connection points may join and computes
// where a newly attached component must sit so that its chosen point
// coincides with an anchor point already placed in the scene.
//
// Nothing here mutates its inputs or keeps state between calls, so a
// Solver may be shared freely between goroutines.
package connect

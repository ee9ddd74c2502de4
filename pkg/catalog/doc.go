// Package catalog defines the component and connection-point records
// consumed by the geometry engine, the collection validator that gates
// every read of a point collection, and the store interface the
// catalog layer is reached through.
package catalog

// Package handlers provides the built-in handlers that catalog bindings
// refer to by name, and Bind, which registers a catalog's bindings on a
// processor.
//
// Built-in handlers:
//   - "record": driven by the annotation's attributes (depends_on,
//     masquerade, adds, suppress, fail)
//   - "provided": the record handler over a fixed set of catalog types,
//     bypassing the scanner for the TYPE kind
package handlers

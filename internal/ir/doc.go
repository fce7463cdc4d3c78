// Package ir provides the catalog model shared by every iocplan package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Type identity is the canonical dotted name, never a pointer
//   - Attribute values are constrained to Value (no floats)
//   - Declaration order is preserved wherever it is observable
//   - All JSON tags use snake_case
package ir

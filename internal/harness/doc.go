// Package harness runs conformance scenarios against catalogs.
//
// A scenario loads a catalog directory, processes it with fixed options and
// a fixed run ID, stores the run in an in-memory store and evaluates
// assertions on what came back.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	catalog: ../catalogs/app      # relative to this file
//	packages: [app]               # optional, defaults to the catalog's
//	test_mode: false
//	max_batches: 10               # optional
//	run_id: "run-1"               # optional
//	assertions:
//	  - type: plan_order
//	    units: [app.Repo, app.Service]
//	  - type: executed
//	    element: app.Service.repo
//	    annotation: Inject
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - plan_order: Verifies units are planned in the given relative order
//   - plan_contains: Verifies a unit is planned, optionally with dependencies
//   - executed: Verifies an element was executed, optionally checking handled
//   - not_executed: Verifies an element was never executed
//   - execution_count: Verifies the number of matching executions
//   - injected: Verifies a type was added and the annotations handled on it
//   - fails_with: Verifies processing failed with an error code
//
// A scenario without fails_with fails when processing fails.
//
// # Golden Snapshots
//
// Snapshot renders a result as canonical JSON. RunWithGolden compares it
// against testdata/golden/<name>.golden using goldie; pass -update to
// regenerate.
package harness

// Package harness runs compilation scenarios end to end.
//
// A scenario declares a topology in CUE, seeds rows into a fresh SQLite
// store, and describes a traversal in YAML. Run compiles the traversal,
// checks the resulting plan against the scenario's expectations, then
// executes both the compiled and the raw traversal and requires them to
// produce the same rows.
//
// Scenario file format:
//
//	name: single_table_pushdown
//	description: filters, order and range on one table
//	topology: |
//	  entity: Person: {
//	    tables: ["person"]
//	    columns: { name: string, age: int }
//	  }
//	data:
//	  person:
//	    - {id: 1, name: ann, age: 31}
//	steps:
//	  - scan: {entity: Person}
//	  - order: [{key: name}]
//	expect:
//	  outcome: compiled
//	  nodes:
//	    - entity: Person
//	      push_order_to_store: true
//	  rows: 1
//
// RunWithGolden additionally snapshots the outcome, the plan summary, the
// emitted diagnostics and the rows under testdata/golden.
package harness

// Package topology resolves entity types to relational tables.
//
// A topology is declared in CUE:
//
//	entity: Person: {
//	    id: int
//	    tables: ["person"]
//	    columns: { name: string, age: int, city: string }
//	    links: address: { entity: "Address", column: "person_id" }
//	}
//
// An entity stored in exactly one table is single-query; one whose rows are
// spread over several tables (an entity hierarchy, say Party over person and
// company) is multi-query and is read as a union.
//
// Links describe how a branch-arm scan reaches related entities: rows of the
// link's target entity whose link column equals the source row's id.
//
// Column types use CUE kinds. Floats are rejected, matching the ir package.
package topology

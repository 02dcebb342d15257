// Package traversal models the host's graph-traversal pipeline: an ordered
// sequence of operations that the compiler reads ahead over and rewrites in
// place.
//
// OPERATIONS:
//
// The raw operation kinds form a closed set:
//
//	Scan         select starting entities of a type, optionally by id
//	Filter       keep rows whose properties satisfy a Predicate
//	Order        sort rows by one or more keys
//	Range        keep rows [offset, offset+limit)
//	PathCapture  emit each row's traversal path
//	TreeCapture  fold all paths into one tree
//
// Branch is structural rather than an operation kind: it marks the point at
// which the sequence splits into several continuations (arms) sharing the
// prefix before it. Each arm is itself a Pipeline.
//
// Compiled operations produced by the plan package also implement Operation
// and report KindCompiled. They are never mistaken for raw scans, which makes
// compilation idempotent.
//
// PREDICATES:
//
// Predicate is sealed (marker method pattern) so backends can switch over it
// exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case Within:
//	case And:
//	}
package traversal

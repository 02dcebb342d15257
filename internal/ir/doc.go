// Package ir provides the value types shared by every layer of sqlgraph.
//
// Element identifiers, predicate literals and scanned column values are all
// IRValue. The set is closed: IRNull, IRString, IRInt, IRBool, IRArray and
// IRObject. Floats are not representable; numeric properties are int64.
//
// This package imports nothing internal. Plans, topologies and rows all build
// on it, and canonical encoding (MarshalCanonical) plus domain-separated
// fingerprints (Fingerprint) give plans and topologies a stable identity that
// golden tests and the explain command rely on.
package ir

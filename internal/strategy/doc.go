// Package strategy rewrites raw traversals into compiled ones.
//
// Apply inspects a pipeline, decides whether it can be compiled at all,
// builds and finalizes a plan tree, and substitutes plan.Compiled
// operations for the windows the tree absorbed. Nothing is substituted
// until every check has passed, so a failed Apply leaves the pipeline as
// it was.
package strategy

// Package plan compiles runs of traversal operations into fused plan nodes.
//
// A compilation pass collects a window of replaceable operations after each
// scan (CollectWindow), turns each window into a Node (Builder), arranges
// the nodes in an arena Tree that mirrors the traversal's branches, attaches
// labels needed to rebuild captured paths, and finally decides per node what
// can be pushed to the store and what must run in memory (Finalize).
//
// Plan nodes are owned by their Tree. Once a Compiled operation referencing
// the tree has been substituted into a pipeline the tree is read-only.
package plan

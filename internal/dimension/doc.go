// Package dimension models the three-level topic taxonomy and scores
// segments against it (or against a flat keyword list).
//
// Dimension files are JSON objects keyed by node id. Key order is
// significant: ties between equally weighted nodes resolve to the node that
// appears first, so the codec keeps children in an explicit slice instead of
// a map.
//
// In greedy descent (the default) level-2 and level-3 matches are searched
// only beneath the winning level-1 node and then the winning level-2 node.
// This is deliberate: the category a segment is filed under and its deeper
// matches always come from one branch. Exhaustive descent scores every node
// at every level independently.
package dimension

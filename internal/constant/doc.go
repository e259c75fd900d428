// Package constant turns a raw YAML mapping into an immutable tree of Nodes.
//
// A Node offers two views over the same data:
//
//   - attribute access through Attr and its typed helpers (String, Int,
//     Float, Bool), which only resolves keys holding scalar values;
//   - mapping access through Get, Has, Keys, Values, Len, Range, All, Dig
//     and Path, which resolves every key including nested nodes.
//
// Sequences are indexed by their own elements: [a, b, a] becomes the mapping
// {a: a, b: b}. Order is not preserved and duplicates collapse, the last
// occurrence winning. See CollapseSequence.
//
// Nothing in this package mutates a Node after Transform returns, so a
// published tree can be shared by any number of goroutines without locking.
package constant

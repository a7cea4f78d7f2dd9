// Package rope implements an immutable B-tree rope for document text.
//
// Leaves hold short UTF-8 chunks and every internal node caches a Summary of
// its subtree (byte and newline counts). The cached summaries let offset and
// line lookups descend the tree in O(log n) without scanning the text.
//
// A Rope is a value type. Insert, Delete, Split and Concat return a new Rope
// sharing unchanged subtrees with the receiver, so keeping an old Rope around
// is a free snapshot.
//
//	r := rope.FromString("hello\nworld")
//	r = r.Insert(5, ",")
//	r.Line(0)              // "hello,"
//	r.OffsetToPoint(8)     // Point{Line: 1, Column: 1}
package rope

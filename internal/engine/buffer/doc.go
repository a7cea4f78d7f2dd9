// Package buffer provides the document text store built on the rope package.
//
// A Buffer addresses text by byte offset and by 0-based line/column Point,
// and converts between the two. Mutations validate their arguments and
// return ErrOffsetOutOfRange without touching the text when an offset or
// length falls outside the document.
//
// Basic usage:
//
//	buf := buffer.NewFromString("Hello, World!")
//	_ = buf.Insert("Beautiful ", 7)  // "Hello, Beautiful World!"
//	removed, _ := buf.Remove(0, 7)   // "Beautiful World!", removed == "Hello, "
//	p, _ := buf.Position(3)          // Point{Line: 0, Column: 3}
//
// Buffer is not safe for concurrent mutation; the owning document serializes
// access.
package buffer

// Package engine provides Document, the editing core that ties a rope-backed
// buffer, the undo history and the syntax index together.
//
// # Architecture
//
// The document is built on several sub-packages:
//
//   - rope: balanced rope storing the text (O(log n) edits and lookups)
//   - buffer: offsets, positions and line access over a rope
//   - history: edits, transactions and the undo/redo log
//   - syntax: incremental parse trees and per-line highlight tokens
//   - cursor: the selection value type
//
// # Edits
//
// Every mutation is one of two low-level edits, an insert or a remove. Each
// applied edit updates the buffer, feeds a structural edit to the syntax
// index so the parse tree is reused, and is delivered to every subscribed
// Listener in subscription order.
//
// Edits made while a transaction is open are grouped into one undo step:
//
//	doc := engine.New(engine.WithContent("hello"))
//	caret, err := doc.Transact(5, func() (int, error) {
//		if err := doc.Insert(",", 5); err != nil {
//			return 0, err
//		}
//		return 6, doc.Insert(" world", 6)
//	})
//
// Outside a transaction every edit is its own undo step.
//
// # Concurrency
//
// A Document is not safe for concurrent use. Callers that share one across
// goroutines serialize access themselves.
package engine

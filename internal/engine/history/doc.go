// Package history records document edits as transactions and replays them
// for undo and redo.
//
// An Edit is the smallest recorded mutation: an insert or a removal of a
// string at a byte offset. Edits made between Begin and Commit form one
// Transaction, the unit of undo. Undo applies the inverse of every edit in
// reverse order; redo reapplies the edits in their original order.
//
// The Log never touches text itself. Replays go through an Applier, usually
// the owning document, so the text, the syntax tree and any listeners stay in
// step:
//
//	log := history.NewLog(0)
//	_ = log.Begin()
//	log.Record(history.Edit{Op: history.Insert, Start: 0, Text: "hi"})
//	tx, _ := log.Commit()
//	undone, ok, err := log.Undo(doc)
//
// A Log is not safe for concurrent use.
package history

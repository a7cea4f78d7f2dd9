package feed

import (
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/history"
)

// Message types.
const (
	TypeEdit   = "edit"
	TypeHello  = "hello"
	TypeDenied = "error"
)

// Message is one websocket frame sent to clients.
type Message struct {
	Type     string        `json:"type"`
	Doc      string        `json:"doc,omitempty"`
	Seq      uint64        `json:"seq,omitempty"`
	Revision uint64        `json:"revision,omitempty"`
	Edit     *history.Edit `json:"edit,omitempty"`
	Start    *engine.Point `json:"start,omitempty"`
	OldEnd   *engine.Point `json:"old_end,omitempty"`
	NewEnd   *engine.Point `json:"new_end,omitempty"`
	Client   string        `json:"client,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func editMessage(doc string, seq uint64, c engine.Change) Message {
	return Message{
		Type:     TypeEdit,
		Doc:      doc,
		Seq:      seq,
		Revision: c.Revision,
		Edit:     &c.Edit,
		Start:    &c.Start,
		OldEnd:   &c.OldEnd,
		NewEnd:   &c.NewEnd,
	}
}

// LinesResponse is the body of GET /documents/{id}/lines.
type LinesResponse struct {
	Doc      string           `json:"doc"`
	Language string           `json:"language,omitempty"`
	Revision uint64           `json:"revision"`
	Start    int              `json:"start"`
	Lines    [][]TokenPayload `json:"lines"`
}

// TokenPayload is a highlight token on the wire.
type TokenPayload struct {
	Kind string `json:"kind,omitempty"`
	Text string `json:"text"`
}

// DocumentInfo describes an open document.
type DocumentInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
	Length   int    `json:"length"`
	Revision uint64 `json:"revision"`
}

// RunnablesResponse is the body of GET /documents/{id}/runnables.
type RunnablesResponse struct {
	Doc       string            `json:"doc"`
	Runnables []RunnablePayload `json:"runnables"`
}

// RunnablePayload is a runnable line with its resolved command.
type RunnablePayload struct {
	engine.Runnable
	Command string `json:"command,omitempty"`
}

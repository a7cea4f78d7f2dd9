package action

import (
	"context"
	"sync"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}

// MemoryClipboard is an in-process Clipboard. The zero value is empty and
// ready to use.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// ReadText returns the stored text.
func (m *MemoryClipboard) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// WriteText stores text.
func (m *MemoryClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

package syntax

import (
	"context"
	"slices"
	"sync"

	"github.com/dshills/textcore/internal/engine/buffer"
)

// Point is a 0-based row and byte-column position.
type Point = buffer.Point

// StructuralEdit describes a text change in the form incremental parsers
// consume: the byte offsets and positions of the changed span before and
// after the change.
type StructuralEdit struct {
	StartByte   int
	OldEndByte  int
	NewEndByte  int
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// Capture is a named span reported by a grammar query.
type Capture struct {
	Name       string
	StartByte  int
	EndByte    int
	StartPoint Point
	EndPoint   Point
}

// Contains reports whether offset lies inside the capture.
func (c Capture) Contains(offset int) bool {
	return offset >= c.StartByte && offset < c.EndByte
}

// Grammar is a compiled language definition.
type Grammar interface {
	Name() string
	NewParser() (Parser, error)
}

// Parser parses source text for one document.
type Parser interface {
	// Parse builds a tree for src. old is the previous tree, already
	// adjusted with Tree.Edit, or nil.
	Parse(ctx context.Context, old Tree, src []byte) (Tree, error)

	// Highlights returns highlight captures overlapping rows
	// [startRow, endRow), ordered by start offset.
	Highlights(t Tree, src []byte, startRow, endRow int) []Capture

	// Runnables returns captures of the runnables query, if any.
	Runnables(t Tree, src []byte) []Capture

	Close()
}

// Tree is one parse of a document version.
type Tree interface {
	// Edit adjusts the tree for a change before it is handed back to
	// Parser.Parse as the old tree.
	Edit(e StructuralEdit)
	Close()
}

// Registry maps language names to grammars. Registries are plain values
// handed to the components that need them; there is no process-wide
// instance.
type Registry struct {
	mu       sync.RWMutex
	grammars map[string]Grammar
}

// NewRegistry creates a registry holding grammars.
func NewRegistry(grammars ...Grammar) *Registry {
	r := &Registry{grammars: make(map[string]Grammar)}
	for _, g := range grammars {
		r.Register(g)
	}
	return r
}

// Register adds or replaces the grammar for g.Name().
func (r *Registry) Register(g Grammar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grammars[g.Name()] = g
}

// Unregister removes the grammar for name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grammars, name)
}

// Lookup returns the grammar for name.
func (r *Registry) Lookup(name string) (Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grammars[name]
	return g, ok
}

// Names returns the registered language names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.grammars))
	for n := range r.grammars {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

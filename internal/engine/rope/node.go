package rope

import (
	"slices"
	"unicode/utf8"
)

const (
	// MaxLeafBytes is the largest chunk a leaf stores.
	MaxLeafBytes = 512

	// MaxChildren is the fan-out limit of internal nodes.
	MaxChildren = 8
)

// node is either a leaf (height 0, text set) or an internal node
// (children set). Nodes are never mutated after construction.
type node struct {
	sum      Summary
	height   int
	text     string
	children []*node
}

func newLeaf(s string) *node {
	return &node{sum: summarize(s), text: s}
}

func newInternal(children []*node) *node {
	n := &node{height: children[0].height + 1, children: children}
	for _, c := range children {
		n.sum = n.sum.Add(c.sum)
	}
	return n
}

func (n *node) isLeaf() bool {
	return n.height == 0
}

// chunk cuts s into leaf-sized pieces without splitting a UTF-8 sequence.
func chunk(s string) []string {
	var out []string
	for len(s) > MaxLeafBytes {
		cut := MaxLeafBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = MaxLeafBytes
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if len(s) > 0 {
		out = append(out, s)
	}
	return out
}

// build assembles a balanced tree over nodes of equal height.
func build(nodes []*node) *node {
	if len(nodes) == 0 {
		return nil
	}
	for len(nodes) > 1 {
		parents := make([]*node, 0, (len(nodes)+MaxChildren-1)/MaxChildren)
		for i := 0; i < len(nodes); i += MaxChildren {
			end := min(i+MaxChildren, len(nodes))
			parents = append(parents, newInternal(slices.Clone(nodes[i:end])))
		}
		nodes = parents
	}
	return nodes[0]
}

// join concatenates two trees. Either side may be nil.
func join(a, b *node) *node {
	if a == nil || a.sum.Bytes == 0 {
		return b
	}
	if b == nil || b.sum.Bytes == 0 {
		return a
	}
	nodes := appendTree(a, b)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return newInternal(nodes)
}

// appendTree returns one or two nodes of height max(a.height, b.height)
// holding the text of a followed by b. The shorter tree is grafted onto the
// facing spine of the taller one.
func appendTree(a, b *node) []*node {
	switch {
	case a.height == b.height:
		if a.isLeaf() {
			if a.sum.Bytes+b.sum.Bytes <= MaxLeafBytes {
				return []*node{newLeaf(a.text + b.text)}
			}
			return []*node{a, b}
		}
		kids := make([]*node, 0, len(a.children)+len(b.children))
		kids = append(kids, a.children...)
		kids = append(kids, b.children...)
		return pack(kids)

	case a.height > b.height:
		last := len(a.children) - 1
		tail := appendTree(a.children[last], b)
		kids := make([]*node, 0, last+len(tail))
		kids = append(kids, a.children[:last]...)
		kids = append(kids, tail...)
		return pack(kids)

	default:
		head := appendTree(a, b.children[0])
		kids := make([]*node, 0, len(head)+len(b.children)-1)
		kids = append(kids, head...)
		kids = append(kids, b.children[1:]...)
		return pack(kids)
	}
}

// pack wraps kids in one parent, or two when they overflow MaxChildren.
func pack(kids []*node) []*node {
	if len(kids) <= MaxChildren {
		return []*node{newInternal(kids)}
	}
	mid := len(kids) / 2
	return []*node{newInternal(kids[:mid:mid]), newInternal(kids[mid:])}
}

// split divides n at byte offset off. Either result may be nil.
func split(n *node, off int) (*node, *node) {
	if n == nil {
		return nil, nil
	}
	if off <= 0 {
		return nil, n
	}
	if off >= n.sum.Bytes {
		return n, nil
	}
	if n.isLeaf() {
		return newLeaf(n.text[:off]), newLeaf(n.text[off:])
	}

	i, base := 0, 0
	for ; i < len(n.children)-1; i++ {
		size := n.children[i].sum.Bytes
		if off < base+size {
			break
		}
		base += size
	}

	l, r := split(n.children[i], off-base)
	left := join(siblings(n.children[:i]), l)
	right := join(r, siblings(n.children[i+1:]))
	return left, right
}

// siblings wraps a run of same-height nodes into a single subtree.
func siblings(kids []*node) *node {
	switch len(kids) {
	case 0:
		return nil
	case 1:
		return kids[0]
	}
	return newInternal(slices.Clone(kids))
}

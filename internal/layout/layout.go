// Package layout parses the tmux window layout string.
//
// tmux reports the layout of a window as a compact single-line
// description, and accepts the same string back to re-apply a layout:
//
//	41e9,279x71,0,0[279x40,0,0,71,279x30,0,41{147x30,0,41,72,131x30,148,41,73}]
//
// The leading hex token is a rolling checksum of the remainder. Each
// node starts with its geometry "WxH,x,y" and is either a pane
// (",pane_id"), a horizontal split of side-by-side children ("{...}"),
// or a vertical split of stacked children ("[...]").
package layout

import (
	"fmt"
	"strings"
)

// Orientation of a split node.
type Orientation int

const (
	// Horizontal lays children out side by side ("{...}").
	Horizontal Orientation = iota
	// Vertical stacks children top to bottom ("[...]").
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Layout is a parsed window layout: the advisory checksum token and
// the root geometry node.
type Layout struct {
	Checksum string
	Root     Node
}

// Node is one element of the layout tree. A node with no children is
// a pane; otherwise it is a split and Orientation applies.
type Node struct {
	Width  int
	Height int
	X      int
	Y      int

	// PaneID is the numeric tmux pane id. Leaf nodes only.
	PaneID int

	Orientation Orientation
	Children    []Node
}

// IsPane reports whether the node is a leaf pane.
func (n *Node) IsPane() bool { return len(n.Children) == 0 }

// ParseError describes a malformed layout string. Offset is the byte
// position of the offending field.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("layout: %s at offset %d", e.Msg, e.Offset)
}

// Parse decodes a tmux layout string. The checksum token is consumed
// but not validated against the body: tmux itself tolerates a
// mismatch, so a stale checksum must not fail a restore.
func Parse(input string) (*Layout, error) {
	p := &parser{input: input}

	checksum := p.hexToken()
	if checksum == "" {
		return nil, p.fail("expected checksum")
	}
	if !p.eat(',') {
		return nil, p.fail("expected ',' after checksum")
	}

	root, err := p.node()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, p.fail("trailing input after layout")
	}

	l := &Layout{Checksum: checksum, Root: root}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// PaneIDs returns the pane ids in pre-order, matching the grammar's
// left-to-right nesting. Restore relies on this order to pair captured
// content with newly created panes.
func (l *Layout) PaneIDs() []int {
	var ids []int
	walk(&l.Root, func(n *Node) {
		if n.IsPane() {
			ids = append(ids, n.PaneID)
		}
	})
	return ids
}

// String re-encodes the layout. Parsing the result yields an identical
// tree.
func (l *Layout) String() string {
	var b strings.Builder
	b.WriteString(l.Checksum)
	b.WriteByte(',')
	encode(&b, &l.Root)
	return b.String()
}

// Checksum computes tmux's rolling checksum of a layout body (the
// part after the leading "xxxx," token).
func Checksum(body string) string {
	var csum uint16
	for i := 0; i < len(body); i++ {
		csum = (csum >> 1) + ((csum & 1) << 15)
		csum += uint16(body[i])
	}
	return fmt.Sprintf("%04x", csum)
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for i := range n.Children {
		walk(&n.Children[i], fn)
	}
}

func encode(b *strings.Builder, n *Node) {
	fmt.Fprintf(b, "%dx%d,%d,%d", n.Width, n.Height, n.X, n.Y)
	if n.IsPane() {
		fmt.Fprintf(b, ",%d", n.PaneID)
		return
	}
	open, close := byte('{'), byte('}')
	if n.Orientation == Vertical {
		open, close = '[', ']'
	}
	b.WriteByte(open)
	for i := range n.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		encode(b, &n.Children[i])
	}
	b.WriteByte(close)
}

// validate checks the structural invariants: unique pane ids, splits
// with at least two children, and child extents along the split axis
// summing to the parent extent (tmux draws one separator line between
// adjacent children, hence the len-1 term).
func (l *Layout) validate() error {
	seen := make(map[int]bool)
	var verr error
	walk(&l.Root, func(n *Node) {
		if verr != nil {
			return
		}
		if n.IsPane() {
			if seen[n.PaneID] {
				verr = &ParseError{Msg: fmt.Sprintf("duplicate pane id %d", n.PaneID)}
			}
			seen[n.PaneID] = true
			return
		}
		if len(n.Children) < 2 {
			verr = &ParseError{Msg: "split with fewer than 2 children"}
			return
		}
		sum := len(n.Children) - 1
		for i := range n.Children {
			if n.Orientation == Horizontal {
				sum += n.Children[i].Width
			} else {
				sum += n.Children[i].Height
			}
		}
		parent := n.Width
		if n.Orientation == Vertical {
			parent = n.Height
		}
		if sum != parent {
			verr = &ParseError{Msg: fmt.Sprintf("%s split children span %d cells, parent has %d", n.Orientation, sum, parent)}
		}
	})
	return verr
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(msg string) error {
	return &ParseError{Offset: p.pos, Msg: msg}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) eat(c byte) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

// hexToken consumes a run of hex digits (the checksum).
func (p *parser) hexToken() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) number() (int, error) {
	start := p.pos
	n := 0
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		n = n*10 + int(p.input[p.pos]-'0')
		p.pos++
	}
	if p.pos == start {
		return 0, p.fail("expected number")
	}
	return n, nil
}

// node parses "WxH,x,y" followed by a pane id or a bracketed split.
func (p *parser) node() (Node, error) {
	var n Node
	var err error

	if n.Width, err = p.number(); err != nil {
		return n, err
	}
	if !p.eat('x') {
		return n, p.fail("expected 'x' in geometry")
	}
	if n.Height, err = p.number(); err != nil {
		return n, err
	}
	if !p.eat(',') {
		return n, p.fail("expected ',' before x offset")
	}
	if n.X, err = p.number(); err != nil {
		return n, err
	}
	if !p.eat(',') {
		return n, p.fail("expected ',' before y offset")
	}
	if n.Y, err = p.number(); err != nil {
		return n, err
	}

	switch p.peek() {
	case ',':
		p.pos++
		if n.PaneID, err = p.number(); err != nil {
			return n, &ParseError{Offset: p.pos, Msg: "expected pane id"}
		}
		return n, nil
	case '{':
		n.Orientation = Horizontal
		n.Children, err = p.split('{', '}')
		return n, err
	case '[':
		n.Orientation = Vertical
		n.Children, err = p.split('[', ']')
		return n, err
	default:
		return n, p.fail("expected pane id or split")
	}
}

func (p *parser) split(open, close byte) ([]Node, error) {
	if !p.eat(open) {
		return nil, p.fail(fmt.Sprintf("expected %q", open))
	}
	var children []Node
	for {
		child, err := p.node()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if p.eat(',') {
			continue
		}
		break
	}
	if !p.eat(close) {
		return nil, p.fail(fmt.Sprintf("expected %q or ','", close))
	}
	return children, nil
}

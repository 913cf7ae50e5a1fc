package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Cursor is the walker's view of one node: the node itself, its parent and
// the grammar field it occupies in the parent ("" when unnamed).
type Cursor struct {
	Node   *sitter.Node
	Parent *sitter.Node
	Field  string
}

func (c Cursor) Kind() string {
	if c.Node == nil {
		return ""
	}
	return c.Node.Kind()
}

func (c Cursor) ParentKind() string {
	if c.Parent == nil {
		return ""
	}
	return c.Parent.Kind()
}

// NodeHandler is dispatched by node kind. Enter returns true when it has
// already walked (or deliberately skipped) the node's children.
type NodeHandler struct {
	Enter func(w *Walker, c Cursor) bool
	Leave func(w *Walker, c Cursor)
}

// Walker visits a syntax tree dispatching handlers on node kind. Kinds without
// a handler fall back to visiting every child in order.
type Walker struct {
	handlers map[string]NodeHandler
	// Visit, when set, runs for every node before its kind handler.
	Visit func(c Cursor)
	// After, when set, runs for every node once its subtree is done.
	After func(c Cursor)
}

func NewWalker(handlers map[string]NodeHandler) *Walker {
	if handlers == nil {
		handlers = make(map[string]NodeHandler)
	}
	return &Walker{handlers: handlers}
}

func (w *Walker) Walk(node *sitter.Node) {
	w.WalkCursor(Cursor{Node: node})
}

func (w *Walker) WalkCursor(c Cursor) {
	if c.Node == nil || IsTrivia(c.Node.Kind()) {
		return
	}
	if w.Visit != nil {
		w.Visit(c)
	}

	// Keyword tokens share kind names with some nodes ("class", "function"),
	// so only named nodes are dispatched.
	var h NodeHandler
	ok := false
	if c.Node.IsNamed() {
		h, ok = w.handlers[c.Node.Kind()]
	}
	done := false
	if ok && h.Enter != nil {
		done = h.Enter(w, c)
	}
	if !done {
		w.WalkChildren(c.Node)
	}
	if ok && h.Leave != nil {
		h.Leave(w, c)
	}
	if w.After != nil {
		w.After(c)
	}
}

// WalkChildren visits every child of node in source order.
func (w *Walker) WalkChildren(node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		w.WalkCursor(Cursor{
			Node:   node.Child(i),
			Parent: node,
			Field:  node.FieldNameForChild(uint32(i)),
		})
	}
}

// WalkExcept visits every child of node except those stored under the
// listed fields.
func (w *Walker) WalkExcept(node *sitter.Node, skip ...string) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		field := node.FieldNameForChild(uint32(i))
		if field != "" && containsString(skip, field) {
			continue
		}
		w.WalkCursor(Cursor{Node: node.Child(i), Parent: node, Field: field})
	}
}

// NamedChildren returns the named, non-trivia children of node.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil || IsTrivia(child.Kind()) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// HasChildKind reports whether any direct child (named or not) has kind.
func HasChildKind(node *sitter.Node, kind string) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// # internal/engine/parser/types.go
package parser

import (
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Unit is one parsed source file. The tree stays valid until Close; every
// *sitter.Node handed out by the analyzer points into it.
type Unit struct {
	Path     string
	Language string
	Source   []byte
	Tree     *sitter.Tree
	ParsedAt time.Time
}

func (u *Unit) Root() *sitter.Node {
	if u == nil || u.Tree == nil {
		return nil
	}
	return u.Tree.RootNode()
}

func (u *Unit) Text(node *sitter.Node) string {
	return NodeText(node, u.Source)
}

func (u *Unit) Location(node *sitter.Node) Location {
	return NodeLocation(u.Path, node)
}

func (u *Unit) Close() {
	if u == nil || u.Tree == nil {
		return
	}
	u.Tree.Close()
	u.Tree = nil
}

type Location struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	StartByte uint
	EndByte   uint
}

func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

func NodeLocation(file string, node *sitter.Node) Location {
	if node == nil {
		return Location{File: file}
	}
	return Location{
		File:      file,
		Line:      int(node.StartPosition().Row) + 1,
		Column:    int(node.StartPosition().Column) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
	}
}

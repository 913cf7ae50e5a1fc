package module

import (
	"shaker/internal/engine/parser"
	"shaker/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// declarePattern declares every name bound by a binding target: a plain
// identifier or any nesting of object/array/assignment/rest patterns.
// Default values are left for the walker; they hold references, not bindings.
func (c *collector) declarePattern(node *sitter.Node, target scope.ID, kind DeclKind) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case parser.KindIdentifier, parser.KindShorthandPropertyIdentPatt:
		c.declare(target, node, kind)
	case parser.KindAssignmentPattern, parser.KindObjectAssignmentPattern:
		c.declarePattern(node.ChildByFieldName("left"), target, kind)
	case parser.KindPairPattern:
		c.declarePattern(node.ChildByFieldName("value"), target, kind)
	case parser.KindRequiredParameterTS, parser.KindOptionalParameterTS:
		c.declarePattern(node.ChildByFieldName("pattern"), target, kind)
	case parser.KindRestPattern, parser.KindObjectPattern, parser.KindArrayPattern:
		// array holes are bare commas and produce no named child
		for _, child := range parser.NamedChildren(node) {
			c.declarePattern(child, target, kind)
		}
	case "this", "undefined", parser.KindTypeAnnotation:
	default:
		c.warnUnknownPattern(node)
	}
}

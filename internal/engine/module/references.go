package module

import (
	"unicode"
	"unicode/utf8"

	"shaker/internal/engine/parser"
	"shaker/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// referenceResolver is the second pass. It re-enters the scopes the
// collector opened, using the node side table, and resolves every identifier
// in reference position.
type referenceResolver struct {
	m        *Module
	scopeOf  map[uintptr]scope.ID
	bindings map[uintptr]bool
	stack    []scope.ID
	stmt     *Statement
}

func newReferenceResolver(m *Module, c *collector) *referenceResolver {
	return &referenceResolver{
		m:        m,
		scopeOf:  c.scopeOf,
		bindings: c.bindings,
		stack:    []scope.ID{m.Root},
	}
}

func (r *referenceResolver) resolve() {
	skip := parser.NodeHandler{Enter: func(*parser.Walker, parser.Cursor) bool { return true }}
	w := parser.NewWalker(map[string]parser.NodeHandler{
		parser.KindInterfaceDeclaration: skip,
		parser.KindTypeAliasDeclaration: skip,
		parser.KindAmbientDeclaration:   skip,
		parser.KindFunctionSignature:    skip,
		parser.KindTypeAnnotation:       skip,
		parser.KindTypeArguments:        skip,
		parser.KindTypeParameters:       skip,
		parser.KindImplementsClause:     skip,
	})
	w.Visit = func(cur parser.Cursor) {
		if id, ok := r.scopeOf[cur.Node.Id()]; ok {
			r.stack = append(r.stack, id)
		}
		if r.isReference(cur) {
			r.record(cur.Node)
		}
	}
	w.After = func(cur parser.Cursor) {
		if _, ok := r.scopeOf[cur.Node.Id()]; ok {
			r.stack = r.stack[:len(r.stack)-1]
		}
	}

	for _, st := range r.m.Statements {
		if st.Kind == StmtImport || st.Kind == StmtReExport {
			continue
		}
		r.stmt = st
		w.Walk(st.Node)
	}
	r.stmt = nil
}

func (r *referenceResolver) current() scope.ID {
	return r.stack[len(r.stack)-1]
}

// isReference applies the positional rules: bound names, import/export
// specifier names, labels, property keys and intrinsic JSX tags are not
// references. Property keys and labels have their own node kinds in the
// grammar, so only identifier-like kinds reach the parent checks.
func (r *referenceResolver) isReference(cur parser.Cursor) bool {
	switch cur.Kind() {
	case parser.KindIdentifier, parser.KindShorthandPropertyIdent, parser.KindShorthandPropertyIdentPatt:
	default:
		return false
	}
	if !cur.Node.IsNamed() || r.bindings[cur.Node.Id()] {
		return false
	}
	switch cur.ParentKind() {
	case parser.KindImportSpecifier, parser.KindImportClause, parser.KindNamespaceImport,
		parser.KindExportSpecifier, parser.KindNamespaceExport, parser.KindImportRequireTS,
		parser.KindMetaProperty:
		return false
	case parser.KindJSXOpeningElement, parser.KindJSXClosingElement, parser.KindJSXSelfClosing:
		if cur.Field == "name" && isIntrinsicTag(r.m.Text(cur.Node)) {
			return false
		}
	}
	return true
}

func (r *referenceResolver) record(node *sitter.Node) {
	name := r.m.Text(node)
	at := r.current()
	ref := &Reference{
		Name:      name,
		Node:      node,
		Statement: r.stmt.Index,
		Scope:     at,
		Location:  r.m.Unit.Location(node),
	}
	if _, b, ok := r.m.Scopes.Resolve(at, name); ok {
		ref.Decl, _ = b.(*Declaration)
	}
	if ref.Decl == nil {
		r.m.PotentialGlobals[name] = true
	}
	r.m.References[name] = append(r.m.References[name], ref)
	r.stmt.References = append(r.stmt.References, ref)
}

// isIntrinsicTag reports lowercase JSX tag names (<div>), which name host
// elements rather than bindings.
func isIntrinsicTag(name string) bool {
	first, _ := utf8.DecodeRuneInString(name)
	return first != utf8.RuneError && unicode.IsLower(first)
}

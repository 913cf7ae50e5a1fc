package module

import (
	"shaker/internal/engine/parser"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func (c *collector) collectImport(st *Statement) {
	node := st.Node
	spec := c.stringValue(node.ChildByFieldName("source"))

	for _, child := range parser.NamedChildren(node) {
		switch child.Kind() {
		case parser.KindImportClause:
			c.importClause(child, spec, st)
		case parser.KindImportRequireTS:
			// TS `import x = require("y")` binds the whole module object
			spec = c.stringValue(child.ChildByFieldName("source"))
			for _, id := range parser.NamedChildren(child) {
				if id.Kind() == parser.KindIdentifier {
					c.bindImport(id, NamespaceName, spec, st)
					break
				}
			}
		}
	}
	if spec != "" {
		c.m.addSpecifier(spec, st.Location)
	}
}

func (c *collector) importClause(clause *sitter.Node, spec string, st *Statement) {
	for _, child := range parser.NamedChildren(clause) {
		switch child.Kind() {
		case parser.KindIdentifier:
			c.bindImport(child, "default", spec, st)
		case parser.KindNamespaceImport:
			for _, id := range parser.NamedChildren(child) {
				if id.Kind() == parser.KindIdentifier {
					c.bindImport(id, NamespaceName, spec, st)
				}
			}
		case parser.KindNamedImports:
			for _, s := range parser.NamedChildren(child) {
				if s.Kind() != parser.KindImportSpecifier {
					continue
				}
				name := s.ChildByFieldName("name")
				local := s.ChildByFieldName("alias")
				if local == nil {
					local = name
				}
				if name == nil {
					continue
				}
				c.bindImport(local, c.nameValue(name), spec, st)
			}
		}
	}
}

func (c *collector) bindImport(local *sitter.Node, imported, spec string, st *Statement) {
	b := &ImportBinding{
		LocalName:    c.m.Text(local),
		ImportedName: imported,
		Specifier:    spec,
		Statement:    st.Index,
		Location:     c.m.Unit.Location(local),
	}
	c.m.Imports = append(c.m.Imports, b)
	d := c.declare(c.m.Root, local, DeclImport)
	d.Import = b
}

func (c *collector) collectExport(st *Statement) {
	node := st.Node

	if source := node.ChildByFieldName("source"); source != nil {
		st.Kind = StmtReExport
		spec := c.stringValue(source)
		c.m.addSpecifier(spec, st.Location)
		listed := false
		for _, child := range parser.NamedChildren(node) {
			switch child.Kind() {
			case parser.KindNamespaceExport:
				listed = true
				names := parser.NamedChildren(child)
				if len(names) == 0 {
					continue
				}
				c.m.addExport(&ExportEntry{
					ExportedName: c.nameValue(names[len(names)-1]),
					LocalName:    NamespaceName,
					Specifier:    spec,
					Statement:    st.Index,
					Location:     c.m.Unit.Location(child),
				})
			case parser.KindExportClause:
				listed = true
				c.exportClause(child, spec, st)
			}
		}
		if !listed {
			c.m.StarExports = append(c.m.StarExports, &StarExport{
				Specifier: spec,
				Statement: st.Index,
				Location:  st.Location,
			})
		}
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		st.Kind = StmtDeclaration
		before := len(st.Defines)
		c.walker.Walk(decl)
		names := st.Defines[before:]
		if parser.HasChildKind(node, parser.KindDefaultKeyword) {
			if len(names) > 0 {
				c.exportLocal("default", names[0], st, decl)
			}
			return
		}
		for _, name := range names {
			c.exportLocal(name, name, st, decl)
		}
		return
	}

	if value := node.ChildByFieldName("value"); value != nil {
		if value.Kind() == parser.KindIdentifier {
			st.Kind = StmtExportList
			c.exportLocal("default", c.m.Text(value), st, value)
			return
		}
		st.Kind = StmtDeclaration
		c.bind(c.m.Root, &Declaration{
			Name:      DefaultLocal,
			Kind:      DeclDefault,
			Node:      value,
			Scope:     c.m.Root,
			Statement: st.Index,
			Location:  c.m.Unit.Location(value),
		})
		c.exportLocal("default", DefaultLocal, st, value)
		c.walker.Walk(value)
		return
	}

	st.Kind = StmtExportList
	for _, child := range parser.NamedChildren(node) {
		if child.Kind() == parser.KindExportClause {
			c.exportClause(child, "", st)
		}
	}
}

func (c *collector) exportClause(clause *sitter.Node, spec string, st *Statement) {
	for _, s := range parser.NamedChildren(clause) {
		if s.Kind() != parser.KindExportSpecifier {
			continue
		}
		name := s.ChildByFieldName("name")
		if name == nil {
			continue
		}
		exported := name
		if alias := s.ChildByFieldName("alias"); alias != nil {
			exported = alias
		}
		c.m.addExport(&ExportEntry{
			ExportedName: c.nameValue(exported),
			LocalName:    c.nameValue(name),
			Specifier:    spec,
			Statement:    st.Index,
			Location:     c.m.Unit.Location(s),
		})
	}
}

func (c *collector) exportLocal(exported, local string, st *Statement, at *sitter.Node) {
	c.m.addExport(&ExportEntry{
		ExportedName: exported,
		LocalName:    local,
		Statement:    st.Index,
		Location:     c.m.Unit.Location(at),
	})
}

// nameValue reads an import/export name, which may be an identifier or a
// string literal (`export { x as "a-b" }`).
func (c *collector) nameValue(node *sitter.Node) string {
	if node.Kind() == parser.KindString {
		return c.stringValue(node)
	}
	return c.m.Text(node)
}

func (c *collector) stringValue(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	text := c.m.Text(node)
	if len(text) >= 2 {
		q := text[0]
		if (q == '"' || q == '\'') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return text
}

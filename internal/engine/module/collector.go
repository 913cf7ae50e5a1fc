package module

import (
	"log/slog"

	"shaker/internal/engine/parser"
	"shaker/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// collector is the first pass: it creates every scope, records which node
// opened it, and declares every binding at the scope its kind requires.
type collector struct {
	m        *Module
	walker   *parser.Walker
	current  scope.ID
	stmt     int
	scopeOf  map[uintptr]scope.ID
	bindings map[uintptr]bool
}

func newCollector(m *Module) *collector {
	c := &collector{
		m:        m,
		stmt:     -1,
		scopeOf:  make(map[uintptr]scope.ID),
		bindings: make(map[uintptr]bool),
	}
	c.walker = parser.NewWalker(c.handlers())
	return c
}

func (c *collector) handlers() map[string]parser.NodeHandler {
	fn := parser.NodeHandler{Enter: c.enterFunction}
	block := parser.NodeHandler{Enter: c.enterBlock}
	class := parser.NodeHandler{Enter: c.enterClassDeclaration}
	typeDecl := parser.NodeHandler{Enter: c.enterTypeDeclaration}
	skip := parser.NodeHandler{Enter: func(*parser.Walker, parser.Cursor) bool { return true }}

	return map[string]parser.NodeHandler{
		parser.KindFunctionDeclaration:      fn,
		parser.KindGeneratorFunctionDecl:    fn,
		parser.KindFunctionExpression:       fn,
		parser.KindFunctionLegacy:           fn,
		parser.KindGeneratorFunction:        fn,
		parser.KindArrowFunction:            fn,
		parser.KindMethodDefinition:         fn,
		parser.KindClassDeclaration:         class,
		parser.KindAbstractClassDeclaration: class,
		parser.KindClassExpression:          {Enter: c.enterClassExpression},
		parser.KindStatementBlock:           block,
		parser.KindSwitchBody:               block,
		parser.KindForStatement:             block,
		parser.KindForInStatement:           {Enter: c.enterForIn},
		parser.KindCatchClause:              {Enter: c.enterCatch},
		parser.KindClassStaticBlock:         {Enter: c.enterStaticBlock},
		parser.KindLexicalDeclaration:       {Enter: c.enterLexical},
		parser.KindVariableDeclaration:      {Enter: c.enterVar},
		parser.KindEnumDeclaration:          {Enter: c.enterEnum},
		parser.KindInterfaceDeclaration:     typeDecl,
		parser.KindTypeAliasDeclaration:     typeDecl,
		parser.KindAmbientDeclaration:       {Enter: c.enterAmbient},
		parser.KindFunctionSignature:        skip,
		parser.KindTypeAnnotation:           skip,
		parser.KindTypeArguments:            skip,
		parser.KindTypeParameters:           skip,
	}
}

func (c *collector) collect(root *sitter.Node) {
	c.m.Root = c.m.Scopes.New(scope.None, true)
	c.scopeOf[root.Id()] = c.m.Root
	c.current = c.m.Root

	for i, node := range parser.NamedChildren(root) {
		st := &Statement{Index: i, Node: node, Location: c.m.Unit.Location(node)}
		c.m.Statements = append(c.m.Statements, st)
		c.stmt = i
		c.statement(st)
	}
	c.stmt = -1

	for _, name := range c.m.Scopes.Names(c.m.Root) {
		b, _ := c.m.Scopes.Lookup(c.m.Root, name)
		if d, ok := b.(*Declaration); ok {
			c.m.Definitions[name] = d
		}
	}
	c.bindGlobalDefault()
}

// bindGlobalDefault handles `export default <name>` when name has no
// module-scope binding (`export default Math`). The export then holds a value
// like any default expression, and name stays a potential global.
func (c *collector) bindGlobalDefault() {
	exp := c.m.Exports["default"]
	if exp == nil || exp.IsReExport() || exp.LocalName == DefaultLocal {
		return
	}
	if _, ok := c.m.Definitions[exp.LocalName]; ok {
		return
	}
	st := c.m.Statements[exp.Statement]
	value := st.Node.ChildByFieldName("value")
	if value == nil {
		return
	}

	c.stmt = st.Index
	st.Kind = StmtDeclaration
	d := &Declaration{
		Name:      DefaultLocal,
		Kind:      DeclDefault,
		Node:      value,
		Scope:     c.m.Root,
		Statement: st.Index,
		Location:  c.m.Unit.Location(value),
	}
	c.bind(c.m.Root, d)
	c.stmt = -1
	c.m.Definitions[DefaultLocal] = d
	exp.LocalName = DefaultLocal
}

func (c *collector) statement(st *Statement) {
	switch st.Node.Kind() {
	case parser.KindImportStatement:
		st.Kind = StmtImport
		c.collectImport(st)
	case parser.KindExportStatement:
		c.collectExport(st)
	case parser.KindLexicalDeclaration, parser.KindVariableDeclaration,
		parser.KindFunctionDeclaration, parser.KindGeneratorFunctionDecl,
		parser.KindClassDeclaration, parser.KindAbstractClassDeclaration,
		parser.KindEnumDeclaration, parser.KindInterfaceDeclaration,
		parser.KindTypeAliasDeclaration, parser.KindAmbientDeclaration,
		parser.KindFunctionSignature:
		st.Kind = StmtDeclaration
		c.walker.Walk(st.Node)
	case parser.KindEmptyStatement:
		st.Kind = StmtEmpty
	default:
		st.Kind = StmtSideEffect
		c.walker.Walk(st.Node)
	}
}

// declare binds the identifier node into target and remembers the node as a
// binding position for the reference pass.
func (c *collector) declare(target scope.ID, node *sitter.Node, kind DeclKind) *Declaration {
	d := &Declaration{
		Name:      c.m.Text(node),
		Kind:      kind,
		Node:      node,
		Scope:     target,
		Statement: c.stmt,
		Location:  c.m.Unit.Location(node),
	}
	c.bindings[node.Id()] = true
	c.bind(target, d)
	return d
}

func (c *collector) bind(target scope.ID, d *Declaration) {
	c.m.Scopes.Declare(target, d.Name, d)
	if target != c.m.Root || c.stmt < 0 {
		return
	}
	st := c.m.Statements[c.stmt]
	for _, name := range st.Defines {
		if name == d.Name {
			return
		}
	}
	st.Defines = append(st.Defines, d.Name)
}

func (c *collector) push(node *sitter.Node, hoist bool) scope.ID {
	outer := c.current
	c.current = c.m.Scopes.New(outer, hoist)
	c.scopeOf[node.Id()] = c.current
	return outer
}

func (c *collector) enterFunction(w *parser.Walker, cur parser.Cursor) bool {
	node := cur.Node
	kind := node.Kind()
	name := node.ChildByFieldName("name")
	isDecl := kind == parser.KindFunctionDeclaration || kind == parser.KindGeneratorFunctionDecl

	if isDecl && name != nil {
		c.declare(c.current, name, DeclFunction)
	}
	if kind == parser.KindMethodDefinition && name != nil {
		// computed keys are evaluated in the enclosing scope
		w.WalkCursor(parser.Cursor{Node: name, Parent: node, Field: "name"})
	}

	outer := c.push(node, true)
	fnScope := c.current
	if !isDecl && name != nil && kind != parser.KindMethodDefinition {
		c.declare(fnScope, name, DeclFunction)
	}
	if kind != parser.KindArrowFunction {
		c.m.Scopes.Declare(fnScope, "arguments", &Declaration{
			Name: "arguments", Kind: DeclImplicit, Node: node, Scope: fnScope, Statement: c.stmt,
		})
	}
	if p := node.ChildByFieldName("parameter"); p != nil {
		c.declarePattern(p, fnScope, DeclParam)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for _, p := range parser.NamedChildren(params) {
			c.declarePattern(p, fnScope, DeclParam)
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		field := node.FieldNameForChild(uint32(i))
		switch {
		case field == "name":
			continue
		case field == "body" && child.Kind() == parser.KindStatementBlock:
			// the body block shares the function scope with the parameters
			w.WalkChildren(child)
		default:
			w.WalkCursor(parser.Cursor{Node: child, Parent: node, Field: field})
		}
	}

	c.current = outer
	return true
}

func (c *collector) enterClassDeclaration(w *parser.Walker, cur parser.Cursor) bool {
	if name := cur.Node.ChildByFieldName("name"); name != nil {
		c.declare(c.current, name, DeclClass)
	}
	w.WalkExcept(cur.Node, "name")
	return true
}

// enterClassExpression gives a named class expression its own scope holding
// only the class name.
func (c *collector) enterClassExpression(w *parser.Walker, cur parser.Cursor) bool {
	name := cur.Node.ChildByFieldName("name")
	if name == nil {
		return false
	}
	outer := c.push(cur.Node, false)
	c.declare(c.current, name, DeclClass)
	w.WalkExcept(cur.Node, "name")
	c.current = outer
	return true
}

func (c *collector) enterBlock(w *parser.Walker, cur parser.Cursor) bool {
	outer := c.push(cur.Node, false)
	w.WalkChildren(cur.Node)
	c.current = outer
	return true
}

func (c *collector) enterStaticBlock(w *parser.Walker, cur parser.Cursor) bool {
	outer := c.push(cur.Node, true)
	w.WalkChildren(cur.Node)
	c.current = outer
	return true
}

func (c *collector) enterForIn(w *parser.Walker, cur parser.Cursor) bool {
	outer := c.push(cur.Node, false)
	if kindNode := cur.Node.ChildByFieldName("kind"); kindNode != nil {
		left := cur.Node.ChildByFieldName("left")
		switch c.m.Text(kindNode) {
		case "var":
			c.declarePattern(left, c.m.Scopes.HoistTarget(c.current), DeclVar)
		case "const":
			c.declarePattern(left, c.current, DeclConst)
		default:
			c.declarePattern(left, c.current, DeclLet)
		}
	}
	w.WalkChildren(cur.Node)
	c.current = outer
	return true
}

func (c *collector) enterCatch(w *parser.Walker, cur parser.Cursor) bool {
	outer := c.push(cur.Node, false)
	if p := cur.Node.ChildByFieldName("parameter"); p != nil {
		c.declarePattern(p, c.current, DeclCatch)
	}
	w.WalkChildren(cur.Node)
	c.current = outer
	return true
}

func (c *collector) enterLexical(_ *parser.Walker, cur parser.Cursor) bool {
	kind := DeclLet
	if k := cur.Node.ChildByFieldName("kind"); k != nil && c.m.Text(k) == "const" {
		kind = DeclConst
	}
	c.declareDeclarators(cur.Node, c.current, kind)
	return false
}

func (c *collector) enterVar(_ *parser.Walker, cur parser.Cursor) bool {
	c.declareDeclarators(cur.Node, c.m.Scopes.HoistTarget(c.current), DeclVar)
	return false
}

func (c *collector) declareDeclarators(node *sitter.Node, target scope.ID, kind DeclKind) {
	for _, child := range parser.NamedChildren(node) {
		if child.Kind() != parser.KindVariableDeclarator {
			continue
		}
		c.declarePattern(child.ChildByFieldName("name"), target, kind)
	}
}

func (c *collector) enterEnum(_ *parser.Walker, cur parser.Cursor) bool {
	if name := cur.Node.ChildByFieldName("name"); name != nil {
		c.declare(c.current, name, DeclEnum)
	}
	return false
}

// Types are declared so that type-only imports bind, but their bodies are
// never walked.
func (c *collector) enterTypeDeclaration(_ *parser.Walker, cur parser.Cursor) bool {
	if name := cur.Node.ChildByFieldName("name"); name != nil {
		c.declare(c.current, name, DeclType)
	}
	return true
}

// enterAmbient declares the names of `declare ...` forms as types: they bind
// and can be exported, but carry no code to emit.
func (c *collector) enterAmbient(_ *parser.Walker, cur parser.Cursor) bool {
	for _, child := range parser.NamedChildren(cur.Node) {
		switch child.Kind() {
		case parser.KindLexicalDeclaration, parser.KindVariableDeclaration:
			c.declareDeclarators(child, c.current, DeclType)
		case parser.KindFunctionSignature, parser.KindClassDeclaration,
			parser.KindAbstractClassDeclaration, parser.KindEnumDeclaration,
			parser.KindInterfaceDeclaration, parser.KindTypeAliasDeclaration:
			if name := child.ChildByFieldName("name"); name != nil {
				c.declare(c.current, name, DeclType)
			}
		}
	}
	return true
}

func (c *collector) warnUnknownPattern(node *sitter.Node) {
	loc := c.m.Unit.Location(node)
	c.m.addWarning(WarnUnknownPattern, "unrecognized binding pattern "+node.Kind()+" skipped", loc)
	slog.Warn("skipping unrecognized binding pattern",
		"path", c.m.ID,
		"kind", node.Kind(),
		"line", loc.Line,
	)
}

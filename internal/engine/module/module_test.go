package module

import (
	"testing"

	"shaker/internal/engine/parser"
	"shaker/internal/engine/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, path, src string) *Module {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	unit, err := parser.NewParser(loader).Parse(path, []byte(src))
	require.NoError(t, err)
	m, err := Analyze(unit)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func onlyRef(t *testing.T, m *Module, name string) *Reference {
	t.Helper()
	refs := m.References[name]
	require.Len(t, refs, 1, "references to %s", name)
	return refs[0]
}

func TestAnalyze_VarHoistsToFunctionScope(t *testing.T) {
	m := analyze(t, "/src/a.js", `
function f(c) {
  if (c) {
    var v = 1
  }
  return v
}
`)
	ref := onlyRef(t, m, "v")
	require.True(t, ref.Resolved())
	assert.Equal(t, DeclVar, ref.Decl.Kind)
	assert.NotEqual(t, m.Root, ref.Decl.Scope)
	assert.True(t, m.Scopes.Get(ref.Decl.Scope).HoistBoundary)
	assert.NotContains(t, m.Definitions, "v")
}

func TestAnalyze_TopLevelVarInBlockDefinesAtRoot(t *testing.T) {
	m := analyze(t, "/src/a.js", "if (x) { var hoisted = 1 }\nhoisted\n")

	require.Contains(t, m.Definitions, "hoisted")
	assert.Equal(t, 0, m.Definitions["hoisted"].Statement)
	assert.Equal(t, []string{"hoisted"}, m.Statements[0].Defines)
	assert.True(t, onlyRef(t, m, "hoisted").Resolved())
}

func TestAnalyze_LetIsBlockScoped(t *testing.T) {
	m := analyze(t, "/src/a.js", "{ let a = 1 }\na\n")

	assert.False(t, onlyRef(t, m, "a").Resolved())
	assert.True(t, m.PotentialGlobals["a"])
	assert.NotContains(t, m.Definitions, "a")
}

func TestAnalyze_SiblingScopesDoNotLeak(t *testing.T) {
	m := analyze(t, "/src/a.js", "{ const s = 1 }\n{ s }\n")

	ref := onlyRef(t, m, "s")
	assert.False(t, ref.Resolved())
}

func TestAnalyze_NearestDeclarationWins(t *testing.T) {
	m := analyze(t, "/src/a.js", `
const x = 1
function g(x) { return x }
x
`)
	refs := m.References["x"]
	require.Len(t, refs, 2)

	inner, outer := refs[0], refs[1]
	assert.Equal(t, DeclParam, inner.Decl.Kind)
	assert.Equal(t, DeclConst, outer.Decl.Kind)
	assert.Same(t, m.Definitions["x"], outer.Decl)
	assert.Equal(t, 0, outer.Decl.Statement)
}

func TestAnalyze_DestructuringPatterns(t *testing.T) {
	m := analyze(t, "/src/a.js", `
const { a, b: { c }, d = dflt, ...rest } = obj
const [e, , f = g, ...h] = arr
function p({ q }, [r], s = 1, ...t) { return q + r + s + t }
`)
	for _, name := range []string{"a", "c", "d", "rest", "e", "f", "h", "p"} {
		assert.Contains(t, m.Definitions, name)
	}
	assert.NotContains(t, m.Definitions, "b")
	for _, name := range []string{"obj", "arr", "dflt", "g"} {
		assert.True(t, m.PotentialGlobals[name], name)
	}
	for _, name := range []string{"q", "r", "s", "t"} {
		ref := onlyRef(t, m, name)
		require.True(t, ref.Resolved(), name)
		assert.Equal(t, DeclParam, ref.Decl.Kind, name)
	}
	assert.ElementsMatch(t, []string{"a", "c", "d", "rest"}, m.Statements[0].Defines)
	assert.Empty(t, m.Warnings)
}

func TestAnalyze_FunctionExpressionNameIsPrivate(t *testing.T) {
	m := analyze(t, "/src/a.js", `
const k = function inner() { return inner }
const K = class Named { make() { return new Named() } }
inner
Named
`)
	innerRefs := m.References["inner"]
	require.Len(t, innerRefs, 2)
	assert.True(t, innerRefs[0].Resolved())
	assert.False(t, innerRefs[1].Resolved())

	namedRefs := m.References["Named"]
	require.Len(t, namedRefs, 2)
	assert.True(t, namedRefs[0].Resolved())
	assert.False(t, namedRefs[1].Resolved())

	assert.Contains(t, m.Definitions, "k")
	assert.Contains(t, m.Definitions, "K")
	assert.NotContains(t, m.Definitions, "inner")
	assert.NotContains(t, m.Definitions, "Named")
}

func TestAnalyze_NonReferencePositions(t *testing.T) {
	m := analyze(t, "/src/a.js", `
const obj = { key: 1, other }
obj.prop
outer: for (;;) { break outer }
class C { method() { return this } }
`)
	for _, name := range []string{"key", "prop", "outer", "method"} {
		assert.Empty(t, m.References[name], name)
	}
	assert.Len(t, m.References["obj"], 1)
	assert.True(t, m.PotentialGlobals["other"])
}

func TestAnalyze_CatchAndLoopBindings(t *testing.T) {
	m := analyze(t, "/src/a.js", `
try { run() } catch ({ message }) { log(message) }
for (const item of items) { use(item) }
for (let i = 0; i < 3; i++) { use(i) }
i
`)
	assert.Equal(t, DeclCatch, onlyRef(t, m, "message").Decl.Kind)
	assert.Equal(t, DeclConst, onlyRef(t, m, "item").Decl.Kind)

	iRefs := m.References["i"]
	require.Len(t, iRefs, 4)
	for _, ref := range iRefs[:3] {
		assert.True(t, ref.Resolved())
	}
	assert.False(t, iRefs[3].Resolved())
}

func TestAnalyze_ArgumentsIsImplicit(t *testing.T) {
	m := analyze(t, "/src/a.js", "function f() { return arguments.length }\n")

	ref := onlyRef(t, m, "arguments")
	require.True(t, ref.Resolved())
	assert.Equal(t, DeclImplicit, ref.Decl.Kind)
	assert.False(t, m.PotentialGlobals["arguments"])
}

func TestAnalyze_StatementKindsAndReferences(t *testing.T) {
	m := analyze(t, "/src/a.js", `
import { dep } from './dep'
function a() { return b() + dep }
function b() { return 1 }
console.log(a());
;
export { a }
export { z } from './z'
`)
	require.Len(t, m.Statements, 7)
	kinds := make([]StatementKind, 0, len(m.Statements))
	for _, st := range m.Statements {
		kinds = append(kinds, st.Kind)
	}
	assert.Equal(t, []StatementKind{
		StmtImport, StmtDeclaration, StmtDeclaration, StmtSideEffect, StmtEmpty, StmtExportList, StmtReExport,
	}, kinds)

	aRefs := map[string]*Reference{}
	for _, ref := range m.Statements[1].References {
		aRefs[ref.Name] = ref
	}
	require.Contains(t, aRefs, "b")
	assert.Equal(t, 2, aRefs["b"].Decl.Statement)
	require.Contains(t, aRefs, "dep")
	assert.Equal(t, DeclImport, aRefs["dep"].Decl.Kind)
	assert.Equal(t, "dep", aRefs["dep"].Decl.Import.ImportedName)

	assert.True(t, m.PotentialGlobals["console"])
	assert.True(t, m.Statements[3].Kind.Emittable())
	assert.False(t, m.Statements[0].Kind.Emittable())
}

func TestAnalyze_ImportBindings(t *testing.T) {
	m := analyze(t, "/src/a.js", `
import def, { a as b, c } from './m'
import * as ns from './n'
import './side'
`)
	assert.Equal(t, []string{"./m", "./n", "./side"}, m.Specifiers)
	require.Len(t, m.Imports, 4)

	byLocal := map[string]*ImportBinding{}
	for _, imp := range m.Imports {
		byLocal[imp.LocalName] = imp
	}
	assert.Equal(t, "default", byLocal["def"].ImportedName)
	assert.Equal(t, "a", byLocal["b"].ImportedName)
	assert.Equal(t, "c", byLocal["c"].ImportedName)
	assert.True(t, byLocal["ns"].IsNamespace())
	assert.Equal(t, "./n", byLocal["ns"].Specifier)

	assert.Same(t, byLocal["b"], m.ImportFor("b"))
	assert.Nil(t, m.ImportFor("a"))

	m.SetSource("./m", "/src/m.js")
	m.MarkExternal("./n")
	assert.Equal(t, "/src/m.js", byLocal["def"].SourceID)
	assert.Equal(t, "/src/m.js", byLocal["c"].SourceID)
	assert.True(t, byLocal["ns"].External)
}

func TestAnalyze_ExportForms(t *testing.T) {
	m := analyze(t, "/src/a.js", `
export const one = 1, two = 2
export function three() {}
export class Four {}
const local = 5
export { local as five, local }
export default function named() {}
export * from './star'
export * as nsx from './nsx'
export { r as renamed, s } from './re'
`)
	assert.Equal(t, []string{
		"one", "two", "three", "Four", "five", "local", "default", "nsx", "renamed", "s",
	}, m.ExportOrder)

	assert.Equal(t, "local", m.Exports["five"].LocalName)
	assert.False(t, m.Exports["five"].IsReExport())
	assert.Equal(t, "named", m.Exports["default"].LocalName)
	assert.Equal(t, NamespaceName, m.Exports["nsx"].LocalName)
	assert.Equal(t, "./nsx", m.Exports["nsx"].Specifier)
	assert.Equal(t, "r", m.Exports["renamed"].LocalName)
	assert.Equal(t, "s", m.Exports["s"].LocalName)
	assert.True(t, m.Exports["renamed"].IsReExport())

	require.Len(t, m.StarExports, 1)
	assert.Equal(t, "./star", m.StarExports[0].Specifier)
	assert.Equal(t, []string{"./star", "./nsx", "./re"}, m.Specifiers)

	assert.NotContains(t, m.Exports, "named")
	assert.Contains(t, m.Definitions, "named")
}

func TestAnalyze_AnonymousDefaultExport(t *testing.T) {
	m := analyze(t, "/src/a.js", "const helper = 1\nexport default () => helper\n")

	exp := m.Exports["default"]
	require.NotNil(t, exp)
	assert.Equal(t, DefaultLocal, exp.LocalName)

	d := m.Definitions[DefaultLocal]
	require.NotNil(t, d)
	assert.Equal(t, DeclDefault, d.Kind)
	assert.Equal(t, 1, d.Statement)
	assert.Equal(t, StmtDeclaration, m.Statements[1].Kind)

	ref := onlyRef(t, m, "helper")
	assert.Equal(t, 1, ref.Statement)
	assert.Equal(t, 0, ref.Decl.Statement)
}

func TestAnalyze_DefaultExportOfIdentifier(t *testing.T) {
	m := analyze(t, "/src/a.js", "function impl() {}\nexport default impl\n")

	assert.Equal(t, "impl", m.Exports["default"].LocalName)
	assert.Equal(t, StmtExportList, m.Statements[1].Kind)
	assert.NotContains(t, m.Definitions, DefaultLocal)
}

func TestAnalyze_DefaultExportOfGlobal(t *testing.T) {
	m := analyze(t, "/src/a.js", "export default Math\n")

	exp := m.Exports["default"]
	require.NotNil(t, exp)
	assert.Equal(t, DefaultLocal, exp.LocalName)
	assert.Equal(t, StmtDeclaration, m.Statements[0].Kind)
	assert.Equal(t, []string{DefaultLocal}, m.Statements[0].Defines)

	d := m.Definitions[DefaultLocal]
	require.NotNil(t, d)
	assert.Equal(t, DeclDefault, d.Kind)
	assert.True(t, m.PotentialGlobals["Math"])
	assert.Equal(t, 0, onlyRef(t, m, "Math").Statement)
}

func TestAnalyze_DefaultExportOfLaterDeclaration(t *testing.T) {
	m := analyze(t, "/src/a.js", "export default impl\nfunction impl() {}\n")

	assert.Equal(t, "impl", m.Exports["default"].LocalName)
	assert.Equal(t, StmtExportList, m.Statements[0].Kind)
	assert.NotContains(t, m.Definitions, DefaultLocal)
}

func TestAnalyze_AmbientDeclarations(t *testing.T) {
	m := analyze(t, "/src/a.ts", `
export declare function f(n: number): void
export declare const limit: number
declare class Widget {}
`)

	for _, name := range []string{"f", "limit", "Widget"} {
		d := m.Definitions[name]
		require.NotNil(t, d, name)
		assert.Equal(t, DeclType, d.Kind, name)
	}
	assert.Equal(t, "f", m.Exports["f"].LocalName)
	assert.Equal(t, "limit", m.Exports["limit"].LocalName)
	assert.NotContains(t, m.Exports, "Widget")
	assert.Empty(t, m.References["n"])
}

func TestAnalyze_TypeScriptTypesAreNotReferences(t *testing.T) {
	m := analyze(t, "/src/a.ts", `
import type { Shape } from './shape'
export interface Box { inner: Shape }
export enum Color { Red, Green }
export const paint = (b: Box, c: Color): Shape => b.inner
`)
	assert.Empty(t, m.References["Shape"])
	assert.Empty(t, m.References["Box"])
	assert.Len(t, m.References["b"], 1)
	assert.Equal(t, DeclType, m.Definitions["Box"].Kind)
	assert.Equal(t, DeclEnum, m.Definitions["Color"].Kind)
	assert.Contains(t, m.Exports, "paint")
}

func TestAnalyze_JSXIntrinsicTags(t *testing.T) {
	m := analyze(t, "/src/a.jsx", `
import Widget from './widget'
export const App = () => <div><Widget label={title} /></div>
`)
	assert.Empty(t, m.References["div"])
	ref := onlyRef(t, m, "Widget")
	require.True(t, ref.Resolved())
	assert.Equal(t, DeclImport, ref.Decl.Kind)
	assert.True(t, m.PotentialGlobals["title"])
}

func TestModule_IncludedSet(t *testing.T) {
	m := analyze(t, "/src/a.js", "const a = 1\nconst b = 2\nconst c = 3\n")

	assert.True(t, m.MarkIncluded(2))
	assert.True(t, m.MarkIncluded(0))
	assert.False(t, m.MarkIncluded(0))
	assert.False(t, m.MarkIncluded(7))
	assert.False(t, m.MarkIncluded(-1))

	included := m.Included()
	require.Len(t, included, 2)
	assert.Equal(t, 0, included[0].Index)
	assert.Equal(t, 2, included[1].Index)
	assert.True(t, m.IsIncluded(2))
	assert.False(t, m.IsIncluded(1))
	assert.Equal(t, "const c = 3", m.Source(included[1]))
}

func TestAnalyze_ScopesRootedAtModule(t *testing.T) {
	m := analyze(t, "/src/a.js", "function f() { { let x } }\n")

	assert.Equal(t, scope.None, m.Scopes.Get(m.Root).Parent)
	for id := scope.ID(0); int(id) < m.Scopes.Len(); id++ {
		if id == m.Root {
			continue
		}
		assert.NotEqual(t, scope.None, m.Scopes.Get(id).Parent)
	}
	assert.Equal(t, 3, m.Scopes.Len())
}

// # internal/engine/module/module.go
package module

import (
	"sort"

	"shaker/internal/engine/parser"
	"shaker/internal/engine/scope"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// DefaultLocal is the module-scope name given to an anonymous
// `export default <expression>`. It can never collide with a JS identifier.
const DefaultLocal = "*default*"

// NamespaceName is the imported/local name used for `* as ns` bindings.
const NamespaceName = "*"

type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
	DeclFunction
	DeclClass
	DeclParam
	DeclCatch
	DeclImport
	DeclDefault
	DeclEnum
	DeclType
	DeclImplicit
)

var declKindNames = map[DeclKind]string{
	DeclVar:      "var",
	DeclLet:      "let",
	DeclConst:    "const",
	DeclFunction: "function",
	DeclClass:    "class",
	DeclParam:    "param",
	DeclCatch:    "catch",
	DeclImport:   "import",
	DeclDefault:  "default",
	DeclEnum:     "enum",
	DeclType:     "type",
	DeclImplicit: "implicit",
}

func (k DeclKind) String() string {
	if s, ok := declKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Declaration is one binding introduced into a scope.
type Declaration struct {
	Name      string
	Kind      DeclKind
	Node      *sitter.Node // binding identifier, or the declaring node for synthetic names
	Scope     scope.ID
	Statement int // index of the enclosing top-level statement
	Location  parser.Location
	Import    *ImportBinding // set for DeclImport
}

// Reference is one identifier use together with the declaration it resolved
// to. Decl is nil for potential globals.
type Reference struct {
	Name      string
	Node      *sitter.Node
	Statement int
	Scope     scope.ID
	Decl      *Declaration
	Location  parser.Location
}

func (r *Reference) Resolved() bool {
	return r.Decl != nil
}

type StatementKind int

const (
	StmtSideEffect StatementKind = iota
	StmtDeclaration
	StmtImport
	StmtExportList
	StmtReExport
	StmtEmpty
)

var stmtKindNames = map[StatementKind]string{
	StmtSideEffect:  "side_effect",
	StmtDeclaration: "declaration",
	StmtImport:      "import",
	StmtExportList:  "export_list",
	StmtReExport:    "re_export",
	StmtEmpty:       "empty",
}

func (k StatementKind) String() string {
	if s, ok := stmtKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Emittable reports whether statements of this kind can appear in output.
func (k StatementKind) Emittable() bool {
	return k == StmtSideEffect || k == StmtDeclaration
}

// Statement is one top-level statement of a module.
type Statement struct {
	Index      int
	Kind       StatementKind
	Node       *sitter.Node
	Defines    []string
	References []*Reference
	Location   parser.Location
}

type ImportBinding struct {
	LocalName    string
	ImportedName string // "default", "*" for namespaces, or the exported name
	Specifier    string
	SourceID     string // canonical path once the graph resolves Specifier
	External     bool
	Statement    int
	Location     parser.Location
}

func (b *ImportBinding) IsNamespace() bool {
	return b.ImportedName == NamespaceName
}

// ExportEntry maps an exported name to a local name, or to a name of another
// module when Specifier is set (re-export). LocalName "*" on a re-export means
// `export * as name from`.
type ExportEntry struct {
	ExportedName string
	LocalName    string
	Specifier    string
	SourceID     string
	Statement    int
	Location     parser.Location
}

func (e *ExportEntry) IsReExport() bool {
	return e.Specifier != ""
}

type StarExport struct {
	Specifier string
	SourceID  string
	Statement int
	Location  parser.Location
}

type Warning struct {
	Kind     string
	Path     string
	Message  string
	Location parser.Location
}

const (
	WarnUnknownPattern = "unknown_pattern"
	WarnPotentialGlobal = "potential_global"
	WarnExternalImport  = "external_import"
	WarnStarConflict    = "star_conflict"
	WarnImportCycle     = "import_cycle"
)

// Module is the analyzed form of one source file.
type Module struct {
	ID       string
	Language string
	Unit     *parser.Unit

	Scopes *scope.Chain
	Root   scope.ID

	Statements       []*Statement
	Definitions      map[string]*Declaration
	References       map[string][]*Reference
	PotentialGlobals map[string]bool

	Imports     []*ImportBinding
	Exports     map[string]*ExportEntry
	ExportOrder []string
	StarExports []*StarExport
	Specifiers  []string
	Externals   map[string]bool
	specifierAt map[string]parser.Location

	Warnings []Warning

	included map[int]bool
}

func newModule(unit *parser.Unit) *Module {
	return &Module{
		ID:               unit.Path,
		Language:         unit.Language,
		Unit:             unit,
		Scopes:           scope.NewChain(),
		Definitions:      make(map[string]*Declaration),
		References:       make(map[string][]*Reference),
		PotentialGlobals: make(map[string]bool),
		Exports:          make(map[string]*ExportEntry),
		Externals:        make(map[string]bool),
		specifierAt:      make(map[string]parser.Location),
		included:         make(map[int]bool),
	}
}

func (m *Module) Text(node *sitter.Node) string {
	return m.Unit.Text(node)
}

// Source returns the original text of a top-level statement.
func (m *Module) Source(s *Statement) string {
	return m.Unit.Text(s.Node)
}

// Close releases the syntax tree. Nodes held by the module are invalid afterwards.
func (m *Module) Close() {
	if m == nil {
		return
	}
	m.Unit.Close()
}

// SetSource records the canonical module id a specifier resolved to.
func (m *Module) SetSource(specifier, id string) {
	for _, imp := range m.Imports {
		if imp.Specifier == specifier {
			imp.SourceID = id
		}
	}
	for _, exp := range m.Exports {
		if exp.Specifier == specifier {
			exp.SourceID = id
		}
	}
	for _, star := range m.StarExports {
		if star.Specifier == specifier {
			star.SourceID = id
		}
	}
}

// MarkExternal flags every binding of specifier as an external dependency.
func (m *Module) MarkExternal(specifier string) {
	m.Externals[specifier] = true
	for _, imp := range m.Imports {
		if imp.Specifier == specifier {
			imp.External = true
		}
	}
}

// ImportFor returns the import binding declared under a local name.
func (m *Module) ImportFor(local string) *ImportBinding {
	d := m.Definitions[local]
	if d == nil || d.Kind != DeclImport {
		return nil
	}
	return d.Import
}

// MarkIncluded adds a statement to the included set and reports whether it
// was newly added.
func (m *Module) MarkIncluded(index int) bool {
	if index < 0 || index >= len(m.Statements) || m.included[index] {
		return false
	}
	m.included[index] = true
	return true
}

func (m *Module) IsIncluded(index int) bool {
	return m.included[index]
}

// Included returns the included statements in source order.
func (m *Module) Included() []*Statement {
	idx := make([]int, 0, len(m.included))
	for i := range m.included {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]*Statement, 0, len(idx))
	for _, i := range idx {
		out = append(out, m.Statements[i])
	}
	return out
}

// SortedPotentialGlobals lists unresolved names alphabetically.
func (m *Module) SortedPotentialGlobals() []string {
	out := make([]string, 0, len(m.PotentialGlobals))
	for name := range m.PotentialGlobals {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *Module) addWarning(kind, msg string, loc parser.Location) {
	m.Warnings = append(m.Warnings, Warning{Kind: kind, Path: m.ID, Message: msg, Location: loc})
}

func (m *Module) addSpecifier(spec string, loc parser.Location) {
	if _, seen := m.specifierAt[spec]; seen {
		return
	}
	m.specifierAt[spec] = loc
	m.Specifiers = append(m.Specifiers, spec)
}

// SpecifierLocation is where spec first appears in the module.
func (m *Module) SpecifierLocation(spec string) parser.Location {
	return m.specifierAt[spec]
}

func (m *Module) addExport(e *ExportEntry) {
	if _, exists := m.Exports[e.ExportedName]; !exists {
		m.ExportOrder = append(m.ExportOrder, e.ExportedName)
	}
	m.Exports[e.ExportedName] = e
}

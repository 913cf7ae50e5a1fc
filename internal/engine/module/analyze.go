// # internal/engine/module/analyze.go
package module

import (
	"shaker/internal/core/errors"
	"shaker/internal/engine/parser"
)

// Analyze runs declaration collection and reference resolution over a parsed
// unit. The returned module owns the unit; call Close to release its tree.
func Analyze(unit *parser.Unit) (*Module, error) {
	if unit == nil || unit.Tree == nil {
		return nil, errors.New(errors.CodeValidationError, "module has no syntax tree")
	}
	root := unit.Root()
	if root == nil {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "module has no root node"), errors.CtxPath, unit.Path)
	}

	m := newModule(unit)
	c := newCollector(m)
	c.collect(root)
	newReferenceResolver(m, c).resolve()
	return m, nil
}

// # internal/engine/parser/parser.go
package parser

import (
	"fmt"
	"time"

	"shaker/internal/core/errors"
	"shaker/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser turns source text into syntax trees. It is safe for concurrent use;
// each language keeps its own pool of tree-sitter parsers.
type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader: loader,
		pools:  make(map[string]*ParserPool),
	}
	for lang, grammar := range loader.languages {
		p.pools[lang] = NewParserPool(grammar)
	}
	return p
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.loader.DetectLanguage(path) != ""
}

// Parse builds the syntax tree for one file. A tree containing syntax errors
// is rejected; the caller owns the returned Unit and must Close it.
func (p *Parser) Parse(path string, content []byte) (*Unit, error) {
	lang := p.loader.DetectLanguage(path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, path)
	}
	pool := p.pools[lang]
	if pool == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("grammar not loaded: %s", lang))
	}

	start := time.Now()
	sp := pool.Get()
	tree := sp.Parse(content, nil)
	pool.Put(sp)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())

	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}

	root := tree.RootNode()
	if root == nil || root.HasError() {
		loc := Location{File: path}
		if bad := firstErrorNode(root); bad != nil {
			loc = NodeLocation(path, bad)
		}
		tree.Close()
		return nil, errors.AddContext(errors.New(errors.CodeValidationError,
			fmt.Sprintf("syntax error at %d:%d", loc.Line, loc.Column)), errors.CtxPath, path)
	}

	return &Unit{
		Path:     path,
		Language: lang,
		Source:   content,
		Tree:     tree,
		ParsedAt: time.Now(),
	}, nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if bad := firstErrorNode(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}

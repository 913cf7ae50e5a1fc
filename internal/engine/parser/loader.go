// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"shaker/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

type LanguageSpec struct {
	Name       string
	Extensions []string
}

func DefaultLanguageRegistry() map[string]LanguageSpec {
	return map[string]LanguageSpec{
		LangJavaScript: {Name: LangJavaScript, Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}},
		LangTypeScript: {Name: LangTypeScript, Extensions: []string{".ts", ".mts", ".cts"}},
		LangTSX:        {Name: LangTSX, Extensions: []string{".tsx"}},
	}
}

// GrammarLoader owns the compiled-in grammars for ESM source languages.
type GrammarLoader struct {
	languages  map[string]*sitter.Language
	registry   map[string]LanguageSpec
	extensions map[string]string
}

func NewGrammarLoader() (*GrammarLoader, error) {
	return NewGrammarLoaderWithRegistry(DefaultLanguageRegistry())
}

func NewGrammarLoaderWithRegistry(registry map[string]LanguageSpec) (*GrammarLoader, error) {
	gl := &GrammarLoader{
		languages:  make(map[string]*sitter.Language),
		registry:   make(map[string]LanguageSpec, len(registry)),
		extensions: make(map[string]string),
	}

	for _, langID := range util.SortedStringKeys(registry) {
		spec := registry[langID]
		switch langID {
		case LangJavaScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_javascript.Language())
		case LangTypeScript:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
		case LangTSX:
			gl.languages[langID] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
		default:
			return nil, fmt.Errorf("language %q has no compiled-in grammar", langID)
		}
		gl.registry[langID] = spec
		for _, ext := range spec.Extensions {
			gl.extensions[strings.ToLower(ext)] = langID
		}
	}

	return gl, nil
}

func (gl *GrammarLoader) Language(lang string) *sitter.Language {
	return gl.languages[lang]
}

// DetectLanguage maps a path to a language id by extension, or "".
func (gl *GrammarLoader) DetectLanguage(path string) string {
	return gl.extensions[strings.ToLower(filepath.Ext(path))]
}

func (gl *GrammarLoader) SupportedExtensions() []string {
	out := util.SortedStringKeys(gl.extensions)
	sort.Strings(out)
	return out
}

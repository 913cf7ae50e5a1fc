// # internal/engine/resolver/resolver.go
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shaker/internal/core/errors"

	"github.com/gobwas/glob"
)

var (
	DefaultExtensions = []string{".js", ".mjs", ".jsx", ".ts", ".tsx"}
	DefaultIndexFiles = []string{"index"}
)

// scriptExtensions may be written in a specifier while the file on disk uses
// another source extension (`./util.js` for `util.ts`).
var scriptExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".jsx": true,
}

type Options struct {
	Extensions       []string
	IndexFiles       []string
	Externals        []string
	LenientExternals bool
}

// Resolver is the file-system collaborator of the graph builder: it reads
// module sources, maps specifiers to canonical paths and decides which bare
// specifiers stay external.
type Resolver struct {
	extensions []string
	indexFiles []string
	externals  []glob.Glob
	lenient    bool
}

func New(opts Options) (*Resolver, error) {
	r := &Resolver{
		extensions: opts.Extensions,
		indexFiles: opts.IndexFiles,
		lenient:    opts.LenientExternals,
	}
	if len(r.extensions) == 0 {
		r.extensions = DefaultExtensions
	}
	if len(r.indexFiles) == 0 {
		r.indexFiles = DefaultIndexFiles
	}
	for _, pattern := range opts.Externals {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid externals pattern %q", pattern))
		}
		r.externals = append(r.externals, g)
	}
	return r, nil
}

// ReadFile returns the bytes of a module source.
func (r *Resolver) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	code := errors.CodeInternal
	if os.IsNotExist(err) {
		code = errors.CodeNotFound
	}
	return nil, errors.AddContext(errors.Wrap(err, code, "read module"), errors.CtxPath, path)
}

// IsBare reports specifiers that are neither relative nor absolute paths.
// Only bare specifiers can ever be external.
func IsBare(specifier string) bool {
	switch {
	case specifier == "", specifier == ".", specifier == "..":
		return false
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		return false
	case strings.HasPrefix(specifier, "/"), filepath.IsAbs(specifier):
		return false
	}
	return true
}

// IsExternal reports whether a specifier is left out of the graph: it is bare
// and either matches an externals pattern or lenient mode is on.
func (r *Resolver) IsExternal(specifier string) bool {
	if !IsBare(specifier) {
		return false
	}
	for _, g := range r.externals {
		if g.Match(specifier) {
			return true
		}
	}
	return r.lenient
}

// ResolvePath maps a relative or absolute specifier to the canonical path of
// an existing file, probing configured extensions and index files.
func (r *Resolver) ResolvePath(baseDir, specifier string) (string, error) {
	if IsBare(specifier) {
		return "", errors.AddContext(errors.New(errors.CodeNotSupported, "bare specifier has no file-system path"), errors.CtxSpecifier, specifier)
	}

	target := specifier
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, filepath.FromSlash(specifier))
	}

	for _, candidate := range r.candidates(target) {
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		return Canonical(candidate)
	}

	err := errors.New(errors.CodeNotFound, "module not found")
	err = errors.AddContext(err, errors.CtxSpecifier, specifier)
	return "", errors.AddContext(err, errors.CtxPath, baseDir)
}

func (r *Resolver) candidates(target string) []string {
	out := []string{target}
	for _, ext := range r.extensions {
		out = append(out, target+ext)
	}
	if ext := filepath.Ext(target); scriptExtensions[ext] {
		stem := strings.TrimSuffix(target, ext)
		for _, alt := range r.extensions {
			if alt != ext {
				out = append(out, stem+alt)
			}
		}
	}
	for _, index := range r.indexFiles {
		for _, ext := range r.extensions {
			out = append(out, filepath.Join(target, index+ext))
		}
	}
	return out
}

// Canonical returns the absolute, symlink-free form of path. It is the
// identity of a module in the graph.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeInternal, "absolute path"), errors.CtxPath, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return filepath.Clean(abs), nil
	}
	return filepath.Clean(resolved), nil
}

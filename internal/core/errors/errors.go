package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationError  ErrorCode = "VALIDATION_ERROR"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported     ErrorCode = "NOT_SUPPORTED"
	CodeModuleLoad       ErrorCode = "MODULE_LOAD_ERROR"
	CodeUnresolvedImport ErrorCode = "UNRESOLVED_IMPORT"
	CodeCircularExport   ErrorCode = "CIRCULAR_EXPORT"
	CodeUnknownPattern   ErrorCode = "UNKNOWN_PATTERN"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxSymbol    = "symbol"
	CtxSpecifier = "specifier"
	CtxChain     = "chain"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " {" + strings.Join(parts, " ") + "}"
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a context value, wrapping foreign errors as internal.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost DomainError in err's chain, or
// CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ContextValue returns the context value stored under key, if any.
func ContextValue(err error, key string) (interface{}, bool) {
	var de *DomainError
	if !errors.As(err, &de) || de.Context == nil {
		return nil, false
	}
	v, ok := de.Context[key]
	return v, ok
}

// ModuleLoad reports a module whose file could not be read or parsed.
func ModuleLoad(path string, cause error) error {
	de := &DomainError{Code: CodeModuleLoad, Message: "failed to load module", Err: cause}
	return de.WithContext(CtxPath, path)
}

// UnresolvedImport reports a specifier with no module or a name missing from
// the target module's exports. An empty name means the module itself was not found.
func UnresolvedImport(importer, specifier, name string) error {
	msg := fmt.Sprintf("cannot resolve %q", specifier)
	if name != "" {
		msg = fmt.Sprintf("%q is not exported by %q", name, specifier)
	}
	de := &DomainError{Code: CodeUnresolvedImport, Message: msg}
	de.WithContext(CtxPath, importer).WithContext(CtxSpecifier, specifier)
	if name != "" {
		de.WithContext(CtxSymbol, name)
	}
	return de
}

// CircularExport reports a re-export chain that revisits a module/name pair.
func CircularExport(path, name string, chain []string) error {
	de := &DomainError{Code: CodeCircularExport, Message: fmt.Sprintf("circular re-export of %q", name)}
	return de.WithContext(CtxPath, path).
		WithContext(CtxSymbol, name).
		WithContext(CtxChain, strings.Join(chain, " -> "))
}

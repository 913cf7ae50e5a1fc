package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
		if !errors.Is(err, original) {
			t.Error("expected wrapped error to unwrap to original")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("AddContextForeign", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxOperation, "bind")
		if !IsCode(err, CodeInternal) {
			t.Error("expected foreign error to be wrapped as internal")
		}
		v, ok := ContextValue(err, CtxOperation)
		if !ok || v != "bind" {
			t.Errorf("expected operation context, got %v", v)
		}
	})
}

func TestAnalyzerErrors(t *testing.T) {
	t.Run("ModuleLoad", func(t *testing.T) {
		cause := errors.New("no such file")
		err := ModuleLoad("/src/a.js", cause)
		if !IsCode(err, CodeModuleLoad) {
			t.Fatalf("expected module load code, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Error("expected cause to be preserved")
		}
		if !strings.Contains(err.Error(), "path=/src/a.js") {
			t.Errorf("expected path in message, got %s", err.Error())
		}
	})

	t.Run("UnresolvedImportName", func(t *testing.T) {
		err := UnresolvedImport("/src/a.js", "./b", "x")
		if !IsCode(err, CodeUnresolvedImport) {
			t.Fatalf("expected unresolved import code, got %v", err)
		}
		for _, want := range []string{`"x" is not exported by "./b"`, "path=/src/a.js", "specifier=./b", "symbol=x"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("expected %q in %s", want, err.Error())
			}
		}
	})

	t.Run("UnresolvedImportModule", func(t *testing.T) {
		err := UnresolvedImport("/src/a.js", "./missing", "")
		if _, ok := ContextValue(err, CtxSymbol); ok {
			t.Error("expected no symbol context for a missing module")
		}
	})

	t.Run("CircularExport", func(t *testing.T) {
		err := CircularExport("/src/b.js", "n", []string{"/src/b.js#n", "/src/c.js#n", "/src/b.js#n"})
		if !IsCode(err, CodeCircularExport) {
			t.Fatalf("expected circular export code, got %v", err)
		}
		v, _ := ContextValue(err, CtxChain)
		if v != "/src/b.js#n -> /src/c.js#n -> /src/b.js#n" {
			t.Errorf("unexpected chain %v", v)
		}
	})
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(UnresolvedImport("/a.js", "./b", "")); got != CodeUnresolvedImport {
		t.Errorf("expected %s, got %s", CodeUnresolvedImport, got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Errorf("expected %s for foreign error, got %s", CodeInternal, got)
	}
}

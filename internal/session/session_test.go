package session

import (
	"testing"
	"time"

	"github.com/fatalSec/DaliVM/internal/config"
	"github.com/fatalSec/DaliVM/internal/traceindex"
	"github.com/fatalSec/DaliVM/internal/value"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestSplitSignatureParsesBareAndExtendedForms(t *testing.T) {
	class, name, ok := splitSignature("LT;->add")
	if !ok || class != "LT;" || name != "add" {
		t.Fatalf("bare form: got class=%q name=%q ok=%v", class, name, ok)
	}
	class, name, ok = splitSignature("LT;->add(II)I")
	if !ok || class != "LT;" || name != "add" {
		t.Fatalf("extended form: got class=%q name=%q ok=%v", class, name, ok)
	}
	if _, _, ok := splitSignature("not-a-signature"); ok {
		t.Fatal("expected no arrow to fail parsing")
	}
}

func TestFindMethodNotFoundOnEmptyIndex(t *testing.T) {
	s := New(&traceindex.Index{}, testConfig())
	if _, _, ok := s.FindMethod("LT;->add(II)I"); ok {
		t.Fatal("expected not-found on an empty index")
	}
}

func TestEmulateWithArgsUnresolvedReturnsNullNotFound(t *testing.T) {
	s := New(&traceindex.Index{}, testConfig())
	result, returned, err := s.EmulateWithArgs("LT;->missing()V", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if returned {
		t.Fatal("expected returned=false for an unresolved method")
	}
	if result.Kind != value.KindNull {
		t.Fatalf("expected a null result, got %v", result)
	}
}

func TestEmulateWithArgsRejectsMalformedSignature(t *testing.T) {
	s := New(&traceindex.Index{}, testConfig())
	if _, _, err := s.EmulateWithArgs("not-a-signature", nil); err == nil {
		t.Fatal("expected an error for a signature with no ->")
	}
}

func TestResetStaticFieldStoreClearsState(t *testing.T) {
	s := New(&traceindex.Index{}, testConfig())
	s.Store.Set("LT;", "sKey", value.Int32(7))
	s.Store.MarkClassInitialized("LT;")

	s.ResetStaticFieldStore()

	if s.Store.Has("LT;", "sKey") {
		t.Fatal("expected fields cleared after reset")
	}
	if s.Store.IsClassInitialized("LT;") {
		t.Fatal("expected initialized-classes cleared after reset")
	}
}

func TestAllCallSitesEmptyOnEmptyIndex(t *testing.T) {
	s := New(&traceindex.Index{}, testConfig())
	if sites := s.AllCallSites(); len(sites) != 0 {
		t.Fatalf("expected no call sites, got %d", len(sites))
	}
}

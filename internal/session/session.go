// Package session wires the DEX index, class loader, mock registry and
// interpreter together behind the control surface spec.md §6 describes:
// find_method, find_all_call_sites, emulate_with_args, reset_static_field_store.
//
// Grounded on original_source/dalvik_vm/vm.py's DalvikVM (the original's
// single object bundling exactly these collaborators) and blacktop-ipsw's
// own per-command session pattern (open an Index once, hand it to every
// subcommand) for the uuid-stamped identity below.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fatalSec/DaliVM/internal/analysis"
	"github.com/fatalSec/DaliVM/internal/applog"
	"github.com/fatalSec/DaliVM/internal/classloader"
	"github.com/fatalSec/DaliVM/internal/config"
	"github.com/fatalSec/DaliVM/internal/interp"
	"github.com/fatalSec/DaliVM/internal/mocks"
	"github.com/fatalSec/DaliVM/internal/statefield"
	"github.com/fatalSec/DaliVM/internal/traceindex"
	"github.com/fatalSec/DaliVM/internal/value"
)

// Session is one explicit emulation session (spec.md §5): an opaque ID
// used only in log fields, never in control flow, plus every collaborator
// a single emulation run needs.
type Session struct {
	ID uuid.UUID

	Index  *traceindex.Index
	Store  *statefield.Store
	CL     *classloader.ClassLoader
	Mocks  *mocks.Registry
	Interp *interp.Interp

	cfg config.Config
}

// New builds a session over an already-loaded Index, wiring a fresh
// static-field store, class loader and mock registry together exactly the
// way interp.New's doc comment describes (class loader first, then the
// interpreter, which wires itself back in as the loader's Executor).
func New(idx *traceindex.Index, cfg config.Config) *Session {
	store := statefield.New()
	cl := classloader.New(idx, store)
	mockCfg := mocks.DefaultConfig()
	mockCfg.PackageName = cfg.PackageName
	mockCfg.SignatureBytes = cfg.SignatureBytes
	mockCfg.SDKInt = cfg.SDKInt
	reg := mocks.New(mockCfg)
	i := interp.New(cl, store, reg)
	i.MaxSteps = cfg.MaxInstructions

	s := &Session{
		ID:     uuid.New(),
		Index:  idx,
		Store:  store,
		CL:     cl,
		Mocks:  reg,
		Interp: i,
		cfg:    cfg,
	}
	applog.Infof("session %s: opened against %d dex container(s)", s.ID, len(idx.Containers))
	return s
}

// Open loads apkPath's dex containers into a fresh Index and builds a
// Session over it, the common case when there's no Index to reuse across
// calls (matches traceindex.Load's own apk-to-Index shape).
func Open(apkPath string, cfg config.Config) (*Session, error) {
	idx, err := traceindex.Load(apkPath)
	if err != nil {
		return nil, errors.Wrap(err, "session: load apk")
	}
	return New(idx, cfg), nil
}

// splitSignature parses spec.md §6's canonical method reference,
// "Lpkg/Class;->name" optionally extended with "(params)return", into its
// class and bare-name parts; the parameter/return suffix (if present) is
// accepted for readability but not consulted — overload resolution in this
// module always takes the first trace match, same as classloader.FindMethod.
func splitSignature(signature string) (class, name string, ok bool) {
	arrow := strings.Index(signature, "->")
	if arrow < 0 {
		return "", "", false
	}
	class = signature[:arrow]
	rest := signature[arrow+2:]
	if paren := strings.IndexByte(rest, '('); paren >= 0 {
		rest = rest[:paren]
	}
	return class, rest, rest != ""
}

// FindMethod resolves a "Lpkg/Class;->name" (or "Lpkg/Class;->name(args)ret")
// signature to its container and code body, spec.md §6's find_method.
func (s *Session) FindMethod(signature string) (*traceindex.Container, *traceindex.CodeItem, bool) {
	class, name, ok := splitSignature(signature)
	if !ok {
		return nil, nil, false
	}
	return s.Index.FindMethod(class, name)
}

// AllCallSites is spec.md §6's find_all_call_sites: every invoke-family
// instruction found while the index was built, across every container.
func (s *Session) AllCallSites() []traceindex.CallSite {
	return s.Index.AllCallSites()
}

// CallSitesFor narrows AllCallSites to one signature's callers, the common
// case a string-decryption hunt actually wants ("who calls LT;->decrypt?").
func (s *Session) CallSitesFor(signature string) []traceindex.CallSite {
	class, name, ok := splitSignature(signature)
	if !ok {
		return nil
	}
	callee := class + "->" + name
	var out []traceindex.CallSite
	for _, cs := range s.Index.AllCallSites() {
		if cs.Callee == callee {
			out = append(out, cs)
		}
	}
	return out
}

// EmulateWithArgs is spec.md §6's emulate_with_args(method, args, index,
// class_loader) → result: resolve signature against this session's index,
// run its <clinit> as needed, and execute it with args. Per spec.md §7's
// error taxonomy, a Resolution/Decode/Runtime/Policy error is returned to
// the caller; a Recoverable gap is instead logged via applog.Gap somewhere
// down in interp and never surfaces here.
func (s *Session) EmulateWithArgs(signature string, args []value.Value) (value.Value, bool, error) {
	class, name, ok := splitSignature(signature)
	if !ok {
		return value.Null(), false, errors.Errorf("session: %q is not a Lpkg/Class;->name signature", signature)
	}

	done := make(chan struct{})
	var result value.Value
	var returned bool
	var err error
	go func() {
		result, returned, err = s.CL.Execute(class, name, args)
		close(done)
	}()

	if s.cfg.Timeout <= 0 {
		<-done
		return result, returned, err
	}
	select {
	case <-done:
		return result, returned, err
	case <-time.After(s.cfg.Timeout):
		return value.Null(), false, errors.Errorf("session: emulating %s timed out after %s", signature, s.cfg.Timeout)
	}
}

// ResetStaticFieldStore is spec.md §6's reset_static_field_store: clears
// every stored field and the initialized-classes set together, so the next
// EmulateWithArgs call observes each touched class's <clinit> as not yet
// run (spec.md §8 "Static-field store reset: after reset, has(c,f) is
// false for every prior (c,f)").
func (s *Session) ResetStaticFieldStore() {
	s.Store.Reset()
}

// DependenciesOf runs the dependency analyzer (spec.md §4.5) over one
// method's trace body, the piece of the control surface spec.md §6 doesn't
// name directly but that SPEC_FULL.md's analysis-package wiring exists to
// serve: "what classes/fields/methods would running this method from
// scratch touch".
func (s *Session) DependenciesOf(signature string) (*analysis.MethodDependencies, error) {
	class, name, ok := splitSignature(signature)
	if !ok {
		return nil, errors.Errorf("session: %q is not a Lpkg/Class;->name signature", signature)
	}
	if _, code, ok := s.Index.FindMethod(class, name); !ok || code == nil {
		return nil, errors.Errorf("session: %q not found or has no body", signature)
	}

	lookup := func(traceName string) (traceindex.TraceMap, bool) {
		c, n, ok := splitSignature(traceName)
		if !ok {
			return nil, false
		}
		container, code, ok := s.Index.FindMethod(c, n)
		if !ok || code == nil {
			return nil, false
		}
		return container.BuildTraceMap(code), true
	}
	analyzer := analysis.NewDependencyAnalyzer(lookup)
	return analyzer.AnalyzeMethod(class + "->" + name), nil
}

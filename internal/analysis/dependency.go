package analysis

import (
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

// MethodDependencies collects what a method (and, recursively, what it
// calls) touches: static fields it reads/writes, classes whose <clinit>
// must run before it can execute standalone, and the methods it calls.
// Ported from dependency_analyzer.py's MethodDependencies dataclass.
type MethodDependencies struct {
	StaticFields       map[string]bool // "Class;->field" keys
	ClassesNeedingInit map[string]bool
	MethodsCalled      map[string]bool
}

func newMethodDependencies() *MethodDependencies {
	return &MethodDependencies{
		StaticFields:       map[string]bool{},
		ClassesNeedingInit: map[string]bool{},
		MethodsCalled:      map[string]bool{},
	}
}

// Merge folds other's sets into d, matching MethodDependencies.merge.
func (d *MethodDependencies) Merge(other *MethodDependencies) {
	for k := range other.StaticFields {
		d.StaticFields[k] = true
	}
	for k := range other.ClassesNeedingInit {
		d.ClassesNeedingInit[k] = true
	}
	for k := range other.MethodsCalled {
		d.MethodsCalled[k] = true
	}
}

const maxAnalysisDepth = 3

// MethodBodyLookup resolves a "LClass;->name" trace string to its
// TraceMap, so the analyzer can recurse into callees without depending on
// the concrete container/index types directly (kept as a function value to
// avoid an import cycle with internal/classloader, which itself may want
// to call into this package).
type MethodBodyLookup func(traceName string) (traceindex.TraceMap, bool)

// DependencyAnalyzer walks a method body (and, bounded by depth, its
// callees) collecting a MethodDependencies. Ported from
// dependency_analyzer.py's DependencyAnalyzer, including its seen-set cycle
// guard (_analyzed_methods) and MAX depth of 3. The seen-set itself is a
// graph.Graph rather than a bare map: AddVertex fails once a traceName has
// already been recorded, which doubles as the cycle guard without a second
// lookup.
type DependencyAnalyzer struct {
	lookup  MethodBodyLookup
	visited graph.Graph[string, string]
}

func NewDependencyAnalyzer(lookup MethodBodyLookup) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		lookup:  lookup,
		visited: graph.New(graph.StringHash, graph.Directed()),
	}
}

// AnalyzeMethod is the exported entry point; traceName is the method's
// "LClass;->name" form used to look up its body.
func (a *DependencyAnalyzer) AnalyzeMethod(traceName string) *MethodDependencies {
	return a.analyze(traceName, 0)
}

func (a *DependencyAnalyzer) analyze(traceName string, depth int) *MethodDependencies {
	deps := newMethodDependencies()
	if depth >= maxAnalysisDepth {
		return deps
	}
	if err := a.visited.AddVertex(traceName); err != nil {
		return deps // already visited (or, at depth 0, re-entered on its own name)
	}

	tm, ok := a.lookup(traceName)
	if !ok {
		return deps
	}

	var pcs []uint32
	for pc := range tm {
		pcs = append(pcs, pc)
	}
	sortUint32(pcs)

	for _, pc := range pcs {
		a.analyzeInstruction(traceName, tm[pc].Text, deps, depth)
	}
	return deps
}

// analyzeInstruction ports _analyze_instruction's per-opcode trace-text
// pattern matching: sget/sput record a static-field touch and the owning
// class as needing <clinit>; invoke-static additionally marks its target
// class needing <clinit> and recurses into it (depth-bounded); new-instance
// marks its class needing <clinit>; every invoke records its callee and, for
// invoke-static, an edge in the visited graph so the walk this analyzer
// performed is itself inspectable as a call graph afterward.
func (a *DependencyAnalyzer) analyzeInstruction(caller, text string, deps *MethodDependencies, depth int) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}
	opcode := parts[0]

	switch {
	case strings.HasPrefix(opcode, "sget") || strings.HasPrefix(opcode, "sput"):
		ref := fieldOrMethodRef(parts)
		if ref == "" {
			return
		}
		deps.StaticFields[ref] = true
		if cls := classOf(ref); cls != "" {
			deps.ClassesNeedingInit[cls] = true
		}

	case opcode == "new-instance":
		for _, p := range parts[1:] {
			if strings.HasPrefix(p, "L") {
				deps.ClassesNeedingInit[p] = true
				break
			}
		}

	case strings.HasPrefix(opcode, "invoke"):
		sig := fieldOrMethodRef(parts)
		if sig == "" {
			return
		}
		deps.MethodsCalled[sig] = true
		if opcode == "invoke-static" || opcode == "invoke-static/range" {
			if cls := classOf(sig); cls != "" {
				deps.ClassesNeedingInit[cls] = true
			}
			sub := a.analyze(sig, depth+1)
			deps.Merge(sub)
			_ = a.visited.AddVertex(sig)
			_ = a.visited.AddEdge(caller, sig)
		}
	}
}

func classOf(ref string) string {
	i := strings.Index(ref, "->")
	if i < 0 {
		return ""
	}
	return ref[:i]
}

// ResolveArgsByExecution is the dependency-bounded execution fallback: run
// only the instructions BuildRegisterDependencies says are needed to
// compute an invoke's argument registers, rather than the whole method.
// Ported from dependency_analyzer.py's resolve_args_by_execution, which
// builds this same dependency pc set and then executes just those
// instructions against a throwaway frame. The actual execution step lives
// in internal/interp (this package only identifies which pcs to run); this
// function hands back the sorted pc list for internal/interp's caller to
// drive.
func ResolveArgsByExecution(tm traceindex.TraceMap, targetPC uint32, argRegs []int) []uint32 {
	depPCs := BuildRegisterDependencies(tm, targetPC, argRegs)
	var pcs []uint32
	for pc := range depPCs {
		pcs = append(pcs, pc)
	}
	sortUint32(pcs)
	return pcs
}

package analysis

import (
	"testing"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

func fakeLookup(bodies map[string]traceindex.TraceMap) MethodBodyLookup {
	return func(name string) (traceindex.TraceMap, bool) {
		tm, ok := bodies[name]
		return tm, ok
	}
}

func TestAnalyzeMethodCollectsStaticFieldsAndClasses(t *testing.T) {
	bodies := map[string]traceindex.TraceMap{
		"Lcom/example/Foo;->bar": {
			0: {Text: "sget v0, Lcom/example/Foo;->KEY:Ljava/lang/String;", Len: 2},
			1: {Text: "new-instance v1, Lcom/example/Box;", Len: 2},
		},
	}
	a := NewDependencyAnalyzer(fakeLookup(bodies))
	deps := a.AnalyzeMethod("Lcom/example/Foo;->bar")

	if !deps.StaticFields["Lcom/example/Foo;->KEY"] {
		t.Fatalf("want static field recorded, got %v", deps.StaticFields)
	}
	if !deps.ClassesNeedingInit["Lcom/example/Foo;"] {
		t.Fatalf("want sget's class needing init, got %v", deps.ClassesNeedingInit)
	}
	if !deps.ClassesNeedingInit["Lcom/example/Box;"] {
		t.Fatalf("want new-instance's class needing init, got %v", deps.ClassesNeedingInit)
	}
}

func TestAnalyzeMethodRecursesIntoInvokeStatic(t *testing.T) {
	bodies := map[string]traceindex.TraceMap{
		"Lcom/example/Foo;->bar": {
			0: {Text: "invoke-static {}, Lcom/example/Helper;->init()V", Len: 3},
		},
		"Lcom/example/Helper;->init": {
			0: {Text: "sput v0, Lcom/example/Helper;->READY:Z", Len: 2},
		},
	}
	a := NewDependencyAnalyzer(fakeLookup(bodies))
	deps := a.AnalyzeMethod("Lcom/example/Foo;->bar")

	if !deps.MethodsCalled["Lcom/example/Helper;->init"] {
		t.Fatalf("want callee recorded, got %v", deps.MethodsCalled)
	}
	if !deps.StaticFields["Lcom/example/Helper;->READY"] {
		t.Fatalf("want transitive static field recorded, got %v", deps.StaticFields)
	}
}

func TestAnalyzeMethodStopsAtMaxDepth(t *testing.T) {
	bodies := map[string]traceindex.TraceMap{
		"L0;->m": {0: {Text: "invoke-static {}, L1;->m()V", Len: 3}},
		"L1;->m": {0: {Text: "invoke-static {}, L2;->m()V", Len: 3}},
		"L2;->m": {0: {Text: "invoke-static {}, L3;->m()V", Len: 3}},
		"L3;->m": {0: {Text: "sput v0, L3;->X:I", Len: 2}},
	}
	a := NewDependencyAnalyzer(fakeLookup(bodies))
	deps := a.AnalyzeMethod("L0;->m")

	if deps.StaticFields["L3;->X"] {
		t.Fatalf("want recursion capped before reaching depth-3 callee, got %v", deps.StaticFields)
	}
}

func TestAnalyzeMethodCycleGuardTerminates(t *testing.T) {
	bodies := map[string]traceindex.TraceMap{
		"La;->m": {0: {Text: "invoke-static {}, Lb;->m()V", Len: 3}},
		"Lb;->m": {0: {Text: "invoke-static {}, La;->m()V", Len: 3}},
	}
	a := NewDependencyAnalyzer(fakeLookup(bodies))
	// Must return, not infinite-loop.
	_ = a.AnalyzeMethod("La;->m")
}

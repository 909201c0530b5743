package analysis

import (
	"testing"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

func TestBuildRegisterDependenciesSimpleChain(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "const/4 v0, #+5", Len: 1},
		1: {Text: "move v1, v0", Len: 1},
		2: {Text: "invoke-static {v1}, Lcom/example/Foo;->bar(I)V", Len: 3},
	}
	deps := BuildRegisterDependencies(tm, 2, []int{1})
	if !deps[0] || !deps[1] {
		t.Fatalf("want pcs 0 and 1 as dependencies, got %v", deps)
	}
}

func TestBuildRegisterDependenciesNewArrayFillForward(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "const/4 v1, #+3", Len: 1},
		1: {Text: "new-array v0, v1, [I", Len: 2},
		2: {Text: "fill-array-data v0, +10", Len: 3},
		5: {Text: "invoke-static {v0}, Lcom/example/Foo;->sum([I)V", Len: 3},
	}
	deps := BuildRegisterDependencies(tm, 5, []int{0})
	if !deps[1] {
		t.Fatalf("want new-array pc included, got %v", deps)
	}
	if !deps[2] {
		t.Fatalf("want forward-looked-up fill-array-data pc included, got %v", deps)
	}
}

func TestBuildRegisterDependenciesNewInstanceInitForward(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "new-instance v0, Lcom/example/Box;", Len: 2},
		1: {Text: "const/4 v1, #+9", Len: 1},
		2: {Text: "invoke-direct {v0, v1}, Lcom/example/Box;-><init>(I)V", Len: 3},
		5: {Text: "invoke-static {v0}, Lcom/example/Foo;->use(Lcom/example/Box;)V", Len: 3},
	}
	deps := BuildRegisterDependencies(tm, 5, []int{0})
	if !deps[0] || !deps[2] {
		t.Fatalf("want new-instance and its <init> call included, got %v", deps)
	}
	// pc 1 (the constructor arg's own const source) sits between pc 0 and pc
	// 2 in program order but is visited BEFORE pc 0 in this single backward
	// descending pass, so v1's need (discovered only once pc 0 is reached)
	// is not retroactively satisfied. This one-pass blind spot is carried
	// over faithfully from forward_lookup.py's build_register_dependencies,
	// which has the same ordering.
}

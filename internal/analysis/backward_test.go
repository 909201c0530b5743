package analysis

import (
	"testing"

	"github.com/fatalSec/DaliVM/internal/traceindex"
)

func TestExtractArgsStaticResolvesConstLiteral(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "const/4 v0, #+5", Len: 1},
		1: {Text: "invoke-static {v0}, Lcom/example/Foo;->bar(I)V", Len: 3},
	}
	args := ExtractArgsStatic(tm, 1)
	if len(args) != 1 {
		t.Fatalf("want 1 arg, got %d", len(args))
	}
	if !args[0].Resolved || args[0].Value != 5 {
		t.Fatalf("want resolved const 5, got %+v", args[0])
	}
}

func TestExtractArgsStaticConstStringAlwaysUnresolved(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: `const-string v0, "hello"`, Len: 2},
		1: {Text: "invoke-static {v0}, Lcom/example/Foo;->bar(Ljava/lang/String;)V", Len: 3},
	}
	args := ExtractArgsStatic(tm, 1)
	if len(args) != 1 {
		t.Fatalf("want 1 arg, got %d", len(args))
	}
	if args[0].Resolved || args[0].Source != SourceConstString {
		t.Fatalf("want unresolved const-string source, got %+v", args[0])
	}
}

func TestTraceRegisterSourceFollowsMoveChain(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "const/4 v0, #+7", Len: 1},
		1: {Text: "move v1, v0", Len: 1},
		2: {Text: "invoke-static {v1}, Lcom/example/Foo;->bar(I)V", Len: 3},
	}
	args := ExtractArgsStatic(tm, 2)
	if len(args) != 1 || !args[0].Resolved || args[0].Value != 7 {
		t.Fatalf("want resolved 7 through move chain, got %+v", args)
	}
}

func TestTraceRegisterSourceUnresolvedSget(t *testing.T) {
	tm := traceindex.TraceMap{
		0: {Text: "sget v0, Lcom/example/Foo;->FLAG:Z", Len: 2},
		1: {Text: "invoke-static {v0}, Lcom/example/Foo;->bar(Z)V", Len: 3},
	}
	args := ExtractArgsStatic(tm, 1)
	if len(args) != 1 || args[0].Resolved || args[0].Source != SourceStaticGet {
		t.Fatalf("want unresolved sget source, got %+v", args)
	}
	if args[0].SourceDetail != "Lcom/example/Foo;->FLAG" {
		t.Fatalf("want field ref trimmed at ':', got %q", args[0].SourceDetail)
	}
}

func TestTraceRegisterSourceFallsBackToParam(t *testing.T) {
	tm := traceindex.TraceMap{
		5: {Text: "invoke-static {v2}, Lcom/example/Foo;->bar(I)V", Len: 3},
	}
	args := ExtractArgsStatic(tm, 5)
	if len(args) != 1 || args[0].Source != SourceParam || args[0].Resolved {
		t.Fatalf("want unresolved param fallback, got %+v", args)
	}
}

package mocks

import (
	"testing"

	"github.com/fatalSec/DaliVM/internal/value"
)

func TestContextGetPackageNameReturnsConfiguredName(t *testing.T) {
	r := New(DefaultConfig())
	hook, ok := r.VirtualHook("Landroid/content/Context;->getPackageName")
	if !ok {
		t.Fatalf("want getPackageName hook registered")
	}
	v, err := hook([]value.Value{r.newContext()}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := v.StringPayload()
	if !ok || s != "com.fatalsec.app" {
		t.Fatalf("want configured package name, got %+v", v)
	}
}

func TestSignatureToByteArrayReturnsConfiguredBytes(t *testing.T) {
	r := New(DefaultConfig())
	sig := r.newSignature(nil)
	hook, _ := r.VirtualHook("Landroid/content/pm/Signature;->toByteArray")
	v, err := hook([]value.Value{sig}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != value.KindArray || v.Arr.Len() != len(r.Config.SignatureBytes) {
		t.Fatalf("want a %d-byte array, got %+v", len(r.Config.SignatureBytes), v)
	}
}

func TestStaticFieldSDKInt(t *testing.T) {
	r := New(DefaultConfig())
	v, ok := r.StaticField("Landroid/os/Build$VERSION;->SDK_INT")
	if !ok || v.I32 != 30 {
		t.Fatalf("want sdk_int 30, got %+v ok=%v", v, ok)
	}
}

func TestStringBuilderAppendAccumulates(t *testing.T) {
	r := New(DefaultConfig())
	initHook, _ := r.VirtualHook("Ljava/lang/StringBuilder;-><init>")
	sb, _ := initHook([]value.Value{value.Null(), value.NewString("a")}, "")

	appendHook, _ := r.VirtualHook("Ljava/lang/StringBuilder;->append")
	sb, _ = appendHook([]value.Value{sb, value.Int32(1)}, "")
	sb, _ = appendHook([]value.Value{sb, value.NewString("b")}, "")

	toStringHook, _ := r.VirtualHook("Ljava/lang/StringBuilder;->toString")
	result, _ := toStringHook([]value.Value{sb}, "")

	s, ok := result.StringPayload()
	if !ok || s != "a1b" {
		t.Fatalf("want \"a1b\", got %q (ok=%v)", s, ok)
	}
}

func TestBase64DecodeRoundTrips(t *testing.T) {
	r := New(DefaultConfig())
	hook, _ := r.StaticHook("Landroid/util/Base64;->decode")
	// "aGVsbG8=" is base64 for "hello"
	v, err := hook([]value.Value{value.NewString("aGVsbG8=")}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != value.KindArray || v.Arr.Len() != 5 {
		t.Fatalf("want a 5-byte array, got %+v", v)
	}
	want := "hello"
	for i, ch := range want {
		if v.Arr.Data[i].I32 != int32(ch) {
			t.Fatalf("byte %d: want %q, got %d", i, ch, v.Arr.Data[i].I32)
		}
	}
}

func TestListIteratorWalksBackingList(t *testing.T) {
	r := New(DefaultConfig())
	listHook, _ := r.VirtualHook("Landroid/content/pm/PackageManager;->getInstalledPackages")
	list, _ := listHook(nil, "")

	iterHook, _ := r.VirtualHook("Ljava/util/List;->iterator")
	it, _ := iterHook([]value.Value{list}, "")

	hasNextHook, _ := r.VirtualHook("Ljava/util/Iterator;->hasNext")
	nextHook, _ := r.VirtualHook("Ljava/util/Iterator;->next")

	hasNext, _ := hasNextHook([]value.Value{it}, "")
	if !hasNext.Bool {
		t.Fatalf("want hasNext true for a one-element list")
	}
	item, _ := nextHook([]value.Value{it}, "")
	if item.Obj == nil || item.Obj.ClassName != "Landroid/content/pm/PackageInfo;" {
		t.Fatalf("want a PackageInfo element, got %+v", item)
	}
	hasNext, _ = hasNextHook([]value.Value{it}, "")
	if hasNext.Bool {
		t.Fatalf("want hasNext false after consuming the one element")
	}
}

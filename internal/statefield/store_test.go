package statefield

import "testing"

func TestSetGetRoundTrip(t *testing.T) {
	s := New()
	s.Set("LT;", "sKey", int32(7))
	v, ok := s.Get("LT;", "sKey")
	if !ok {
		t.Fatal("expected value present")
	}
	if v.(int32) != 7 {
		t.Fatalf("want 7, got %v", v)
	}
}

func TestResetClearsFieldsAndInitializedClasses(t *testing.T) {
	s := New()
	s.Set("LT;", "sKey", int32(7))
	s.MarkClassInitialized("LT;")
	s.Reset()
	if s.Has("LT;", "sKey") {
		t.Fatal("expected fields cleared after reset")
	}
	if s.IsClassInitialized("LT;") {
		t.Fatal("expected initialized-classes cleared after reset")
	}
}

func TestMarkClassInitializedIsIdempotent(t *testing.T) {
	s := New()
	s.MarkClassInitialized("LT;")
	s.MarkClassInitialized("LT;")
	if !s.IsClassInitialized("LT;") {
		t.Fatal("expected class marked initialized")
	}
}

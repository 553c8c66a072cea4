package step

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

func TestSummaryTruncatesOnRuneBoundary(t *testing.T) {
	s := Step{Type: TypeText, Params: Params{"text": strings.Repeat("ありがとう", 10)}}

	summary := s.Summary()
	if !utf8.ValidString(summary) {
		t.Errorf("Summary() = %q, not valid UTF-8", summary)
	}
	if !strings.Contains(summary, "...") {
		t.Errorf("Summary() = %q, want truncated text", summary)
	}
}

func TestAddAssignsUniqueStableIDs(t *testing.T) {
	l := NewList()
	a := l.Add(Step{Type: MoveMouse})
	b := l.Add(Step{Type: Click})

	if a.ID == "" || b.ID == "" {
		t.Fatal("Add should assign ids")
	}
	if a.ID == b.ID {
		t.Error("ids must be unique")
	}

	// Removing one step must not touch the other's id.
	if _, ok := l.RemoveAt(0); !ok {
		t.Fatal("RemoveAt(0) failed")
	}
	got, ok := l.Get(0)
	if !ok || got.ID != b.ID {
		t.Errorf("remaining step id = %q, want %q", got.ID, b.ID)
	}
}

func TestRemoveAtBounds(t *testing.T) {
	l := NewList()
	l.Add(Step{Type: Delay})

	if _, ok := l.RemoveAt(-1); ok {
		t.Error("RemoveAt(-1) should fail")
	}
	if _, ok := l.RemoveAt(1); ok {
		t.Error("RemoveAt past end should fail")
	}
	if s, ok := l.RemoveAt(0); !ok || s.Type != Delay {
		t.Errorf("RemoveAt(0) = %v, %v; want the delay step", s, ok)
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestReorder(t *testing.T) {
	l := NewList()
	a := l.Add(Step{Type: MoveMouse})
	b := l.Add(Step{Type: Click})
	c := l.Add(Step{Type: Delay})

	if !l.Reorder(0, 2) {
		t.Fatal("Reorder(0, 2) = false, want true")
	}

	var gotIDs []string
	for _, s := range l.Snapshot() {
		gotIDs = append(gotIDs, s.ID)
	}
	wantIDs := []string{b.ID, c.ID, a.ID}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("order after Reorder(0,2) mismatch (-want +got):\n%s", diff)
	}
}

func TestReorderOutOfBoundsMutatesNothing(t *testing.T) {
	l := NewList()
	a := l.Add(Step{Type: MoveMouse})
	b := l.Add(Step{Type: Click})

	if l.Reorder(0, 5) {
		t.Error("Reorder with bad newIndex should return false")
	}
	if l.Reorder(-1, 1) {
		t.Error("Reorder with bad oldIndex should return false")
	}

	snap := l.Snapshot()
	if snap[0].ID != a.ID || snap[1].ID != b.ID {
		t.Error("failed Reorder must not mutate the list")
	}
}

func TestClear(t *testing.T) {
	l := NewList()
	l.Add(Step{Type: MoveMouse})
	l.Add(Step{Type: Click})

	l.Clear()

	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Clear", l.Len())
	}
	if _, ok := l.Get(0); ok {
		t.Error("Get(0) should fail on an empty list")
	}
}

func TestReplaceAssignsMissingIDs(t *testing.T) {
	l := NewList()
	l.Replace([]Step{
		{Type: MoveMouse},
		{ID: "keep-me", Type: Click},
	})

	first, _ := l.Get(0)
	second, _ := l.Get(1)
	if first.ID == "" {
		t.Error("Replace should assign an id when missing")
	}
	if second.ID != "keep-me" {
		t.Errorf("existing id = %q, want keep-me", second.ID)
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		"x":       float64(42), // JSON decoder shape
		"y":       7,           // native int
		"text":    "hello",
		"keys":    []any{"ctrl", "c"},
		"seconds": 1.5,
	}

	if v, ok := p.Int("x"); !ok || v != 42 {
		t.Errorf("Int(x) = %d, %v; want 42, true", v, ok)
	}
	if v, ok := p.Int("y"); !ok || v != 7 {
		t.Errorf("Int(y) = %d, %v; want 7, true", v, ok)
	}
	if _, ok := p.Int("missing"); ok {
		t.Error("Int(missing) should fail")
	}
	if v, ok := p.Float("seconds"); !ok || v != 1.5 {
		t.Errorf("Float(seconds) = %f, %v; want 1.5, true", v, ok)
	}
	if v, ok := p.String("text"); !ok || v != "hello" {
		t.Errorf("String(text) = %q, %v", v, ok)
	}
	keys, ok := p.Strings("keys")
	if !ok || len(keys) != 2 || keys[0] != "ctrl" {
		t.Errorf("Strings(keys) = %v, %v", keys, ok)
	}
	if _, ok := p.Strings("text"); ok {
		t.Error("Strings on a scalar should fail")
	}
}

func TestTypeKnown(t *testing.T) {
	for _, typ := range []Type{MoveMouse, Click, TypeText, Delay, Screenshot, PressHotkey, FindAndClickImage} {
		if !typ.Known() {
			t.Errorf("Known(%s) = false, want true", typ)
		}
	}
	if Type("teleport").Known() {
		t.Error("Known should reject unrecognized types")
	}
}

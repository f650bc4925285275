package evidence

import "testing"

func TestNewBundle_Ordering(t *testing.T) {
	items := []Item{
		NewDocument("rec-2", 0.5, "b"),
		NewStatistic("stat:x", 0.9, "s"),
		NewDocument("rec-1", 0.5, "a"),
		NewDocument("rec-3", 0.7, "c"),
	}
	b := NewBundle(items, nil, 0)

	got := make([]string, 0, b.Len())
	for _, it := range b.Items() {
		got = append(got, it.ID())
	}
	want := []string{"stat:x", "rec-3", "rec-1", "rec-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestNewBundle_Cap(t *testing.T) {
	items := []Item{
		NewDocument("a", 0.9, ""),
		NewDocument("b", 0.8, ""),
		NewDocument("c", 0.7, ""),
	}

	b := NewBundle(items, nil, 2)
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
	if b.Items()[0].ID() != "a" || b.Items()[1].ID() != "b" {
		t.Fatal("cap must keep the highest-scored items")
	}

	// Non-positive cap disables truncation.
	zeroCap := NewBundle(items, nil, 0)
	if got := zeroCap.Len(); got != 3 {
		t.Fatalf("uncapped len = %d, want 3", got)
	}
	negCap := NewBundle(items, nil, -1)
	if got := negCap.Len(); got != 3 {
		t.Fatalf("uncapped len = %d, want 3", got)
	}
}

func TestNewBundle_DoesNotMutateInput(t *testing.T) {
	items := []Item{
		NewDocument("b", 0.1, ""),
		NewDocument("a", 0.9, ""),
	}
	NewBundle(items, nil, 1)
	if items[0].ID() != "b" {
		t.Fatal("input slice reordered")
	}
}

func TestItem_WithScores(t *testing.T) {
	it := NewDocument("rec-1", 0.6, "text")
	fused := it.WithScores(0.8, 0.6, 1.0, []Provenance{FromSemantic, FromComputational})

	if fused.Score() != 0.8 || fused.SimScore() != 0.6 || fused.StatScore() != 1.0 {
		t.Fatalf("scores = %v/%v/%v", fused.Score(), fused.SimScore(), fused.StatScore())
	}
	if len(fused.Provenance()) != 2 {
		t.Fatalf("provenance = %v", fused.Provenance())
	}
	if it.Score() != 0.6 {
		t.Fatal("WithScores must not mutate the receiver")
	}
}

package suggest

import (
	"testing"

	"github.com/bastiangx/wordcore/pkg/trie"
)

func TestTopKOrderingAndTrim(t *testing.T) {
	set := NewTopK(3)
	for _, conf := range []float64{-5, -1, -3, -2, -4, -0.5} {
		set.Insert(Candidate{Text: "w", ConfidenceLog: conf})
	}

	ranked := set.Ranked()
	if len(ranked) != 3 {
		t.Fatalf("len = %d, want 3", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].ConfidenceLog > ranked[i-1].ConfidenceLog {
			t.Errorf("ranking not non-increasing at %d: %v > %v", i, ranked[i].ConfidenceLog, ranked[i-1].ConfidenceLog)
		}
	}
	if ranked[0].ConfidenceLog != -0.5 {
		t.Errorf("best = %v, want -0.5", ranked[0].ConfidenceLog)
	}
}

func TestTopKRejectsBelowMinimumWhenFull(t *testing.T) {
	set := NewTopK(2)
	for _, conf := range []float64{-1, -2, -3} {
		set.Insert(Candidate{ConfidenceLog: conf})
	}
	// capacity is 3 (one headroom slot), now saturated with -1 -2 -3
	if ok := set.Insert(Candidate{ConfidenceLog: -9}); ok {
		t.Error("insert below the minimum should be rejected")
	}
	if ok := set.Insert(Candidate{ConfidenceLog: -1.5}); !ok {
		t.Error("insert above the minimum should be accepted")
	}
}

func TestTopKBound(t *testing.T) {
	set := NewTopK(2)
	if _, ok := set.Bound(); ok {
		t.Error("empty set should expose no bound")
	}
	for _, conf := range []float64{-1, -2, -3} {
		set.Insert(Candidate{ConfidenceLog: conf})
	}
	bound, ok := set.Bound()
	if !ok || bound != -3 {
		t.Errorf("bound = %v,%v want -3,true", bound, ok)
	}
}

func TestTopKNodeIdentityDedup(t *testing.T) {
	node := trie.NewRoot().FindOrCreate([]string{"a"})
	other := node // same node reached twice

	set := NewTopK(5)
	set.Insert(Candidate{Text: "a", ConfidenceLog: -3, node: node})
	set.Insert(Candidate{Text: "a", ConfidenceLog: -1, node: other})

	if set.Len() != 1 {
		t.Fatalf("len = %d, want 1 after same-node dedup", set.Len())
	}
	if got := set.Ranked()[0].ConfidenceLog; got != -1 {
		t.Errorf("kept confidence = %v, want the better -1", got)
	}

	// distinct nodes with the same spelling both survive
	root2 := trie.NewRoot()
	set.Insert(Candidate{Text: "a", ConfidenceLog: -2, node: root2.FindOrCreate([]string{"a"})})
	if set.Len() != 2 {
		t.Errorf("len = %d, want 2 for distinct nodes", set.Len())
	}
}

func TestTopKUnlimited(t *testing.T) {
	set := NewTopK(0)
	for i := 0; i < 300; i++ {
		set.Insert(Candidate{ConfidenceLog: -float64(i)})
	}
	if set.Len() != 300 {
		t.Errorf("unlimited set trimmed: len = %d", set.Len())
	}
	if _, ok := set.Bound(); ok {
		t.Error("unlimited set should expose no bound")
	}
}

func BenchmarkTopKInsert(b *testing.B) {
	set := NewTopK(8)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		set.Insert(Candidate{ConfidenceLog: -float64(i % 64)})
	}
}

package trie

import (
	"strings"
	"testing"
)

func split(word string) []string {
	return strings.Split(word, "")
}

func TestFindRoundtrip(t *testing.T) {
	root := NewRoot()

	inserted := root.FindOrCreate(split("hello"))
	if inserted == nil {
		t.Fatal("FindOrCreate returned nil")
	}
	if got := root.FindOrNull(split("hello")); got != inserted {
		t.Errorf("FindOrNull returned %p, want the inserted node %p", got, inserted)
	}
	if got := root.FindOrNull(split("helium")); got != nil {
		t.Errorf("FindOrNull on a never-inserted word returned %p, want nil", got)
	}
	// prefixes exist as interior nodes but carry no values
	if got := root.FindOrNull(split("hel")); got == nil {
		t.Error("interior prefix node missing")
	} else if got.ValueOrNull(0) != nil {
		t.Error("interior node unexpectedly has a value")
	}
}

func TestValuesPerDictionary(t *testing.T) {
	root := NewRoot()
	node := root.FindOrCreate(split("the"))

	e0 := node.ValueOrCreate(0)
	e0.Word = &WordProps{Score: 10}
	e1 := node.ValueOrCreate(1)
	e1.Word = &WordProps{Score: 99}

	if node.ValueOrNull(0) == node.ValueOrNull(1) {
		t.Error("dictionaries share an entry slot")
	}
	if node.ValueOrNull(2) != nil {
		t.Error("unknown dictionary id has a value")
	}
	if got := node.ValueOrNull(1).Word.Score; got != 99 {
		t.Errorf("dict 1 score = %d, want 99", got)
	}
	if ids := node.DictIDs(); len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("DictIDs = %v, want [0 1]", ids)
	}
}

func TestForEachLexicographicOrder(t *testing.T) {
	root := NewRoot()
	words := []string{"cab", "car", "ant", "cat", "a"}
	for _, w := range words {
		root.FindOrCreate(split(w)).ValueOrCreate(0).Word = &WordProps{Score: 1}
	}

	var visited []string
	root.ForEach(nil, func(path []string, node *Node) {
		if entry := node.ValueOrNull(0); entry != nil && entry.Word != nil {
			visited = append(visited, strings.Join(path, ""))
		}
	})

	want := []string{"a", "ant", "cab", "car", "cat"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visit order[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestForEachTermination(t *testing.T) {
	sep := "\x1e"
	root := NewRoot()
	root.FindOrCreate(split("the")).ValueOrCreate(0).Word = &WordProps{Score: 1}
	chain := append(append(split("the"), sep), split("cat")...)
	root.FindOrCreate(chain).ValueOrCreate(0).Ngram = &NgramProps{Score: 1}

	var visited []string
	root.ForEach(map[string]struct{}{sep: {}}, func(path []string, node *Node) {
		visited = append(visited, strings.Join(path, ""))
	})
	for _, p := range visited {
		if strings.Contains(p, sep) {
			t.Errorf("traversal crossed a termination token: %q", p)
		}
	}
}

func TestPathReconstruction(t *testing.T) {
	root := NewRoot()
	node := root.FindOrCreate(split("cat"))
	path := node.Path()
	if got := strings.Join(path, ""); got != "cat" {
		t.Errorf("Path = %q, want %q", got, "cat")
	}
	if len(root.Path()) != 0 {
		t.Error("root path should be empty")
	}
}

func TestPathSliceOwnedByIterator(t *testing.T) {
	root := NewRoot()
	root.FindOrCreate(split("ab"))
	root.FindOrCreate(split("ac"))

	var captured [][]string
	root.ForEach(nil, func(path []string, node *Node) {
		copied := make([]string, len(path))
		copy(copied, path)
		captured = append(captured, copied)
	})
	// root, a, ab, ac
	if len(captured) != 4 {
		t.Fatalf("visited %d nodes, want 4", len(captured))
	}
	if got := strings.Join(captured[3], ""); got != "ac" {
		t.Errorf("last visit = %q, want %q", got, "ac")
	}
}

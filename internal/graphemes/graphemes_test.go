package graphemes

import "testing"

func TestSplit(t *testing.T) {
	seg := NewSegmenter("en")

	testCases := []struct {
		input       string
		want        []string
		description string
	}{
		{"cat", []string{"c", "a", "t"}, "plain ASCII"},
		{"", nil, "empty string"},
		{"café", []string{"c", "a", "f", "é"}, "precomposed accent"},
		{"éa", []string{"é", "a"}, "combining accent stays one cluster"},
		{"naïve", []string{"n", "a", "ï", "v", "e"}, "diaeresis"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := seg.Split(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("Split(%q) = %v, want %v", tc.input, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("Split(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestIsSpecial(t *testing.T) {
	if !IsSpecial(SOS) || !IsSpecial(NgramSep) {
		t.Error("reserved tokens must be special")
	}
	if IsSpecial("a") || IsSpecial("") || IsSpecial("ab") {
		t.Error("ordinary graphemes must not be special")
	}
}

func TestOppositeCase(t *testing.T) {
	seg := NewSegmenter("en")

	testCases := []struct {
		input string
		want  string
	}{
		{"a", "A"},
		{"A", "a"},
		{"é", "É"},
		{"1", "1"},
		{SOS, SOS},
	}
	for _, tc := range testCases {
		if got := seg.OppositeCase(tc.input); got != tc.want {
			t.Errorf("OppositeCase(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFoldEquals(t *testing.T) {
	seg := NewSegmenter("en")

	if !seg.FoldEquals("a", "A") {
		t.Error("ASCII case fold failed")
	}
	if !seg.FoldEquals("é", "É") {
		t.Error("non-ASCII case fold failed")
	}
	if seg.FoldEquals("a", "b") {
		t.Error("distinct graphemes folded equal")
	}
}

func TestTitle(t *testing.T) {
	seg := NewSegmenter("en")

	testCases := []struct {
		input string
		want  string
	}{
		{"hello", "Hello"},
		{"iPhone", "IPhone"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := seg.Title(tc.input); got != tc.want {
			t.Errorf("Title(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestJoinWordsDropsSpecials(t *testing.T) {
	if got := JoinWords([]string{SOS, "c", "a", NgramSep, "t"}); got != "cat" {
		t.Errorf("JoinWords = %q, want %q", got, "cat")
	}
}

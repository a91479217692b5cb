package revision

import (
	"reflect"
	"testing"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		want   Script
	}{
		{
			name:   "empty",
			script: Script{},
			want:   Script{},
		},
		{
			name:   "drops empty ops",
			script: Script{{OpEqual, "a"}, {OpDelete, ""}, {OpEqual, "b"}},
			want:   Script{{OpEqual, "ab"}},
		},
		{
			name:   "merges same kind runs",
			script: Script{{OpDelete, "a"}, {OpDelete, "b"}, {OpInsert, "c"}, {OpInsert, "d"}},
			want:   Script{{OpDelete, "ab"}, {OpInsert, "cd"}},
		},
		{
			name:   "keeps alternating kinds",
			script: Script{{OpEqual, "a"}, {OpDelete, "b"}, {OpEqual, "c"}},
			want:   Script{{OpEqual, "a"}, {OpDelete, "b"}, {OpEqual, "c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.script)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge(%v) = %v, want %v", tt.script, got, tt.want)
			}
		})
	}
}

func TestPolicyTrivial(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		text string
		want bool
	}{
		{" ", true},
		{"  ", true},
		{"   ", false}, // three spaces exceed the whitespace run limit
		{"\n", true},
		{",", true},
		{";", true},
		{"。", true},
		{" , ", true}, // stripped to a single mark
		{"a", false},
		{"5", false},
		{"very ", false},
		{",,", false},
		{"centre", false},
	}

	for _, tt := range tests {
		if got := p.trivial(tt.text); got != tt.want {
			t.Errorf("trivial(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeSuppression(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		corrected string
		want      Script
	}{
		{
			// A lone inserted space is reflow noise, not a correction.
			name:      "single space insert suppressed",
			original:  "one two",
			corrected: "one  two",
			want:      Script{{OpEqual, "one  two"}},
		},
		{
			// Swapping one punctuation mark keeps only the corrected mark
			// as plain text.
			name:      "comma to semicolon suppressed",
			original:  "a, b",
			corrected: "a; b",
			want:      Script{{OpEqual, "a; b"}},
		},
		{
			name:      "word replacement never suppressed",
			original:  "the centre stage",
			corrected: "the center stage",
			want: Script{
				{OpEqual, "the "},
				{OpDelete, "centre"},
				{OpInsert, "center"},
				{OpEqual, " stage"},
			},
		},
		{
			name:      "trivial delete retains original side",
			original:  "one  two",
			corrected: "one two",
			want:      Script{{OpEqual, "one  two"}},
		},
		{
			// Adjacent changed tokens travel as one block, so the
			// punctuation rides along with the word and the block
			// stays above the suppression threshold.
			name:      "meaningful and trivial changes mix",
			original:  "the colour, as shown",
			corrected: "the color; as shown",
			want: Script{
				{OpEqual, "the "},
				{OpDelete, "colour,"},
				{OpInsert, "color;"},
				{OpEqual, " as shown"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(Align(tt.original, tt.corrected), DefaultPolicy())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(Align(%q, %q)) = %v, want %v", tt.original, tt.corrected, got, tt.want)
			}
		})
	}
}

// Equal ops must never be suppressed or rewritten.
func TestNormalizeKeepsEqualOps(t *testing.T) {
	script := Script{{OpEqual, " "}, {OpDelete, "word"}, {OpEqual, ","}}
	got := Normalize(script, DefaultPolicy())
	want := Script{{OpEqual, " "}, {OpDelete, "word"}, {OpEqual, ","}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(%v) = %v, want %v", script, got, want)
	}
}

// Custom thresholds move the suppression boundary.
func TestNormalizeCustomPolicy(t *testing.T) {
	strict := Policy{MaxWhitespaceRun: 0, TrivialPunctuation: ""}

	script := Normalize(Align("one two", "one  two"), strict)
	if !script.HasChanges() {
		t.Errorf("strict policy suppressed a space insert, want it kept")
	}

	loose := Policy{MaxWhitespaceRun: 10, TrivialPunctuation: DefaultPolicy().TrivialPunctuation}
	script = Normalize(Align("a b", "a      b"), loose)
	if script.HasChanges() {
		t.Errorf("loose policy kept a five-space insert, want it suppressed")
	}
}

func TestHasMeaningfulChanges(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		corrected string
		want      bool
	}{
		{"identical", "same", "same", false},
		{"both empty", "", "", false},
		{"word change", "the colour", "the color", true},
		{"space insert only", "one two", "one  two", false},
		{"punctuation swap only", "a, b", "a; b", false},
		{"chinese char change", "中文測試", "中文考試", true},
		{"chinese punctuation swap only", "你好，世界", "你好。世界", false},
		{"deletion", "was very crowded", "was crowded", true},
		{"text appears", "", "anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasMeaningfulChanges(tt.original, tt.corrected); got != tt.want {
				t.Errorf("HasMeaningfulChanges(%q, %q) = %v, want %v", tt.original, tt.corrected, got, tt.want)
			}
		})
	}
}

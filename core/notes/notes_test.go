package notes

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Note
	}{
		{
			name: "full reference",
			raw:  `Changed 'colour' to 'color' [Ref: House Style §3.2: "Use American spelling throughout"]`,
			want: Note{
				Text: "Changed 'colour' to 'color'",
				Ref: &Ref{
					Source:  "House Style",
					Section: "§3.2",
					Quote:   "Use American spelling throughout",
				},
			},
		},
		{
			name: "section only",
			raw:  "Fixed comma splice [Ref: Punctuation Guide §1]",
			want: Note{
				Text: "Fixed comma splice",
				Ref:  &Ref{Source: "Punctuation Guide", Section: "§1"},
			},
		},
		{
			name: "quote without section",
			raw:  `Added serial comma [Ref: English Style Guide: "Use the serial comma in lists of three or more"]`,
			want: Note{
				Text: "Added serial comma",
				Ref: &Ref{
					Source: "English Style Guide",
					Quote:  "Use the serial comma in lists of three or more",
				},
			},
		},
		{
			name: "dotted section",
			raw:  "Reordered modifiers [Ref: Grammar Notes §10.4.2]",
			want: Note{
				Text: "Reordered modifiers",
				Ref:  &Ref{Source: "Grammar Notes", Section: "§10.4.2"},
			},
		},
		{
			name: "curly quotes",
			raw:  "統一標點符號 [Ref: 中文編輯指引 §2: “全形標點用於中文句子”]",
			want: Note{
				Text: "統一標點符號",
				Ref: &Ref{
					Source:  "中文編輯指引",
					Section: "§2",
					Quote:   "全形標點用於中文句子",
				},
			},
		},
		{
			name: "no reference",
			raw:  "Removed redundant intensifier",
			want: Note{Text: "Removed redundant intensifier"},
		},
		{
			name: "unclosed bracket degrades",
			raw:  "Fixed spacing [Ref: House Style §1",
			want: Note{Text: "Fixed spacing [Ref: House Style §1"},
		},
		{
			name: "empty reference degrades",
			raw:  "Fixed spacing [Ref: ]",
			want: Note{Text: "Fixed spacing [Ref: ]"},
		},
		{
			name: "garbled reference degrades",
			raw:  `Fixed spacing [Ref: : "orphan quote" trailing]`,
			want: Note{Text: `Fixed spacing [Ref: : "orphan quote" trailing]`},
		},
		{
			name: "whitespace trimmed",
			raw:  "  Tightened wording  ",
			want: Note{Text: "Tightened wording"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRefLabel(t *testing.T) {
	tests := []struct {
		ref  Ref
		want string
	}{
		{Ref{Source: "House Style", Section: "§3.2"}, "House Style §3.2"},
		{Ref{Source: "House Style"}, "House Style"},
		{Ref{Section: "§3.2"}, "§3.2"},
	}
	for _, tt := range tests {
		if got := tt.ref.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestCitations(t *testing.T) {
	raw := []string{
		`Changed 'colour' to 'color' [Ref: House Style §3.2: "Use American spelling"]`,
		"Removed redundant intensifier",
		"Fixed comma splice [Ref: Punctuation Guide §1]",
	}

	parsed := ParseAll(raw)
	if got := Texts(parsed); !reflect.DeepEqual(got, []string{
		"Changed 'colour' to 'color'",
		"Removed redundant intensifier",
		"Fixed comma splice",
	}) {
		t.Errorf("Texts() = %v", got)
	}

	cites := Citations(parsed)
	if len(cites) != 2 {
		t.Fatalf("Citations() count = %d, want 2", len(cites))
	}
	if got, want := cites[0].Source, "House Style §3.2"; got != want {
		t.Errorf("citation source = %q, want %q", got, want)
	}
	if got, want := cites[0].Quote, "Use American spelling"; got != want {
		t.Errorf("citation quote = %q, want %q", got, want)
	}
	if got, want := cites[1].Text, "Fixed comma splice"; got != want {
		t.Errorf("citation text = %q, want %q", got, want)
	}
	if cites[1].Quote != "" {
		t.Errorf("citation quote = %q, want empty", cites[1].Quote)
	}
}

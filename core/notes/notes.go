// Package notes parses assistant correction notes. By service convention a
// note reads
//
//	<description> [Ref: <source label> §<section>: "<quoted rule>"]
//
// where the bracketed reference is optional, as are the section number and
// the quoted rule inside it. Malformed references degrade gracefully: the
// whole string is kept as the note text and no citation is produced.
package notes

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/quillworks/redline/core/revision"
)

// Note is one correction note, split into its description and the
// style-guide reference backing it.
type Note struct {
	Text string `json:"text"`          // description with any trailing reference stripped
	Ref  *Ref   `json:"ref,omitempty"` // parsed reference, nil when absent or malformed
}

// Ref locates the style-guide rule a correction is based on.
type Ref struct {
	Source  string `json:"source"`            // guide label, e.g. "House Style"
	Section string `json:"section,omitempty"` // section number including the sign, e.g. "§3.2"
	Quote   string `json:"quote,omitempty"`   // quoted rule text without the quotation marks
}

// Label formats the reference source for display, e.g. "House Style §3.2".
func (r *Ref) Label() string {
	switch {
	case r.Source == "":
		return r.Section
	case r.Section == "":
		return r.Source
	default:
		return r.Source + " " + r.Section
	}
}

// refGrammar is the participle grammar for the bracket interior.
// Examples: `House Style §3.2: "Use American spelling"`, `Grammar Guide §1`,
// `English Style Guide: "Use the serial comma"`
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	Label   []string `parser:"@Word*"`
	Section *string  `parser:"@Section?"`
	Quote   *string  `parser:"( ':' @Quoted )?"`
}

var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Section", Pattern: `§[0-9]+(?:\.[0-9]+)*`},
	{Name: "Quoted", Pattern: `"[^"]*"|“[^”]*”`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Word", Pattern: `[^\s:§"“”\]]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var refParser = participle.MustBuild[refGrammar](
	participle.Lexer(refLexer),
	participle.Elide("Whitespace"),
)

const refOpen = "[Ref:"

// Parse splits one raw note into description and reference.
func Parse(raw string) Note {
	text, refSrc, ok := splitRef(raw)
	if !ok {
		return Note{Text: strings.TrimSpace(raw)}
	}

	parsed, err := refParser.ParseString("", refSrc)
	if err != nil {
		return Note{Text: strings.TrimSpace(raw)}
	}

	ref := &Ref{Source: strings.Join(parsed.Label, " ")}
	if parsed.Section != nil {
		ref.Section = *parsed.Section
	}
	if parsed.Quote != nil {
		ref.Quote = unquote(*parsed.Quote)
	}
	return Note{Text: text, Ref: ref}
}

// ParseAll parses a batch of raw notes, preserving order.
func ParseAll(raw []string) []Note {
	parsed := make([]Note, len(raw))
	for i, r := range raw {
		parsed[i] = Parse(r)
	}
	return parsed
}

// Texts returns the descriptions of the notes, references stripped.
func Texts(parsed []Note) []string {
	texts := make([]string, len(parsed))
	for i, n := range parsed {
		texts[i] = n.Text
	}
	return texts
}

// Citations adapts the referenced notes to the renderer's citation type.
// Notes without a reference contribute nothing.
func Citations(parsed []Note) []revision.Citation {
	var cites []revision.Citation
	for _, n := range parsed {
		if n.Ref == nil {
			continue
		}
		cites = append(cites, revision.Citation{
			Text:   n.Text,
			Quote:  n.Ref.Quote,
			Source: n.Ref.Label(),
		})
	}
	return cites
}

// splitRef separates the trailing [Ref: …] group from the description.
// The reference must close the note; a bracket mid-text is part of the
// description.
func splitRef(raw string) (text, ref string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	idx := strings.LastIndex(trimmed, refOpen)
	if idx < 0 || !strings.HasSuffix(trimmed, "]") {
		return raw, "", false
	}
	inner := strings.TrimSpace(trimmed[idx+len(refOpen) : len(trimmed)-1])
	if inner == "" {
		return raw, "", false
	}
	return strings.TrimSpace(trimmed[:idx]), inner, true
}

// unquote strips the surrounding quotation marks, straight or curly.
func unquote(s string) string {
	r := []rune(s)
	if len(r) >= 2 {
		return string(r[1 : len(r)-1])
	}
	return s
}

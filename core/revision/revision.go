// Package revision computes human-readable diffs between an original and a
// corrected text and renders them as Word documents carrying native tracked
// changes. The pipeline is pure and synchronous: classify script, split into
// edit units, align, normalize, render, serialize. Every call owns its own
// revision-id counter and timestamp, so concurrent use needs no locking.
//
// Callers supply already-extracted plain text. How the strings were obtained
// (uploads, assistant passes, marker restoration) is of no concern here.
package revision

import (
	"strings"
	"time"
	"unicode/utf8"
)

// OpKind classifies one edit operation.
type OpKind int

const (
	// OpEqual marks text present in both versions.
	OpEqual OpKind = iota
	// OpDelete marks text present only in the original.
	OpDelete
	// OpInsert marks text present only in the corrected version.
	OpInsert
)

func (k OpKind) String() string {
	switch k {
	case OpEqual:
		return "equal"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	default:
		return "unknown"
	}
}

// EditOp is one operation of an edit script. It carries the concatenated
// text it covers, never an index range.
type EditOp struct {
	Kind OpKind
	Text string
}

// Script is an ordered edit script. Concatenating the Equal and Delete texts
// in order reconstructs the original exactly; Equal and Insert texts
// reconstruct the corrected text.
type Script []EditOp

// Original reconstructs the original text from the script.
func (s Script) Original() string {
	var b strings.Builder
	for _, op := range s {
		if op.Kind == OpEqual || op.Kind == OpDelete {
			b.WriteString(op.Text)
		}
	}
	return b.String()
}

// Corrected reconstructs the corrected text from the script.
func (s Script) Corrected() string {
	var b strings.Builder
	for _, op := range s {
		if op.Kind == OpEqual || op.Kind == OpInsert {
			b.WriteString(op.Text)
		}
	}
	return b.String()
}

// HasChanges reports whether the script contains any Delete or Insert op.
func (s Script) HasChanges() bool {
	for _, op := range s {
		if op.Kind != OpEqual {
			return true
		}
	}
	return false
}

// Citation is a style-guide reference attached to the corrections summary.
type Citation struct {
	Text   string // description of the correction the citation supports
	Quote  string // optional quoted rule text
	Source string // optional source label (guide name, section)
}

// Policy holds the trivia-suppression thresholds. The values were tuned
// empirically on real proofreading output; keep them configurable rather
// than inlined so the boundary can be adjusted without touching the
// normalizer.
type Policy struct {
	// MaxWhitespaceRun is the longest whitespace-only run, in runes, that
	// is suppressed as reflow noise.
	MaxWhitespaceRun int

	// TrivialPunctuation holds the sentence-level marks whose lone
	// replacement is not worth a tracked change.
	TrivialPunctuation string
}

// DefaultPolicy returns the standard suppression thresholds, covering both
// Latin and CJK sentence punctuation.
func DefaultPolicy() Policy {
	return Policy{
		MaxWhitespaceRun:   2,
		TrivialPunctuation: ",.;:!?'\"()- ，。；：！？、（）「」『』·‘’“”",
	}
}

// trivial reports whether a Delete/Insert covering text is suppressible
// under the policy.
func (p Policy) trivial(text string) bool {
	if text == "" {
		return true
	}
	if strings.TrimSpace(text) == "" {
		return utf8.RuneCountInString(text) <= p.MaxWhitespaceRun
	}
	stripped := []rune(strings.TrimSpace(text))
	return len(stripped) == 1 && strings.ContainsRune(p.TrivialPunctuation, stripped[0])
}

// DefaultAuthor is the revision author recorded on tracked changes.
const DefaultAuthor = "Proofreader"

// Options configures a render. Zero values select the defaults.
type Options struct {
	Author    string    // revision author; empty means DefaultAuthor
	Timestamp time.Time // revision timestamp; zero means time.Now().UTC()
	Policy    Policy    // suppression thresholds; zero means DefaultPolicy()
}

func (o Options) withDefaults() Options {
	if o.Author == "" {
		o.Author = DefaultAuthor
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now().UTC()
	}
	if o.Policy == (Policy{}) {
		o.Policy = DefaultPolicy()
	}
	return o
}

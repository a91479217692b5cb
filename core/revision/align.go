package revision

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/quillworks/redline/core/lang"
)

// Token interning maps each distinct token to a private rune so the rune
// diff can align token sequences. Indices at or above the surrogate range
// are shifted past it: surrogate code points cannot survive a Go string
// round trip.
const (
	surrogateMin = 0xD800
	surrogateGap = 0x0800 // 0xE000 - 0xD800

	// maxInternable bounds the distinct-token count one alignment can
	// intern before falling back to rune mode.
	maxInternable = 0x10FFFF - surrogateGap
)

// Align computes the raw edit script between original and corrected.
// Ideographic pairs (either string containing a CJK ideograph) and
// stuck-together pairs (spaceless original, spaced correction) are aligned
// per rune; all other pairs per token. Replace regions always appear as a
// Delete followed by an Insert, never one merged op.
func Align(original, corrected string) Script {
	switch {
	case original == corrected:
		if original == "" {
			return Script{}
		}
		return Script{{Kind: OpEqual, Text: original}}
	case original == "":
		return Script{{Kind: OpInsert, Text: corrected}}
	case corrected == "":
		return Script{{Kind: OpDelete, Text: original}}
	}

	if characterMode(original, corrected) {
		return alignRunes([]rune(original), []rune(corrected))
	}
	return alignTokens(Tokenize(original), Tokenize(corrected))
}

// characterMode reports whether the pair should be aligned per rune.
// Ideographic text carries no intra-sentence whitespace, so token
// boundaries built from Latin-script heuristics are meaningless there.
// The same applies to stuck-together text: when the original has no
// spaces and the correction introduces them, the original is one giant
// token and a token diff would delete and reinsert everything, while a
// rune diff recovers the word boundaries as minimal space insertions.
func characterMode(original, corrected string) bool {
	if lang.ContainsIdeograph(original) || lang.ContainsIdeograph(corrected) {
		return true
	}
	return !strings.Contains(original, " ") && strings.Contains(corrected, " ")
}

func newDiffer() *diffmatchpatch.DiffMatchPatch {
	dmp := diffmatchpatch.New()
	// The engine contract assumes bounded input; an exact diff keeps the
	// output deterministic instead of degrading under a wall-clock cutoff.
	dmp.DiffTimeout = 0
	return dmp
}

// alignRunes diffs two rune sequences directly.
func alignRunes(a, b []rune) Script {
	diffs := newDiffer().DiffMainRunes(a, b, false)
	script := make(Script, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		script = append(script, EditOp{Kind: kindOf(d.Type), Text: d.Text})
	}
	return orderDeletesFirst(script)
}

// alignTokens interns tokens as runes, diffs the interned sequences, and
// maps the result back to token text.
func alignTokens(a, b []string) Script {
	index := make(map[string]rune, len(a)+len(b))
	table := make([]string, 0, len(a)+len(b))

	intern := func(units []string) ([]rune, bool) {
		runes := make([]rune, len(units))
		for i, u := range units {
			r, ok := index[u]
			if !ok {
				if len(table) >= maxInternable {
					return nil, false
				}
				r = runeForIndex(len(table))
				index[u] = r
				table = append(table, u)
			}
			runes[i] = r
		}
		return runes, true
	}

	ra, ok := intern(a)
	if !ok {
		return alignRunes([]rune(strings.Join(a, "")), []rune(strings.Join(b, "")))
	}
	rb, ok := intern(b)
	if !ok {
		return alignRunes([]rune(strings.Join(a, "")), []rune(strings.Join(b, "")))
	}

	diffs := newDiffer().DiffMainRunes(ra, rb, false)
	script := make(Script, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		var sb strings.Builder
		for _, r := range d.Text {
			sb.WriteString(table[indexForRune(r)])
		}
		script = append(script, EditOp{Kind: kindOf(d.Type), Text: sb.String()})
	}
	return orderDeletesFirst(script)
}

func runeForIndex(i int) rune {
	if i >= surrogateMin {
		i += surrogateGap
	}
	return rune(i)
}

func indexForRune(r rune) int {
	i := int(r)
	if i >= surrogateMin+surrogateGap {
		i -= surrogateGap
	}
	return i
}

func kindOf(op diffmatchpatch.Operation) OpKind {
	switch op {
	case diffmatchpatch.DiffDelete:
		return OpDelete
	case diffmatchpatch.DiffInsert:
		return OpInsert
	default:
		return OpEqual
	}
}

// orderDeletesFirst swaps any Insert op that directly precedes a Delete op.
// The two cover disjoint sides of the alignment, so swapping preserves both
// reconstructions while keeping deletions rendered before insertions.
func orderDeletesFirst(script Script) Script {
	for i := 0; i+1 < len(script); i++ {
		if script[i].Kind == OpInsert && script[i+1].Kind == OpDelete {
			script[i], script[i+1] = script[i+1], script[i]
		}
	}
	return script
}

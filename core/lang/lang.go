// Package lang provides script classification for proofreading text.
// It decides both the diff granularity (ideographic text is aligned per
// character) and which language-specialist editor a text is routed to.
package lang

import "unicode"

// Language identifies the dominant script of a text for editor routing.
type Language string

const (
	English Language = "english"
	Chinese Language = "chinese"
	Mixed   Language = "mixed"
)

// Classification thresholds, tuned on real submissions. Chinese prose
// frequently embeds Latin names and acronyms, so a modest ideographic
// share already marks a text as Chinese.
const (
	chineseRatio = 0.3
	englishRatio = 0.7
)

// Valid reports whether l is one of the recognized language values.
func (l Language) Valid() bool {
	switch l {
	case English, Chinese, Mixed:
		return true
	}
	return false
}

// IsIdeograph reports whether r falls in the CJK Unified Ideographs block
// (U+4E00..U+9FFF) or Extension A (U+3400..U+4DBF).
func IsIdeograph(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF)
}

// ContainsIdeograph reports whether s contains at least one CJK ideograph.
func ContainsIdeograph(s string) bool {
	for _, r := range s {
		if IsIdeograph(r) {
			return true
		}
	}
	return false
}

// Detect classifies text as english, chinese, or mixed by the share of
// ideographic and Latin letters among all letters. Text without letters
// is classified as mixed.
func Detect(text string) Language {
	var ideographic, latin, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case IsIdeograph(r):
			ideographic++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}

	if letters == 0 {
		return Mixed
	}
	if float64(ideographic)/float64(letters) > chineseRatio {
		return Chinese
	}
	if float64(latin)/float64(letters) > englishRatio {
		return English
	}
	return Mixed
}

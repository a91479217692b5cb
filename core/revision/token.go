package revision

import "unicode"

// Tokenize splits text into edit units for token-mode alignment: maximal
// runs of letters, digits, and word connectors (apostrophe, hyphen), with
// every other rune emitted as its own single-rune unit. Spaces and
// punctuation therefore diff independently of the words around them.
// Concatenating the returned units reconstructs text exactly.
func Tokenize(text string) []string {
	units := make([]string, 0, len(text)/4+1)
	token := make([]rune, 0, 16)

	for _, r := range text {
		if isTokenRune(r) {
			token = append(token, r)
			continue
		}
		if len(token) > 0 {
			units = append(units, string(token))
			token = token[:0]
		}
		units = append(units, string(r))
	}
	if len(token) > 0 {
		units = append(units, string(token))
	}
	return units
}

// isTokenRune reports whether r extends a word-like token. Apostrophes and
// hyphens stay attached so contractions and compounds diff as one unit.
func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

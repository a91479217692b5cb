package assistant

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quillworks/redline/core/errors"
)

// Response is the parsed form of an editor reply.
type Response struct {
	Corrected string
	Mistakes  []string
}

var (
	jsonBlockRE     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectRE    = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
	bulletRE        = regexp.MustCompile(`^(?:\d+[.)]\s*|[-•*]\s*)`)
)

// correctedMarkers are the section labels editors use when they answer in
// prose instead of JSON, in the order they should be tried.
var correctedMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)corrected text:`),
	regexp.MustCompile(`修正後：`),
	regexp.MustCompile(`修正版本：`),
	regexp.MustCompile(`(?i)final text:`),
	regexp.MustCompile(`(?i)corrected version:`),
	regexp.MustCompile(`(?i)revised text:`),
}

// breakPatterns terminate the corrected-text section of a prose reply.
var breakPatterns = []string{"\n\n", "\n---", "\nMistakes:", "\n錯誤", "\n\n#"}

// headingRE matches bare section headings that should not be collected as
// mistakes themselves.
var headingRE = regexp.MustCompile(`(?i)^(?:mistakes|errors|corrections|錯誤|修正)[:：]?$`)

// mistakeKeywords mark lines that describe an individual correction.
var mistakeKeywords = []string{"錯誤", "修正", "改為", "changed", "corrected", "mistake"}

// ParseResponse recovers the corrected text and mistake list from a raw
// editor reply. It tries strict JSON first, then JSON embedded in fences
// or surrounding prose (with light repair), and finally the labeled-text
// layout some models fall back to.
func ParseResponse(raw string) (Response, error) {
	clean := cleanResponse(raw)
	if clean == "" {
		return Response{}, errors.NewParse("response", "", "empty editor response")
	}

	if r, ok := decodePayload(clean); ok {
		return r, nil
	}
	if m := jsonBlockRE.FindStringSubmatch(clean); m != nil {
		if r, ok := decodePayload(m[1]); ok {
			return r, nil
		}
		if r, ok := decodePayload(repairJSON(m[1])); ok {
			return r, nil
		}
	}
	if m := jsonObjectRE.FindString(clean); m != "" {
		if r, ok := decodePayload(m); ok {
			return r, nil
		}
		if r, ok := decodePayload(repairJSON(m)); ok {
			return r, nil
		}
	}
	if r, ok := parseLabeledText(clean); ok {
		return r, nil
	}
	return Response{}, errors.NewParse("response", "", "no corrected text found in editor response")
}

// cleanResponse strips the byte order mark, surrounding whitespace, and a
// code fence wrapping the whole reply.
func cleanResponse(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = strings.TrimSpace(strings.TrimSuffix(s[idx+1:], "```"))
		}
	}
	return s
}

func decodePayload(s string) (Response, bool) {
	var p struct {
		CorrectedText string   `json:"corrected_text"`
		Mistakes      []string `json:"mistakes"`
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Response{}, false
	}
	if p.CorrectedText == "" {
		return Response{}, false
	}
	return Response{Corrected: p.CorrectedText, Mistakes: p.Mistakes}, true
}

// repairJSON fixes the two malformations models actually produce: line
// comments and trailing commas.
func repairJSON(s string) string {
	s = stripLineComments(s)
	return trailingCommaRE.ReplaceAllString(s, "$1")
}

// stripLineComments removes // comments outside of string literals.
func stripLineComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			b.WriteRune(r)
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == '"' {
				inString = false
			}
			continue
		}
		if r == '"' {
			inString = true
			b.WriteRune(r)
			continue
		}
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				b.WriteRune('\n')
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseLabeledText handles replies that spell out sections in prose:
// a corrected-text label, the text, then an optional mistake list.
func parseLabeledText(text string) (Response, bool) {
	var remainder string
	found := false
	for _, re := range correctedMarkers {
		if loc := re.FindStringIndex(text); loc != nil {
			remainder = text[loc[1]:]
			found = true
			break
		}
	}
	if !found {
		return Response{}, false
	}

	cut := len(remainder)
	for _, bp := range breakPatterns {
		if i := strings.Index(remainder, bp); i >= 0 && i < cut {
			cut = i
		}
	}
	corrected := strings.TrimSpace(remainder[:cut])
	if corrected == "" {
		return Response{}, false
	}

	var mistakes []string
	for _, line := range strings.Split(remainder[cut:], "\n") {
		line = strings.TrimSpace(line)
		if headingRE.MatchString(line) || !looksLikeMistake(line) {
			continue
		}
		if cleaned := strings.TrimSpace(bulletRE.ReplaceAllString(line, "")); cleaned != "" {
			mistakes = append(mistakes, cleaned)
		}
	}
	return Response{Corrected: corrected, Mistakes: mistakes}, true
}

func looksLikeMistake(line string) bool {
	if line == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	if unicode.IsDigit(r) {
		return true
	}
	lower := strings.ToLower(line)
	for _, kw := range mistakeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

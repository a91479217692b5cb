// Package protect keeps numeral and date spans stable across assistant
// passes. Assistants rewriting Chinese prose tend to convert Arabic
// numerals to Chinese characters (140 becomes 一百四十), which the style
// rules forbid. Protect swaps qualifying spans for opaque markers before
// the text reaches the assistant; Restore maps them back afterwards.
//
// A Protector carries the marker table for one request and is not safe
// for concurrent use.
package protect

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const markerPrefix = "CHINESE_NUM_"

// markerRE matches the tokens Protect substitutes into the text.
var markerRE = regexp.MustCompile(markerPrefix + "[0-9A-F]{6}")

// The protected span patterns. More specific patterns run first so
// compound spans (full dates, measurements) stay whole instead of being
// carved up by the general standalone-number rule.
var patterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"date", regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`)},
	{"measurement", regexp.MustCompile(`\d+(?:\.\d+)?(?:米|公尺|厘米|公分|毫米|公釐|公斤|千克|克|噸|升|毫升|度|攝氏度|華氏度)`)},
	{"money", regexp.MustCompile(`\d+(?:\.\d+)?(?:元|港元|美元|英鎊|歐元|日圓|人民幣|新台幣)`)},
	{"ordinal", regexp.MustCompile(`第\d+(?:個|位|名|次|項|件|份|張|頁|章|節|條|款|段|行|屆|期|年|月|日|號|樓|層)`)},
	{"unit", regexp.MustCompile(`\d+(?:個|位|名|人|次|項|件|份|張|頁|章|節|條|款|段|行|字|億|萬|千|百|十)`)},
	{"percentage", regexp.MustCompile(`\d+(?:\.\d+)?%`)},
	{"time", regexp.MustCompile(`\d{1,2}(?:時|點|分|秒)`)},
	{"page", regexp.MustCompile(`(?:第|頁)\s*\d+(?:-\d+)?(?:\s*(?:頁|頁面))?`)},
	{"footnote", regexp.MustCompile(`[¹²³⁴⁵⁶⁷⁸⁹⁰]+`)},
	{"year", regexp.MustCompile(`\d{4}年`)},
	{"monthday", regexp.MustCompile(`\d{1,2}月\d{1,2}日`)},
	{"number", regexp.MustCompile(`\b\d{2,}\b`)},
}

type span struct {
	token    string
	original string
}

// Protector replaces protected spans with markers and restores them.
type Protector struct {
	spans []span
	seen  map[string]bool
}

// New creates an empty Protector.
func New() *Protector {
	return &Protector{seen: make(map[string]bool)}
}

// Protect replaces every protected span in text with a unique marker and
// records the mapping. Calling it again extends the table, so one
// Protector should serve one request.
func (p *Protector) Protect(text string) string {
	for _, pat := range patterns {
		text = pat.re.ReplaceAllStringFunc(text, func(match string) string {
			if strings.Contains(match, markerPrefix) {
				return match
			}
			token := p.newToken()
			p.spans = append(p.spans, span{token: token, original: match})
			return token
		})
	}
	return text
}

// Restore maps markers back to their original spans. Markers the
// assistant dropped are simply absent; markers it invented are left in
// place for the caller to report.
func (p *Protector) Restore(text string) string {
	for _, s := range p.spans {
		text = strings.ReplaceAll(text, s.token, s.original)
	}
	return text
}

// Count returns the number of spans protected so far.
func (p *Protector) Count() int {
	return len(p.spans)
}

// Instructions returns the prompt addendum telling the assistant to leave
// markers untouched, or "" when nothing was protected.
func (p *Protector) Instructions() string {
	if len(p.spans) == 0 {
		return ""
	}
	return fmt.Sprintf(`

***NUMBER PROTECTION:
This text contains %d numeral or date spans replaced with %s* markers.
DO NOT modify, translate, or convert these markers. Each one stands for a number that must remain in Arabic numerals (e.g. 140個, 2024年3月15日, 第5章).
NEVER convert Arabic numerals to Chinese characters (e.g. do NOT change 140 to 一百四十).
Keep every %s* marker exactly as it appears in the input text.
`, len(p.spans), markerPrefix, markerPrefix)
}

// CleanNotes rewrites correction notes that leaked marker tokens so users
// see the original spans instead of internal markers.
func (p *Protector) CleanNotes(notes []string) []string {
	if len(p.spans) == 0 || len(notes) == 0 {
		return notes
	}
	cleaned := make([]string, len(notes))
	for i, note := range notes {
		for _, s := range p.spans {
			if !strings.Contains(note, s.token) {
				continue
			}
			note = strings.ReplaceAll(note, "標記 "+s.token, "原文中的數字 '"+s.original+"'")
			note = strings.ReplaceAll(note, "Marker "+s.token, "Original number '"+s.original+"'")
			note = strings.ReplaceAll(note, s.token, s.original)
		}
		cleaned[i] = note
	}
	return cleaned
}

func (p *Protector) newToken() string {
	for {
		id := uuid.New()
		token := markerPrefix + strings.ToUpper(hex.EncodeToString(id[:3]))
		if !p.seen[token] {
			p.seen[token] = true
			return token
		}
	}
}

// Remaining lists marker tokens still present in text. A non-empty result
// after Restore means the assistant altered a marker; callers log it and
// deliver the text best-effort.
func Remaining(text string) []string {
	return markerRE.FindAllString(text, -1)
}

package assistant

import (
	"fmt"
	"regexp"
)

// reportingVerbRE matches a reporting verb followed by a comma and an
// opening quotation mark, the one mechanical style rule editors miss
// often enough to enforce after the fact.
var reportingVerbRE = regexp.MustCompile(
	`(?i)\b(said|stated|announced|added|noted|remarked|commented|explained|mentioned),\s*(["'“‘])`)

// applyColonRule rewrites comma-before-quotation after reporting verbs to
// a colon and returns one note per fix.
func applyColonRule(text string) (string, []string) {
	var fixes []string
	fixed := reportingVerbRE.ReplaceAllStringFunc(text, func(m string) string {
		sub := reportingVerbRE.FindStringSubmatch(m)
		fixes = append(fixes, fmt.Sprintf("Use colon after reporting verb (%q) before quotation.", sub[1]))
		return sub[1] + ": " + sub[2]
	})
	return fixed, fixes
}

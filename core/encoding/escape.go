// Package encoding provides shared text escaping utilities for generated markup.
package encoding

import "strings"

// xmlReplacer escapes the five reserved XML characters. A single-pass
// replacer never re-escapes the ampersands it introduces.
var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes all five reserved XML characters (& < > " ').
// Safe for both element content and attribute values.
func EscapeXML(s string) string {
	return xmlReplacer.Replace(s)
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Equivalent to EscapeXML; kept as a separate name so call sites read clearly.
func EscapeXMLAttr(s string) string {
	return xmlReplacer.Replace(s)
}

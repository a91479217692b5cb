package encoding

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestEscapeXML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"less than", "a < b", "a &lt; b"},
		{"greater than", "a > b", "a &gt; b"},
		{"quotes", `He said "hello"`, "He said &quot;hello&quot;"},
		{"apostrophe", "it's", "it&apos;s"},
		{"multiple", `<tag attr="value">content & more</tag>`, "&lt;tag attr=&quot;value&quot;&gt;content &amp; more&lt;/tag&gt;"},
		{"no double escaping", "&amp;", "&amp;amp;"},
		{"unicode", "日本語 & émoji 🎉", "日本語 &amp; émoji 🎉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXML(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Escaped output must decode back to the original character data.
func TestEscapeXMLRoundTrip(t *testing.T) {
	inputs := []string{
		`all five: & < > " '`,
		"it's a <b>\"test\"</b> & more",
		"中文 & 'quotes'",
	}

	for _, input := range inputs {
		escaped := EscapeXML(input)
		var decoded string
		doc := "<r>" + escaped + "</r>"
		if err := xml.Unmarshal([]byte(doc), &decoded); err != nil {
			t.Fatalf("Unmarshal(%q) error: %v", doc, err)
		}
		if decoded != input {
			t.Errorf("round trip = %q, want %q", decoded, input)
		}
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"ampersand", "Tom & Jerry", "Tom &amp; Jerry"},
		{"double quotes", `He said "hello"`, "He said &quot;hello&quot;"},
		{"single quotes", "it's", "it&apos;s"},
		{"all chars", `<tag attr="val&ue">`, "&lt;tag attr=&quot;val&amp;ue&quot;&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeXMLAttr(tt.input)
			if got != tt.want {
				t.Errorf("EscapeXMLAttr(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	// Attribute values embedded in either quote style must stay well formed.
	t.Run("attribute stays well formed", func(t *testing.T) {
		val := EscapeXMLAttr(`a "b" 'c' & d`)
		if strings.ContainsAny(val, `"'<>`) {
			t.Errorf("EscapeXMLAttr left reserved characters in %q", val)
		}
	})
}

// Package docx provides pure Go creation and text extraction for the
// minimal WordprocessingML container used to deliver proofread documents.
// It implements just enough of the format to carry plain runs, tracked
// insertion/deletion runs, and a corrections summary.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/quillworks/redline/core/encoding"
	"github.com/quillworks/redline/core/errors"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// Format holds direct run formatting.
type Format struct {
	Bold   bool
	Italic bool
	Strike bool
	Color  string // RRGGBB hex, empty for the default color
}

type runKind int

const (
	runPlain runKind = iota
	runInsert
	runDelete
)

type run struct {
	kind   runKind
	text   string
	format Format
	id     int // revision id for insert/delete runs
}

// Paragraph is one body paragraph under construction.
type Paragraph struct {
	doc   *Document
	style string
	runs  []run
}

// Document is a Word document under construction. Revision ids are
// allocated sequentially from 1 for the lifetime of one document.
type Document struct {
	Author  string    // revision author recorded on tracked runs
	Created time.Time // revision timestamp; zero means build time

	paragraphs   []*Paragraph
	trackChanges bool
	nextID       int
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// EnableTrackChanges turns on the native track-changes setting. Calling it
// repeatedly has no further effect; the settings part carries the flag
// exactly once.
func (d *Document) EnableTrackChanges() {
	d.trackChanges = true
}

// TrackChangesEnabled reports whether the track-changes setting is on.
func (d *Document) TrackChangesEnabled() bool {
	return d.trackChanges
}

// RevisionCount returns the number of revision ids allocated so far.
func (d *Document) RevisionCount() int {
	return d.nextID
}

// AddHeading appends a heading paragraph. Levels 1 and 2 map to the
// built-in heading styles; any other level falls back to level 1.
func (d *Document) AddHeading(text string, level int) *Paragraph {
	style := "Heading1"
	if level == 2 {
		style = "Heading2"
	}
	p := &Paragraph{doc: d, style: style}
	p.AddText(text)
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// AddParagraph appends an empty body paragraph.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{doc: d}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// AddText appends a plain run.
func (p *Paragraph) AddText(text string) *Paragraph {
	return p.AddStyledText(text, Format{})
}

// AddStyledText appends a plain run with direct formatting.
func (p *Paragraph) AddStyledText(text string, f Format) *Paragraph {
	p.runs = append(p.runs, run{kind: runPlain, text: text, format: f})
	return p
}

// AddInsertion appends a tracked insertion run. Inserted text renders in
// green with the next sequential revision id.
func (p *Paragraph) AddInsertion(text string) *Paragraph {
	p.doc.nextID++
	p.runs = append(p.runs, run{
		kind:   runInsert,
		text:   text,
		format: Format{Color: "008000"},
		id:     p.doc.nextID,
	})
	return p
}

// AddDeletion appends a tracked deletion run. Deleted text renders in red
// with strikethrough and the next sequential revision id.
func (p *Paragraph) AddDeletion(text string) *Paragraph {
	p.doc.nextID++
	p.runs = append(p.runs, run{
		kind:   runDelete,
		text:   text,
		format: Format{Strike: true, Color: "FF0000"},
		id:     p.doc.nextID,
	})
	return p
}

// Build serializes the document to docx bytes. It either returns a valid
// archive or a typed error, never a truncated stream.
func (d *Document) Build() ([]byte, error) {
	if len(d.paragraphs) == 0 {
		return nil, errors.NewValidation("document", "must have at least one paragraph")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", d.documentXML()},
		{"word/styles.xml", stylesXML},
		{"word/settings.xml", d.settingsXML()},
	}

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.NewSerialization(part.name, "cannot create archive entry", err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, errors.NewSerialization(part.name, "cannot write archive entry", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.NewSerialization("zip", "cannot finalize archive", err)
	}
	return buf.Bytes(), nil
}

func (d *Document) documentXML() string {
	author := encoding.EscapeXML(d.Author)
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}
	date := created.UTC().Format("2006-01-02T15:04:05Z")

	var body strings.Builder
	for _, p := range d.paragraphs {
		writeParagraph(&body, p, author, date)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="%s">
  <w:body>
%s  </w:body>
</w:document>`, wordNamespace, body.String())
}

func writeParagraph(sb *strings.Builder, p *Paragraph, author, date string) {
	if len(p.runs) == 0 && p.style == "" {
		sb.WriteString("    <w:p/>\n")
		return
	}

	sb.WriteString("    <w:p>")
	if p.style != "" {
		fmt.Fprintf(sb, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, p.style)
	}
	for _, r := range p.runs {
		switch r.kind {
		case runDelete:
			fmt.Fprintf(sb, `<w:del w:id="%d" w:author="%s" w:date="%s">`, r.id, author, date)
			writeRun(sb, r, true)
			sb.WriteString(`</w:del>`)
		case runInsert:
			fmt.Fprintf(sb, `<w:ins w:id="%d" w:author="%s" w:date="%s">`, r.id, author, date)
			writeRun(sb, r, false)
			sb.WriteString(`</w:ins>`)
		default:
			writeRun(sb, r, false)
		}
	}
	sb.WriteString("</w:p>\n")
}

func writeRun(sb *strings.Builder, r run, deleted bool) {
	sb.WriteString("<w:r>")
	writeRunProperties(sb, r.format)
	writeRunText(sb, r.text, deleted)
	sb.WriteString("</w:r>")
}

func writeRunProperties(sb *strings.Builder, f Format) {
	if f == (Format{}) {
		return
	}
	sb.WriteString("<w:rPr>")
	if f.Bold {
		sb.WriteString("<w:b/>")
	}
	if f.Italic {
		sb.WriteString("<w:i/>")
	}
	if f.Strike {
		sb.WriteString("<w:strike/>")
	}
	if f.Color != "" {
		fmt.Fprintf(sb, `<w:color w:val="%s"/>`, encoding.EscapeXMLAttr(f.Color))
	}
	sb.WriteString("</w:rPr>")
}

// writeRunText emits the text of one run, mapping newlines to <w:br/> and
// tabs to <w:tab/>. Deleted runs use <w:delText>; everything else <w:t>.
func writeRunText(sb *strings.Builder, text string, deleted bool) {
	tag := "w:t"
	if deleted {
		tag = "w:delText"
	}

	flush := func(segment string) {
		if segment == "" {
			return
		}
		fmt.Fprintf(sb, `<%s xml:space="preserve">%s</%s>`, tag, encoding.EscapeXML(segment), tag)
	}

	start := 0
	for i, r := range text {
		switch r {
		case '\n':
			flush(text[start:i])
			sb.WriteString("<w:br/>")
			start = i + 1
		case '\t':
			flush(text[start:i])
			sb.WriteString("<w:tab/>")
			start = i + 1
		}
	}
	flush(text[start:])
}

func (d *Document) settingsXML() string {
	track := ""
	if d.trackChanges {
		track = "\n  <w:trackRevisions/>"
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="%s">%s
</w:settings>`, wordNamespace, track)
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
  <Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>
</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings" Target="settings.xml"/>
</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="` + wordNamespace + `">
  <w:style w:type="paragraph" w:default="1" w:styleId="Normal">
    <w:name w:val="Normal"/>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading1">
    <w:name w:val="heading 1"/>
    <w:basedOn w:val="Normal"/>
    <w:rPr><w:b/><w:sz w:val="32"/><w:szCs w:val="32"/></w:rPr>
  </w:style>
  <w:style w:type="paragraph" w:styleId="Heading2">
    <w:name w:val="heading 2"/>
    <w:basedOn w:val="Normal"/>
    <w:rPr><w:b/><w:sz w:val="26"/><w:szCs w:val="26"/></w:rPr>
  </w:style>
</w:styles>`

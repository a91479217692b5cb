package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/quillworks/redline/core/errors"
)

// maxDocumentPart bounds the inflated size of word/document.xml so a
// crafted archive cannot exhaust memory.
const maxDocumentPart = 64 << 20

// Element names are matched by local name; producers disagree on the
// namespace prefix they bind.
var bodyQuery = xpath.MustCompile("//*[local-name()='body']")

// ExtractText pulls the visible plain text out of a docx archive. Paragraph
// breaks become newlines, explicit tabs and line breaks are preserved, and
// table rows are emitted as tab-separated lines. Text marked as deleted by
// a pending tracked change is not part of the visible document and is
// skipped.
func ExtractText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtraction("", "not a valid docx archive", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.NewExtraction("word/document.xml", "part missing", nil)
	}
	if part.UncompressedSize64 > maxDocumentPart {
		return "", errors.NewExtraction("word/document.xml", "part exceeds size limit", errors.ErrTooLarge)
	}

	rc, err := part.Open()
	if err != nil {
		return "", errors.NewExtraction("word/document.xml", "cannot open part", err)
	}
	defer rc.Close()

	root, err := xmlquery.Parse(io.LimitReader(rc, maxDocumentPart))
	if err != nil {
		return "", errors.NewExtraction("word/document.xml", "malformed XML", err)
	}

	body := xmlquery.QuerySelector(root, bodyQuery)
	if body == nil {
		return "", errors.NewExtraction("word/document.xml", "document body missing", nil)
	}

	var blocks []string
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch child.Data {
		case "p":
			blocks = append(blocks, paragraphText(child))
		case "tbl":
			if text := tableText(child); text != "" {
				blocks = append(blocks, text)
			}
		}
	}

	return strings.Join(blocks, "\n"), nil
}

// paragraphText concatenates the visible text of one paragraph.
func paragraphText(p *xmlquery.Node) string {
	var sb strings.Builder
	appendRunText(&sb, p)
	return sb.String()
}

func appendRunText(sb *strings.Builder, n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		switch c.Data {
		case "t":
			sb.WriteString(c.InnerText())
		case "tab":
			sb.WriteString("\t")
		case "br", "cr":
			sb.WriteString("\n")
		case "delText":
			// deleted by a pending revision, not visible text
		default:
			appendRunText(sb, c)
		}
	}
}

// tableText renders a table as one line per row with tab-separated cells.
func tableText(tbl *xmlquery.Node) string {
	var rows []string
	for tr := tbl.FirstChild; tr != nil; tr = tr.NextSibling {
		if tr.Type != xmlquery.ElementNode || tr.Data != "tr" {
			continue
		}
		var cells []string
		for tc := tr.FirstChild; tc != nil; tc = tc.NextSibling {
			if tc.Type != xmlquery.ElementNode || tc.Data != "tc" {
				continue
			}
			cells = append(cells, strings.TrimSpace(cellText(tc)))
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, "\t"))
		}
	}
	return strings.Join(rows, "\n")
}

// cellText joins the paragraphs of one table cell with newlines.
func cellText(tc *xmlquery.Node) string {
	var paragraphs []string
	for c := tc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == "p" {
			paragraphs = append(paragraphs, paragraphText(c))
		}
	}
	return strings.Join(paragraphs, "\n")
}

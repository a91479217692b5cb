package revision

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quillworks/redline/core/docx"
	"github.com/quillworks/redline/core/errors"
)

// Fixed document strings. The separator visually divides the revision
// paragraph from the corrections summary.
const (
	trackedTitle       = "Document with Track Changes"
	correctionsHeading = "Corrections Made:"
	citationsHeading   = "Citations:"
)

// NoChangesNote is the single correction note callers attach when a
// document needs no edits.
const NoChangesNote = "No corrections needed - text already follows the style guidelines."

var separatorLine = strings.Repeat("─", 50)

// RenderTrackedChanges renders the tracked-changes document for an
// (original, corrected) pair with the default author, timestamp, and
// suppression policy. Notes become the bulleted corrections summary;
// citations, when present, a numbered references block.
func RenderTrackedChanges(original, corrected string, notes []string, citations []Citation) ([]byte, error) {
	return RenderWithOptions(original, corrected, notes, citations, Options{})
}

// RenderWithOptions is RenderTrackedChanges with explicit options.
func RenderWithOptions(original, corrected string, notes []string, citations []Citation, opts Options) ([]byte, error) {
	if err := validateInputs(original, corrected, notes, citations); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	script := Normalize(Align(original, corrected), opts.Policy)

	doc := docx.New()
	doc.Author = opts.Author
	doc.Created = opts.Timestamp
	doc.EnableTrackChanges()

	doc.AddHeading(trackedTitle, 1)

	para := doc.AddParagraph()
	for _, op := range script {
		switch op.Kind {
		case OpDelete:
			para.AddDeletion(op.Text)
		case OpInsert:
			para.AddInsertion(op.Text)
		default:
			para.AddText(op.Text)
		}
	}

	appendSummary(doc, notes, citations)
	return doc.Build()
}

// appendSummary writes the separator, the bulleted corrections list, and
// the numbered citations block.
func appendSummary(doc *docx.Document, notes []string, citations []Citation) {
	if len(notes) == 0 && len(citations) == 0 {
		return
	}
	doc.AddParagraph().AddText(separatorLine)

	if len(notes) > 0 {
		doc.AddParagraph().AddStyledText(correctionsHeading, docx.Format{Bold: true})
		for _, note := range notes {
			doc.AddParagraph().AddText("• " + note)
		}
	}

	if len(citations) > 0 {
		doc.AddParagraph().AddStyledText(citationsHeading, docx.Format{Bold: true})
		for i, c := range citations {
			doc.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, c.Text))
			if c.Quote != "" {
				doc.AddParagraph().AddStyledText(fmt.Sprintf("    %q", c.Quote), docx.Format{Italic: true})
			}
			if c.Source != "" {
				doc.AddParagraph().AddText("    Source: " + c.Source)
			}
		}
	}
}

func validateInputs(original, corrected string, notes []string, citations []Citation) error {
	if !utf8.ValidString(original) {
		return errors.NewValidation("original", "text is not valid UTF-8")
	}
	if !utf8.ValidString(corrected) {
		return errors.NewValidation("corrected", "text is not valid UTF-8")
	}
	for i, n := range notes {
		if !utf8.ValidString(n) {
			return errors.NewValidation(fmt.Sprintf("notes[%d]", i), "text is not valid UTF-8")
		}
	}
	for i, c := range citations {
		if !utf8.ValidString(c.Text) || !utf8.ValidString(c.Quote) || !utf8.ValidString(c.Source) {
			return errors.NewValidation(fmt.Sprintf("citations[%d]", i), "text is not valid UTF-8")
		}
	}
	return nil
}

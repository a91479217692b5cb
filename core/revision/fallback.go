package revision

import (
	"fmt"

	"github.com/quillworks/redline/core/docx"
)

// The fallback builders are the simpler rendering stages callers compose
// when a tracked-changes render fails or is not wanted. Each is a pure
// function from input to bytes; none of them enables track changes.

// BuildSummaryDocument renders the plain corrections document: original and
// corrected text in labeled sections (corrected in green) plus a numbered
// corrections list.
func BuildSummaryDocument(original, corrected string, notes []string) ([]byte, error) {
	if err := validateInputs(original, corrected, notes, nil); err != nil {
		return nil, err
	}

	doc := docx.New()
	doc.AddHeading("Document Corrections", 1)
	doc.AddHeading("Original Text:", 2)
	doc.AddParagraph().AddText(original)
	doc.AddHeading("Corrected Text:", 2)
	doc.AddParagraph().AddStyledText(corrected, docx.Format{Color: "008000"})

	if len(notes) > 0 {
		doc.AddHeading(correctionsHeading, 2)
		for i, note := range notes {
			doc.AddParagraph().AddText(fmt.Sprintf("%d. %s", i+1, note))
		}
	}
	return doc.Build()
}

// BuildMinimalDocument is the last-resort rendering: unstyled paragraphs
// only, nothing that can fail beyond serialization itself.
func BuildMinimalDocument(original, corrected string, notes []string) ([]byte, error) {
	if err := validateInputs(original, corrected, notes, nil); err != nil {
		return nil, err
	}

	doc := docx.New()
	doc.AddParagraph().AddText("Document Corrections")
	doc.AddParagraph().AddText("Original Text:")
	doc.AddParagraph().AddText(original)
	doc.AddParagraph().AddText("Corrected Text:")
	doc.AddParagraph().AddText(corrected)

	if len(notes) > 0 {
		doc.AddParagraph().AddText("Corrections:")
		for _, note := range notes {
			doc.AddParagraph().AddText("• " + note)
		}
	}
	return doc.Build()
}

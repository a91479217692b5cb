package api

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillworks/redline/internal/validation"
)

// fallbackDownloadName is used when a stored filename cannot be turned
// into a safe attachment name.
const fallbackDownloadName = "corrected_document.docx"

// downloadFilename derives the attachment name for a corrected document
// from the originally uploaded filename: report.docx becomes
// report_corrected.docx.
func downloadFilename(uploadName string) string {
	name, err := validation.SanitizeFilename(uploadName)
	if err != nil {
		return fallbackDownloadName
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		return fallbackDownloadName
	}
	return stem + "_corrected.docx"
}

// exportFilename resolves the attachment name for an ad-hoc export. The
// requested name is sanitized and forced to a .docx extension; an empty
// or unusable request yields a timestamped default.
func exportFilename(requested string) string {
	name, err := validation.SanitizeFilename(requested)
	if err != nil {
		return timestampedName()
	}
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		name += ".docx"
	}
	if strings.TrimSuffix(name, filepath.Ext(name)) == "" {
		return timestampedName()
	}
	return name
}

func timestampedName() string {
	return "corrected_document_" + time.Now().UTC().Format("20060102_150405") + ".docx"
}

// contentDisposition builds an attachment header value with the filename
// quoted so embedded quotes cannot break out of the header.
func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

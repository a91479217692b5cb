package assistant

import (
	"fmt"
	"testing"

	"github.com/quillworks/redline/core/errors"
)

func TestTransientAndFatalPredicates(t *testing.T) {
	base := fmt.Errorf("upstream unavailable")

	transient := NewTransient(base)
	if !IsTransient(transient) {
		t.Error("IsTransient(NewTransient(err)) = false, want true")
	}
	if IsFatal(transient) {
		t.Error("IsFatal(NewTransient(err)) = true, want false")
	}
	if !errors.Is(transient, base) {
		t.Error("transient error does not unwrap to its cause")
	}

	fatal := NewFatal(base)
	if !IsFatal(fatal) {
		t.Error("IsFatal(NewFatal(err)) = false, want true")
	}
	if IsTransient(fatal) {
		t.Error("IsTransient(NewFatal(err)) = true, want false")
	}
}

func TestPredicatesTraverseWrapping(t *testing.T) {
	wrapped := fmt.Errorf("first pass: %w", NewFatal(fmt.Errorf("bad request")))
	if !IsFatal(wrapped) {
		t.Error("IsFatal() = false for a wrapped fatal error, want true")
	}
	if IsTransient(wrapped) {
		t.Error("IsTransient() = true for a wrapped fatal error, want false")
	}
}

func TestPredicatesOnPlainErrors(t *testing.T) {
	err := fmt.Errorf("unclassified")
	if IsTransient(err) || IsFatal(err) {
		t.Error("plain errors must classify as neither transient nor fatal")
	}
}

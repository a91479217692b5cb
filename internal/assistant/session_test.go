package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/core/lang"
)

func newTestProvider(t *testing.T) (*FileSessionProvider, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	p, err := NewFileSessionProvider(path, "gpt-4o")
	if err != nil {
		t.Fatalf("NewFileSessionProvider() error = %v", err)
	}
	return p, path
}

func TestSessionCreatedLazily(t *testing.T) {
	p, path := newTestProvider(t)

	sess, err := p.Session(context.Background(), lang.English)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("Session().ID is empty")
	}
	if sess.Language != lang.English {
		t.Errorf("Session().Language = %q, want %q", sess.Language, lang.English)
	}
	if sess.Model != "gpt-4o" {
		t.Errorf("Session().Model = %q, want %q", sess.Model, "gpt-4o")
	}
	if sess.Instructions != InstructionsFor(lang.English) {
		t.Error("Session().Instructions does not match the english instruction set")
	}
	if sess.CreatedAt.IsZero() {
		t.Error("Session().CreatedAt is zero")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestSessionStableAcrossCalls(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	first, err := p.Session(ctx, lang.Chinese)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	second, err := p.Session(ctx, lang.Chinese)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("session ID changed between calls: %q then %q", first.ID, second.ID)
	}
}

func TestSessionPersistsAcrossReload(t *testing.T) {
	p, path := newTestProvider(t)
	ctx := context.Background()

	created, err := p.Session(ctx, lang.Mixed)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}

	reloaded, err := NewFileSessionProvider(path, "gpt-4o")
	if err != nil {
		t.Fatalf("NewFileSessionProvider() reload error = %v", err)
	}
	sess, err := reloaded.Session(ctx, lang.Mixed)
	if err != nil {
		t.Fatalf("Session() after reload error = %v", err)
	}
	if sess.ID != created.ID {
		t.Errorf("session ID after reload = %q, want %q", sess.ID, created.ID)
	}
}

func TestSessionReturnsCopy(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	sess, err := p.Session(ctx, lang.English)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	sess.Instructions = "tampered"

	again, err := p.Session(ctx, lang.English)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if again.Instructions == "tampered" {
		t.Error("mutating a returned session leaked into provider state")
	}
}

func TestReset(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	en, err := p.Session(ctx, lang.English)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	zh, err := p.Session(ctx, lang.Chinese)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}

	if err := p.Reset(lang.English); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	enAfter, err := p.Session(ctx, lang.English)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if enAfter.ID == en.ID {
		t.Error("Reset() did not recreate the english session")
	}
	zhAfter, err := p.Session(ctx, lang.Chinese)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if zhAfter.ID != zh.ID {
		t.Error("Reset(english) disturbed the chinese session")
	}
}

func TestResetMissingSessionIsNoop(t *testing.T) {
	p, _ := newTestProvider(t)
	if err := p.Reset(lang.English); err != nil {
		t.Errorf("Reset() on missing session error = %v, want nil", err)
	}
}

func TestResetAll(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	for _, l := range []lang.Language{lang.English, lang.Chinese, lang.Mixed} {
		if _, err := p.Session(ctx, l); err != nil {
			t.Fatalf("Session(%s) error = %v", l, err)
		}
	}
	if err := p.ResetAll(); err != nil {
		t.Fatalf("ResetAll() error = %v", err)
	}
	if got := p.Info(); len(got) != 0 {
		t.Errorf("Info() after ResetAll = %d sessions, want 0", len(got))
	}
}

func TestInfoOrderedByLanguage(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	for _, l := range []lang.Language{lang.Mixed, lang.English, lang.Chinese} {
		if _, err := p.Session(ctx, l); err != nil {
			t.Fatalf("Session(%s) error = %v", l, err)
		}
	}

	info := p.Info()
	if len(info) != 3 {
		t.Fatalf("Info() = %d sessions, want 3", len(info))
	}
	want := []lang.Language{lang.Chinese, lang.English, lang.Mixed}
	for i, l := range want {
		if info[i].Language != l {
			t.Errorf("Info()[%d].Language = %q, want %q", i, info[i].Language, l)
		}
	}
}

func TestNewFileSessionProviderValidation(t *testing.T) {
	if _, err := NewFileSessionProvider("", "gpt-4o"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewFileSessionProvider(no path) error = %v, want validation error", err)
	}
	if _, err := NewFileSessionProvider("state.json", ""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewFileSessionProvider(no model) error = %v, want validation error", err)
	}
}

func TestNewFileSessionProviderCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt state: %v", err)
	}

	_, err := NewFileSessionProvider(path, "gpt-4o")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("NewFileSessionProvider() error = %v, want parse error", err)
	}
}

package assistant

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/core/lang"
	"github.com/quillworks/redline/internal/logging"
)

// Session is one per-language editor configuration. Sessions are created
// lazily on first use and keep their identity across restarts via the
// provider's state file, so the instructions a text was proofread under
// stay traceable.
type Session struct {
	ID           string        `json:"id"`
	Language     lang.Language `json:"language"`
	Model        string        `json:"model"`
	Instructions string        `json:"instructions"`
	CreatedAt    time.Time     `json:"created_at"`
}

// SessionProvider hands out editor sessions keyed by language.
type SessionProvider interface {
	Session(ctx context.Context, language lang.Language) (*Session, error)
	Reset(language lang.Language) error
	ResetAll() error
	Info() []Session
}

// FileSessionProvider persists sessions to a JSON state file. Resetting a
// session forces the next request to pick up fresh instructions.
type FileSessionProvider struct {
	mu       sync.Mutex
	path     string
	model    string
	sessions map[lang.Language]*Session
}

// NewFileSessionProvider loads existing sessions from path, creating the
// state lazily if the file does not exist yet.
func NewFileSessionProvider(path, model string) (*FileSessionProvider, error) {
	if path == "" {
		return nil, errors.NewValidation("path", "session state path is required")
	}
	if model == "" {
		return nil, errors.NewValidation("model", "editor model is required")
	}

	p := &FileSessionProvider{
		path:     path,
		model:    model,
		sessions: make(map[lang.Language]*Session),
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Session returns the editor session for language, creating and
// persisting one on first use.
func (p *FileSessionProvider) Session(ctx context.Context, language lang.Language) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess, ok := p.sessions[language]; ok {
		out := *sess
		return &out, nil
	}

	sess := &Session{
		ID:           uuid.NewString(),
		Language:     language,
		Model:        p.model,
		Instructions: InstructionsFor(language),
		CreatedAt:    time.Now().UTC(),
	}
	p.sessions[language] = sess
	if err := p.save(); err != nil {
		delete(p.sessions, language)
		return nil, err
	}
	logging.AssistantEvent(ctx, "session_created", p.model,
		"session_id", sess.ID, "language", string(language))

	out := *sess
	return &out, nil
}

// Reset discards the session for language so the next request recreates
// it with current instructions.
func (p *FileSessionProvider) Reset(language lang.Language) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.sessions[language]; !ok {
		return nil
	}
	delete(p.sessions, language)
	return p.save()
}

// ResetAll discards every session.
func (p *FileSessionProvider) ResetAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.sessions) == 0 {
		return nil
	}
	p.sessions = make(map[lang.Language]*Session)
	return p.save()
}

// Info returns a snapshot of all sessions, ordered by language.
func (p *FileSessionProvider) Info() []Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Session, 0, len(p.sessions))
	for _, sess := range p.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

func (p *FileSessionProvider) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.NewIO("read", p.path, err)
	}
	if err := json.Unmarshal(data, &p.sessions); err != nil {
		return errors.NewParse("json", p.path, "session state is corrupt: "+err.Error())
	}
	return nil
}

func (p *FileSessionProvider) save() error {
	data, err := json.MarshalIndent(p.sessions, "", "  ")
	if err != nil {
		return errors.NewSerialization("session state", "encode failed", err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewIO("mkdir", dir, err)
		}
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return errors.NewIO("write", p.path, err)
	}
	return nil
}

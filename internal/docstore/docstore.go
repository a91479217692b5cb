// Package docstore persists proofreading results in SQLite. Documents
// are keyed by the BLAKE3 digest of the uploaded file, so re-uploading
// the same document overwrites its previous result instead of piling up
// duplicates. Text bodies are xz-compressed at rest.
package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"regexp"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/core/lang"
	"github.com/quillworks/redline/core/notes"
	"github.com/quillworks/redline/core/sqlite"
	"github.com/quillworks/redline/internal/logging"
)

// RenderMode records how the stored result was rendered for delivery.
type RenderMode string

const (
	RenderTracked   RenderMode = "tracked"
	RenderSummary   RenderMode = "summary"
	RenderMinimal   RenderMode = "minimal"
	RenderNoChanges RenderMode = "nochanges"
)

// Valid reports whether m is one of the known render modes.
func (m RenderMode) Valid() bool {
	switch m {
	case RenderTracked, RenderSummary, RenderMinimal, RenderNoChanges:
		return true
	}
	return false
}

// maxUploadBytes caps the size of uploads accepted into the store.
const maxUploadBytes = 50 << 20

// idPattern matches a lowercase BLAKE3 hex digest (64 characters).
var idPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Document is one stored proofreading result.
type Document struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Language  lang.Language `json:"language"`
	Mode      RenderMode    `json:"render_mode"`
	Original  string        `json:"original"`
	Corrected string        `json:"corrected"`
	Notes     []notes.Note  `json:"notes"`
	SizeBytes int64         `json:"size_bytes"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary is a listing row without the text bodies.
type Summary struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Language  lang.Language `json:"language"`
	Mode      RenderMode    `json:"render_mode"`
	NoteCount int           `json:"note_count"`
	SizeBytes int64         `json:"size_bytes"`
	CreatedAt time.Time     `json:"created_at"`
}

// Stats summarizes the store contents.
type Stats struct {
	Documents       int64            `json:"documents"`
	UploadBytes     int64            `json:"upload_bytes"`
	CompressedBytes int64            `json:"compressed_bytes"`
	ByLanguage      map[string]int64 `json:"by_language"`
	Driver          string           `json:"driver"`
}

// Store is a SQLite-backed document store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	language     TEXT NOT NULL,
	render_mode  TEXT NOT NULL,
	docx         BLOB NOT NULL,
	original_xz  BLOB NOT NULL,
	corrected_xz BLOB NOT NULL,
	notes_json   TEXT NOT NULL,
	note_count   INTEGER NOT NULL DEFAULT 0,
	size_bytes   INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);
`

// Open opens (creating if necessary) the document store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewValidation("path", "document store path is required")
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DocumentID returns the store key for an uploaded file: the lowercase
// hex BLAKE3 digest of its bytes.
func DocumentID(upload []byte) string {
	h := blake3.Sum256(upload)
	return hex.EncodeToString(h[:])
}

// Put stores a proofreading result keyed by the uploaded file bytes and
// returns the document ID. A result for the same upload is replaced.
// The rendered bytes are the corrected docx served on download; for
// ad-hoc exports without an upload the rendered document is its own key.
func (s *Store) Put(ctx context.Context, upload, rendered []byte, doc Document) (string, error) {
	if len(upload) == 0 {
		return "", errors.NewValidation("upload", "document bytes are required")
	}
	if len(rendered) == 0 {
		return "", errors.NewValidation("rendered", "rendered document bytes are required")
	}
	if int64(len(upload)) > maxUploadBytes {
		return "", errors.NewTooLarge("upload", maxUploadBytes, int64(len(upload)))
	}
	if !doc.Mode.Valid() {
		return "", errors.NewValidation("render_mode", "unknown render mode "+string(doc.Mode))
	}

	id := DocumentID(upload)
	originalXZ, err := compress(doc.Original)
	if err != nil {
		return "", err
	}
	correctedXZ, err := compress(doc.Corrected)
	if err != nil {
		return "", err
	}
	if doc.Notes == nil {
		doc.Notes = []notes.Note{}
	}
	notesJSON, err := json.Marshal(doc.Notes)
	if err != nil {
		return "", errors.NewSerialization("notes", "encode failed", err)
	}
	created := doc.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents
			(id, filename, language, render_mode, docx, original_xz, corrected_xz, notes_json, note_count, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Filename, string(doc.Language), string(doc.Mode),
		rendered, originalXZ, correctedXZ, string(notesJSON), len(doc.Notes),
		int64(len(upload)), created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", errors.NewIO("insert", "documents", err)
	}
	logging.StoreEvent("put", id, "filename", doc.Filename, "language", string(doc.Language))
	return id, nil
}

// Get loads a stored document by ID.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	if !idPattern.MatchString(id) {
		return nil, errors.NewValidation("id", "must be a 64-character hex digest")
	}

	var (
		doc         Document
		originalXZ  []byte
		correctedXZ []byte
		notesJSON   string
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, language, render_mode, original_xz, corrected_xz, notes_json, size_bytes, created_at
		FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &doc.Language, &doc.Mode,
		&originalXZ, &correctedXZ, &notesJSON, &doc.SizeBytes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound("document", id)
		}
		return nil, errors.NewIO("select", "documents", err)
	}

	if doc.Original, err = decompress(originalXZ); err != nil {
		return nil, err
	}
	if doc.Corrected, err = decompress(correctedXZ); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(notesJSON), &doc.Notes); err != nil {
		return nil, errors.NewSerialization("notes", "decode failed", err)
	}
	if doc.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, errors.NewSerialization("created_at", "decode failed", err)
	}
	return &doc, nil
}

// File loads the rendered corrected docx and original filename, for
// downloads.
func (s *Store) File(ctx context.Context, id string) (string, []byte, error) {
	if !idPattern.MatchString(id) {
		return "", nil, errors.NewValidation("id", "must be a 64-character hex digest")
	}
	var (
		filename string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, docx FROM documents WHERE id = ?`, id,
	).Scan(&filename, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, errors.NewNotFound("document", id)
		}
		return "", nil, errors.NewIO("select", "documents", err)
	}
	return filename, data, nil
}

// List returns document summaries, newest first. A non-positive limit
// selects the default page size.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, language, render_mode, note_count, size_bytes, created_at
		FROM documents ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, limit)
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Filename, &sum.Language, &sum.Mode,
			&sum.NoteCount, &sum.SizeBytes, &createdAt); err != nil {
			return nil, errors.NewIO("scan", "documents", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, errors.NewSerialization("created_at", "decode failed", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("scan", "documents", err)
	}
	return summaries, nil
}

// Delete removes a stored document.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !idPattern.MatchString(id) {
		return errors.NewValidation("id", "must be a 64-character hex digest")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.NewIO("delete", "documents", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewIO("delete", "documents", err)
	}
	if n == 0 {
		return errors.NewNotFound("document", id)
	}
	logging.StoreEvent("delete", id)
	return nil
}

// Stats reports store totals and the active SQLite driver.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByLanguage: make(map[string]int64),
		Driver:     sqlite.DriverType(),
	}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0),
			COALESCE(SUM(LENGTH(original_xz) + LENGTH(corrected_xz)), 0)
		FROM documents`,
	).Scan(&stats.Documents, &stats.UploadBytes, &stats.CompressedBytes)
	if err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT language, COUNT(*) FROM documents GROUP BY language`)
	if err != nil {
		return nil, errors.NewIO("select", "documents", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			language string
			count    int64
		)
		if err := rows.Scan(&language, &count); err != nil {
			return nil, errors.NewIO("scan", "documents", err)
		}
		stats.ByLanguage[language] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("scan", "documents", err)
	}
	return stats, nil
}

func compress(text string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.NewSerialization("xz", "writer init failed", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return nil, errors.NewSerialization("xz", "compress failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewSerialization("xz", "compress failed", err)
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) (string, error) {
	r, err := xz.NewReader(bytes.NewReader(blob))
	if err != nil {
		return "", errors.NewSerialization("xz", "reader init failed", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewSerialization("xz", "decompress failed", err)
	}
	return string(data), nil
}

// Package styleguide serves the editorial style guides the proofreader
// cites: listing, raw Markdown, rendered HTML, and a tar.xz bundle for
// offline use. Guides are plain .md files in a configured directory.
package styleguide

import (
	"archive/tar"
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/yuin/goldmark"

	"github.com/quillworks/redline/core/errors"
)

// maxGuideBytes caps a single guide file; anything larger is almost
// certainly not a style guide.
const maxGuideBytes = 4 << 20

const guideExt = ".md"

// bundleDir is the directory prefix inside the tar.xz bundle.
const bundleDir = "style-guides"

// namePattern restricts guide names to a single safe path segment.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Guide describes one available style guide.
type Guide struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Library reads style guides from a directory.
type Library struct {
	dir string
}

// NewLibrary opens the guide directory.
func NewLibrary(dir string) (*Library, error) {
	if dir == "" {
		return nil, errors.NewValidation("dir", "style guide directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewIO("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidation("dir", dir+" is not a directory")
	}
	return &Library{dir: dir}, nil
}

// List returns all guides sorted by name.
func (l *Library) List() ([]Guide, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.NewIO("readdir", l.dir, err)
	}

	guides := make([]Guide, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), guideExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), guideExt)
		if !namePattern.MatchString(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, errors.NewIO("stat", entry.Name(), err)
		}
		guides = append(guides, Guide{
			Name:       name,
			Title:      l.title(entry.Name(), name),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(guides, func(i, j int) bool { return guides[i].Name < guides[j].Name })
	return guides, nil
}

// Load returns the raw Markdown of one guide. The name is a bare guide
// name; anything that does not resolve to a single file in the guide
// directory is rejected.
func (l *Library) Load(name string) ([]byte, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("style guide", name)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	if info.Size() > maxGuideBytes {
		return nil, errors.NewTooLarge("style guide", maxGuideBytes, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

// HTML returns one guide rendered to HTML.
func (l *Library) HTML(name string) ([]byte, error) {
	md, err := l.Load(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return nil, errors.NewSerialization("markdown", "render failed", err)
	}
	return buf.Bytes(), nil
}

// Bundle writes all guides as a tar.xz archive.
func (l *Library) Bundle(w io.Writer) error {
	guides, err := l.List()
	if err != nil {
		return err
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.NewSerialization("xz", "writer init failed", err)
	}
	tw := tar.NewWriter(xw)

	for _, guide := range guides {
		data, err := l.Load(guide.Name)
		if err != nil {
			return err
		}
		header := &tar.Header{
			Name:    bundleDir + "/" + guide.Name + guideExt,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: guide.ModifiedAt,
		}
		if err := tw.WriteHeader(header); err != nil {
			return errors.NewSerialization("tar", "write header failed", err)
		}
		if _, err := tw.Write(data); err != nil {
			return errors.NewSerialization("tar", "write content failed", err)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.NewSerialization("tar", "close failed", err)
	}
	if err := xw.Close(); err != nil {
		return errors.NewSerialization("xz", "close failed", err)
	}
	return nil
}

// resolve maps a guide name to its file path, rejecting anything that
// could escape the guide directory.
func (l *Library) resolve(name string) (string, error) {
	name = strings.TrimSuffix(name, guideExt)
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return "", errors.NewValidation("name", "invalid style guide name")
	}
	return filepath.Join(l.dir, name+guideExt), nil
}

// title extracts the first Markdown heading, falling back to the name.
func (l *Library) title(filename, fallback string) string {
	f, err := os.Open(filepath.Join(l.dir, filename))
	if err != nil {
		return fallback
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		break
	}
	return fallback
}

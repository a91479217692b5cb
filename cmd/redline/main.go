// Command redline is the proofreading service CLI. It serves the HTTP
// API, runs one-shot proofreads against the editor model, and renders
// tracked-changes documents offline from already-corrected text.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/quillworks/redline/core/docx"
	"github.com/quillworks/redline/core/lang"
	"github.com/quillworks/redline/core/notes"
	"github.com/quillworks/redline/core/revision"
	"github.com/quillworks/redline/internal/api"
	"github.com/quillworks/redline/internal/assistant"
	"github.com/quillworks/redline/internal/docstore"
	"github.com/quillworks/redline/internal/logging"
	"github.com/quillworks/redline/internal/styleguide"
)

const version = "0.2.0"

// CLI defines the command-line interface for redline.
var CLI struct {
	LogLevel  string `name:"log-level" env:"REDLINE_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" env:"REDLINE_LOG_FORMAT" default:"json" enum:"json,text" help:"Log output format"`

	Serve     ServeCmd     `cmd:"" help:"Start the proofreading HTTP service"`
	Proofread ProofreadCmd `cmd:"" help:"Proofread a text or docx file via the editor model"`
	Export    ExportCmd    `cmd:"" help:"Render a tracked-changes docx from original and corrected text (offline)"`
	Extract   ExtractCmd   `cmd:"" help:"Extract plain text from a docx file"`
	Check     CheckCmd     `cmd:"" help:"Report whether two texts differ meaningfully"`
	Guides    GuidesGroup  `cmd:"" help:"Style guide operations"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// ServeCmd starts the HTTP service.
type ServeCmd struct {
	Host       string   `env:"REDLINE_HOST" default:"0.0.0.0" help:"Listen address"`
	Port       int      `env:"REDLINE_PORT" default:"8080" help:"Listen port"`
	StateDir   string   `name:"state-dir" env:"REDLINE_STATE_DIR" default:"./state" type:"path" help:"Directory for session state"`
	DB         string   `env:"REDLINE_DB" default:"./state/documents.db" type:"path" help:"SQLite document store path"`
	GuidesDir  string   `name:"guides-dir" env:"REDLINE_GUIDES_DIR" default:"./style-guides" type:"path" help:"Style guide directory"`
	APIKey     string   `name:"api-key" env:"REDLINE_API_KEY" help:"Require this X-API-Key on API requests"`
	RateLimit  int      `name:"rate-limit" env:"REDLINE_RATE_LIMIT" default:"0" help:"Requests per minute per client IP (0 = disabled)"`
	RateBurst  int      `name:"rate-burst" env:"REDLINE_RATE_BURST" default:"10" help:"Rate limit burst size"`
	CORSOrigin []string `name:"cors-origin" env:"REDLINE_CORS_ORIGINS" help:"Allowed CORS origins (empty = allow all)"`
	MaxUpload  int64    `name:"max-upload" env:"REDLINE_MAX_UPLOAD" default:"0" help:"Upload cap in bytes (0 = 50 MB default)"`
	TLSCert    string   `name:"tls-cert" env:"REDLINE_TLS_CERT" help:"TLS certificate file (enables HTTPS)"`
	TLSKey     string   `name:"tls-key" env:"REDLINE_TLS_KEY" help:"TLS private key file"`

	OpenAIKey     string `name:"openai-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	OpenAIBaseURL string `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"OpenAI-compatible endpoint override"`
	Model         string `env:"REDLINE_MODEL" default:"gpt-4o" help:"Editor model"`
}

func (c *ServeCmd) Run() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("an OpenAI API key is required to serve (set OPENAI_API_KEY)")
	}
	for _, dir := range []string{c.StateDir, filepath.Dir(c.DB), c.GuidesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	client, err := assistant.NewOpenAIClient(assistant.Config{
		APIKey:  c.OpenAIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   c.Model,
	})
	if err != nil {
		return err
	}
	sessions, err := assistant.NewFileSessionProvider(filepath.Join(c.StateDir, "sessions.json"), c.Model)
	if err != nil {
		return err
	}
	store, err := docstore.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	guides, err := styleguide.NewLibrary(c.GuidesDir)
	if err != nil {
		return err
	}

	cfg := api.Config{
		Host:              c.Host,
		Port:              c.Port,
		Version:           version,
		MaxUploadBytes:    c.MaxUpload,
		RateLimitRequests: c.RateLimit,
		RateLimitBurst:    c.RateBurst,
		AllowedOrigins:    c.CORSOrigin,
		Auth: api.AuthConfig{
			Enabled: c.APIKey != "",
			APIKey:  c.APIKey,
		},
		TLS: api.TLSConfig{
			Enabled:  c.TLSCert != "",
			CertFile: c.TLSCert,
			KeyFile:  c.TLSKey,
		},
	}
	srv := api.New(cfg, assistant.NewProofreader(client, sessions), sessions, store, guides)
	return srv.Start()
}

// ProofreadCmd runs one proofread against the editor model.
type ProofreadCmd struct {
	Path     string `arg:"" help:"Text or docx file to proofread ('-' for stdin)"`
	Output   string `short:"o" type:"path" help:"Output file; .docx renders tracked changes, otherwise corrected text (default: stdout)"`
	Language string `enum:",english,chinese,mixed" default:"" help:"Override language detection"`
	StateDir string `name:"state-dir" env:"REDLINE_STATE_DIR" default:"./state" type:"path" help:"Directory for session state"`

	OpenAIKey     string `name:"openai-key" env:"OPENAI_API_KEY" help:"OpenAI API key"`
	OpenAIBaseURL string `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"OpenAI-compatible endpoint override"`
	Model         string `env:"REDLINE_MODEL" default:"gpt-4o" help:"Editor model"`
}

func (c *ProofreadCmd) Run() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("an OpenAI API key is required (set OPENAI_API_KEY)")
	}
	text, err := readInput(c.Path)
	if err != nil {
		return err
	}

	client, err := assistant.NewOpenAIClient(assistant.Config{
		APIKey:  c.OpenAIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   c.Model,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.StateDir, err)
	}
	sessions, err := assistant.NewFileSessionProvider(filepath.Join(c.StateDir, "sessions.json"), c.Model)
	if err != nil {
		return err
	}

	proof := assistant.NewProofreader(client, sessions)
	outcome, err := proof.Proofread(context.Background(), text, assistant.Options{
		Language: langOption(c.Language),
		Progress: func(stage string, pct int) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", pct, stage)
		},
	})
	if err != nil {
		return err
	}

	for i, m := range outcome.Mistakes {
		fmt.Fprintf(os.Stderr, "%d. %s\n", i+1, m)
	}
	if len(outcome.Mistakes) == 0 {
		fmt.Fprintln(os.Stderr, "No corrections needed.")
	}

	if strings.HasSuffix(strings.ToLower(c.Output), ".docx") {
		data, err := renderDocxChain(outcome.Original, outcome.Corrected, outcome.Notes)
		if err != nil {
			return err
		}
		return os.WriteFile(c.Output, data, 0o644)
	}
	return writeOutput(c.Output, []byte(outcome.Corrected))
}

// ExportCmd renders a tracked-changes docx without touching the network.
type ExportCmd struct {
	Original  string   `required:"" type:"existingfile" help:"File with the original text"`
	Corrected string   `required:"" type:"existingfile" help:"File with the corrected text"`
	Note      []string `help:"Correction note (repeatable; '[Ref: ...]' suffixes become citations)"`
	Output    string   `short:"o" required:"" type:"path" help:"Output .docx path"`
}

func (c *ExportCmd) Run() error {
	original, err := os.ReadFile(c.Original)
	if err != nil {
		return err
	}
	corrected, err := os.ReadFile(c.Corrected)
	if err != nil {
		return err
	}

	data, err := renderDocxChain(string(original), string(corrected), notes.ParseAll(c.Note))
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d bytes)\n", c.Output, len(data))
	return nil
}

// ExtractCmd prints the plain text of a docx file.
type ExtractCmd struct {
	Path string `arg:"" type:"existingfile" help:"Path to .docx file"`
}

func (c *ExtractCmd) Run() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	text, err := docx.ExtractText(data)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// CheckCmd reports whether two texts differ after trivia suppression.
// Exit status 0 means no meaningful changes, 1 means the texts differ.
type CheckCmd struct {
	Original  string `required:"" type:"existingfile" help:"File with the original text"`
	Corrected string `required:"" type:"existingfile" help:"File with the corrected text"`
}

func (c *CheckCmd) Run() error {
	original, err := os.ReadFile(c.Original)
	if err != nil {
		return err
	}
	corrected, err := os.ReadFile(c.Corrected)
	if err != nil {
		return err
	}
	if !revision.HasMeaningfulChanges(string(original), string(corrected)) {
		fmt.Println("no meaningful changes")
		return nil
	}

	script := revision.Normalize(revision.Align(string(original), string(corrected)), revision.DefaultPolicy())
	var deletes, inserts int
	for _, op := range script {
		switch op.Kind {
		case revision.OpDelete:
			deletes++
		case revision.OpInsert:
			inserts++
		}
	}
	fmt.Printf("%d deletions, %d insertions\n", deletes, inserts)
	os.Exit(1)
	return nil
}

// GuidesGroup contains style guide operations.
type GuidesGroup struct {
	List   GuidesListCmd   `cmd:"" help:"List available style guides"`
	Bundle GuidesBundleCmd `cmd:"" help:"Write all style guides as a tar.xz bundle"`
}

type GuidesListCmd struct {
	GuidesDir string `name:"guides-dir" env:"REDLINE_GUIDES_DIR" default:"./style-guides" type:"path" help:"Style guide directory"`
}

func (c *GuidesListCmd) Run() error {
	lib, err := styleguide.NewLibrary(c.GuidesDir)
	if err != nil {
		return err
	}
	guides, err := lib.List()
	if err != nil {
		return err
	}
	if len(guides) == 0 {
		fmt.Println("No style guides found.")
		return nil
	}
	for _, g := range guides {
		fmt.Printf("%-24s %s (%d bytes)\n", g.Name, g.Title, g.SizeBytes)
	}
	return nil
}

type GuidesBundleCmd struct {
	GuidesDir string `name:"guides-dir" env:"REDLINE_GUIDES_DIR" default:"./style-guides" type:"path" help:"Style guide directory"`
	Output    string `short:"o" default:"style-guides.tar.xz" type:"path" help:"Output bundle path"`
}

func (c *GuidesBundleCmd) Run() error {
	lib, err := styleguide.NewLibrary(c.GuidesDir)
	if err != nil {
		return err
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := lib.Bundle(f); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", c.Output)
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("redline version %s\n", version)
	return nil
}

// renderDocxChain renders the corrected document, degrading through the
// same simpler layouts the service uses when a stage fails.
func renderDocxChain(original, corrected string, parsed []notes.Note) ([]byte, error) {
	if !revision.HasMeaningfulChanges(original, corrected) {
		return revision.BuildSummaryDocument(original, original, []string{revision.NoChangesNote})
	}
	texts := notes.Texts(parsed)
	data, err := revision.RenderTrackedChanges(original, corrected, texts, notes.Citations(parsed))
	if err == nil {
		return data, nil
	}
	logging.Warn("tracked changes render failed, falling back", "error", err.Error())
	if data, err = revision.BuildSummaryDocument(original, corrected, texts); err == nil {
		return data, nil
	}
	return revision.BuildMinimalDocument(original, corrected, texts)
}

// langOption maps the --language flag to a detection override; the empty
// flag leaves detection to the proofreader.
func langOption(s string) lang.Language {
	return lang.Language(s)
}

// readInput reads a proofread source: stdin for "-", extracted text for
// docx files, raw bytes otherwise.
func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(strings.ToLower(path), ".docx") {
		return docx.ExtractText(data)
	}
	return string(data), nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	}
	return logging.LevelInfo
}

func parseFormat(s string) logging.Format {
	if s == "text" {
		return logging.FormatText
	}
	return logging.FormatJSON
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("redline"),
		kong.Description("Redline - AI proofreading with tracked-changes documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.InitLogger(parseLevel(CLI.LogLevel), parseFormat(CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}

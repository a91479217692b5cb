package assistant

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/quillworks/redline/core/errors"
	"github.com/quillworks/redline/core/lang"
	"github.com/quillworks/redline/core/notes"
	"github.com/quillworks/redline/core/protect"
	"github.com/quillworks/redline/internal/logging"
)

// Progress stages reported while a proofread runs. The percentages passed
// alongside are monotonic within one job.
const (
	StageDetect     = "detect"
	StageProtect    = "protect"
	StageFirstPass  = "first_pass"
	StageSecondPass = "second_pass"
	StageStyleRules = "style_rules"
	StageDone       = "done"
)

// defaultTemperature keeps the editor conservative; proofreading wants
// determinism, not creativity.
const defaultTemperature = 0.1

// ProgressFunc receives stage updates while a proofread runs.
type ProgressFunc func(stage string, pct int)

// Options tune a single proofread job.
type Options struct {
	Passes      int           // 0 selects the default two passes
	Temperature float64       // 0 selects the default
	Language    lang.Language // overrides detection when set
	Progress    ProgressFunc  // optional stage reporting
}

// Outcome is the result of a proofread job.
type Outcome struct {
	Original  string        `json:"original"`
	Corrected string        `json:"corrected"`
	Mistakes  []string      `json:"mistakes"`
	Notes     []notes.Note  `json:"notes"`
	Language  lang.Language `json:"language"`
	Passes    int           `json:"passes"`
}

// Proofreader runs the two-pass proofreading flow: a first pass with the
// language-matched editor, then a review pass by a language specialist.
// Numerals in ideographic text are shielded from the first pass so the
// editor cannot rewrite them.
type Proofreader struct {
	client   Client
	sessions SessionProvider
}

// NewProofreader wires a proofreader to an editor client and its sessions.
func NewProofreader(client Client, sessions SessionProvider) *Proofreader {
	return &Proofreader{client: client, sessions: sessions}
}

// Proofread corrects text and reports what changed. A failed second pass
// degrades to the first-pass result rather than failing the job.
func (p *Proofreader) Proofread(ctx context.Context, text string, opts Options) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidation("text", "text is required")
	}
	passes := opts.Passes
	if passes <= 0 || passes > 2 {
		passes = 2
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	report := opts.Progress
	if report == nil {
		report = func(string, int) {}
	}

	language := lang.Detect(text)
	if opts.Language != "" {
		if !opts.Language.Valid() {
			return nil, errors.NewValidation("language", "unknown language "+string(opts.Language))
		}
		language = opts.Language
	}
	report(StageDetect, 5)
	logging.ProofreadEvent(ctx, "start", string(language), 1,
		"chars", utf8.RuneCountInString(text), "passes", passes)

	prot := protect.New()
	input := text
	if language != lang.English {
		input = prot.Protect(text)
		if prot.Count() > 0 {
			report(StageProtect, 10)
			logging.ProofreadEvent(ctx, "numbers_protected", string(language), 1,
				"spans", prot.Count())
		}
	}

	sess, err := p.sessions.Session(ctx, language)
	if err != nil {
		return nil, err
	}

	user := input + prot.Instructions()
	report(StageFirstPass, 20)
	raw, err := p.client.Complete(ctx, Request{
		System:      sess.Instructions,
		User:        user,
		Temperature: temperature,
	})
	if err != nil {
		return nil, errors.Wrap(err, "first proofreading pass")
	}
	reply, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	corrected := prot.Restore(reply.Corrected)
	mistakes := prot.CleanNotes(reply.Mistakes)
	report(StageFirstPass, 55)
	logging.ProofreadEvent(ctx, "pass_complete", string(language), 1,
		"mistakes", len(mistakes))

	passCount := 1
	if passes >= 2 {
		if second, more, ok := p.secondPass(ctx, language, corrected, mistakes, temperature, report); ok {
			corrected = second
			mistakes = append(mistakes, more...)
			passCount = 2
		}
	}

	if language != lang.Chinese {
		if fixed, colonNotes := applyColonRule(corrected); len(colonNotes) > 0 {
			corrected = fixed
			mistakes = append(mistakes, colonNotes...)
			report(StageStyleRules, 95)
		}
	}

	report(StageDone, 100)
	logging.ProofreadEvent(ctx, "complete", string(language), passCount,
		"mistakes", len(mistakes))

	return &Outcome{
		Original:  text,
		Corrected: corrected,
		Mistakes:  mistakes,
		Notes:     notes.ParseAll(mistakes),
		Language:  language,
		Passes:    passCount,
	}, nil
}

// secondPass reviews the already-corrected text with a language
// specialist. Mixed text is routed by which script dominates. Any failure
// is logged and reported as ok=false so the caller keeps the first-pass
// result.
func (p *Proofreader) secondPass(ctx context.Context, language lang.Language, corrected string, firstRun []string, temperature float64, report ProgressFunc) (string, []string, bool) {
	target := language
	if language == lang.Mixed {
		target = dominantScript(corrected)
	}

	sess, err := p.sessions.Session(ctx, target)
	if err != nil {
		logging.AssistantError(ctx, "second_pass_session", err, "language", string(target))
		return "", nil, false
	}
	report(StageSecondPass, 60)
	raw, err := p.client.Complete(ctx, Request{
		System:      sess.Instructions,
		User:        secondPassMessage(corrected, firstRun, target),
		Temperature: temperature,
	})
	if err != nil {
		logging.AssistantError(ctx, "second_pass", err, "language", string(target))
		return "", nil, false
	}
	reply, err := ParseResponse(raw)
	if err != nil {
		logging.AssistantError(ctx, "second_pass_parse", err, "language", string(target))
		return "", nil, false
	}
	report(StageSecondPass, 90)
	logging.ProofreadEvent(ctx, "pass_complete", string(target), 2,
		"mistakes", len(reply.Mistakes))
	return reply.Corrected, reply.Mistakes, true
}

// secondPassMessage frames the review request and lists the first-pass
// corrections so the specialist does not undo them.
func secondPassMessage(corrected string, firstRun []string, language lang.Language) string {
	var b strings.Builder
	if language == lang.Chinese {
		b.WriteString("請再次審閱以下已修正的文字。只修正餘下的錯誤，不要改寫。\n\n")
	} else {
		b.WriteString("Review the following already-corrected text one more time. Fix only remaining mistakes; do not rewrite.\n\n")
	}
	b.WriteString(corrected)
	if len(firstRun) > 0 {
		if language == lang.Chinese {
			b.WriteString("\n\n首次審閱已作出的修正：\n")
		} else {
			b.WriteString("\n\nCorrections already made in the first review:\n")
		}
		for _, m := range firstRun {
			b.WriteString("• ")
			b.WriteString(m)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// dominantScript routes mixed text to the specialist whose script carries
// more of the letters.
func dominantScript(text string) lang.Language {
	var ideographic, latin int
	for _, r := range text {
		switch {
		case lang.IsIdeograph(r):
			ideographic++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	if ideographic > latin {
		return lang.Chinese
	}
	return lang.English
}

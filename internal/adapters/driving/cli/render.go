package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/parable/internal/core/domain"
)

// Wrap width bounds.
const (
	defaultWidth = 80
	maxWidth     = 100
)

// renderer formats results for the terminal. Colour is only emitted when
// the output is a terminal that supports it.
type renderer struct {
	title   lipgloss.Style
	heading lipgloss.Style
	body    lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := lipgloss.NewRenderer(w)
	width := terminalWidth(w)

	return &renderer{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")),
		body:    r.NewStyle().Width(width),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		failure: r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

// terminalWidth returns the wrap width for w.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return min(width, maxWidth)
}

func (r *renderer) answer(a domain.AnswerCandidate) string {
	var b strings.Builder
	b.WriteString(r.heading.Render("Guidance"))
	b.WriteString("\n")
	b.WriteString(r.body.Render(a.Text))
	b.WriteString("\n")

	if sources := a.Sources(); len(sources) > 0 {
		b.WriteString(r.muted.Render("Sources: " + strings.Join(sources, ", ")))
		b.WriteString("\n")
	} else if !a.Grounded {
		b.WriteString(r.muted.Render("No matching passages; general guidance."))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *renderer) outcome(o domain.VerificationOutcome) string {
	var b strings.Builder
	switch o.Status {
	case domain.OutcomeAccepted:
		c := o.Candidate
		b.WriteString(r.title.Render(c.Title))
		b.WriteString("\n")
		if c.CentralFigure != "" || c.SourceLabel != "" {
			b.WriteString(r.muted.Render(fmt.Sprintf("%s, from %s", c.CentralFigure, c.SourceLabel)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(r.body.Render(c.NarrativeText))
		b.WriteString("\n")
		if c.Moral != "" {
			b.WriteString("\n")
			b.WriteString(r.heading.Render("Moral: ") + c.Moral)
			b.WriteString("\n")
		}
		b.WriteString(r.success.Render(fmt.Sprintf("Verified after %s.", plural(o.Attempts, "attempt"))))
		b.WriteString("\n")

	case domain.OutcomeNoNarrative:
		b.WriteString(r.muted.Render("No story in the corpus fits this query."))
		b.WriteString("\n")

	default:
		b.WriteString(r.warning.Render(
			fmt.Sprintf("No story passed fact checking (%s).", plural(o.Attempts, "attempt"))))
		b.WriteString("\n")
		for _, v := range o.Violations {
			b.WriteString(r.failure.Render("  - " + v.String()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *renderer) passages(result domain.RetrievalResult) string {
	if result.IsEmpty() {
		return "No passages found.\n"
	}

	var b strings.Builder
	for i := range result.Passages {
		p := result.Passages[i].Passage
		label := p.SourceLabel
		if label == "" {
			label = p.DocumentID
		}
		b.WriteString(r.heading.Render(fmt.Sprintf("[%d] %s", i+1, label)))
		b.WriteString(r.muted.Render(fmt.Sprintf(" (%.2f)", result.Passages[i].Score)))
		b.WriteString("\n")
		b.WriteString(r.body.Render(p.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (r *renderer) stats(s domain.IndexStats, run *domain.IngestRun) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Corpus"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Documents:       %d\n", s.Documents)
	fmt.Fprintf(&b, "  Passages:        %d\n", s.Passages)
	fmt.Fprintf(&b, "  Chunking:        %d chars, %d overlap\n", s.ChunkSize, s.ChunkOverlap)
	fmt.Fprintf(&b, "  Retrieval k:     %d\n", s.RetrievalK)
	fmt.Fprintf(&b, "  LLM model:       %s\n", orNone(s.LLMModel))
	fmt.Fprintf(&b, "  Embedding model: %s\n", orNone(s.EmbeddingModel))
	if run != nil {
		b.WriteString(r.muted.Render(fmt.Sprintf("Last indexed %s: %s, %s with %s",
			run.FinishedAt.Local().Format(time.DateTime),
			plural(run.Documents, "document"), plural(run.Passages, "passage"), run.EmbeddingModel)))
		b.WriteString("\n")
	}
	if s.Passages == 0 {
		b.WriteString(r.warning.Render("The index is empty. Run 'parable index <path>' first."))
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

package decider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var styles = struct {
	Kind   lipgloss.Style
	Line   lipgloss.Style
	Detail lipgloss.Style
}{
	Kind:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
	Line:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F")),
	Detail: lipgloss.NewStyle().Foreground(lipgloss.Color("#2C4A54")),
}

// Render formats the body of a question for the operator.
func Render(q Question) string {
	var b strings.Builder
	b.WriteString(styles.Kind.Render(strings.ToUpper(string(q.Kind))))
	for _, l := range q.Lines {
		if l != "" {
			b.WriteString("\n" + styles.Line.Render(l))
		}
	}
	for _, d := range q.Details {
		b.WriteString("\n" + styles.Detail.Render(d))
	}
	return b.String()
}

// Prompt asks a human operator on a terminal. Every question has a
// bounded wait: when Timeout passes without an answer the question is
// deferred rather than stalling the batch.
type Prompt struct {
	Timeout    time.Duration
	In         io.Reader
	Out        io.Writer
	Accessible bool

	mu  sync.Mutex
	run func(ctx context.Context, f *huh.Form) error
}

// NewPrompt creates a terminal prompt.
func NewPrompt(timeout time.Duration, in io.Reader, out io.Writer) *Prompt {
	return &Prompt{Timeout: timeout, In: in, Out: out}
}

func (p *Prompt) runner() func(ctx context.Context, f *huh.Form) error {
	if p.run != nil {
		return p.run
	}
	return func(ctx context.Context, f *huh.Form) error {
		return f.RunWithContext(ctx)
	}
}

// Decide shows q and waits for a choice. Questions are asked one at a time.
func (p *Prompt) Decide(parent context.Context, q Question) (Answer, error) {
	if len(q.Options) == 0 {
		return Deferred, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx := parent
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, p.Timeout)
		defer cancel()
	}

	choice := 0
	opts := make([]huh.Option[int], 0, len(q.Options)+1)
	for i, o := range q.Options {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d. %s", i+1, o), i))
	}
	opts = append(opts, huh.NewOption("defer", -1))

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title(q.Title).
			Description(Render(q)).
			Options(opts...).
			Value(&choice),
	)).WithAccessible(p.Accessible)
	if p.In != nil {
		form = form.WithInput(p.In)
	}
	if p.Out != nil {
		form = form.WithOutput(p.Out)
	}

	err := p.runner()(ctx, form)
	if parent.Err() != nil {
		return Answer{}, parent.Err()
	}
	switch {
	case err == nil:
	case errors.Is(err, huh.ErrUserAborted),
		errors.Is(err, huh.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		slog.Warn("decision deferred", "kind", q.Kind, "key", q.Key, "reason", err)
		return Deferred, nil
	default:
		return Answer{}, fmt.Errorf("prompt: %w", err)
	}

	if choice < 0 || choice >= len(q.Options) {
		return Deferred, nil
	}
	return Answer{Index: choice}, nil
}

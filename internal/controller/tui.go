package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "github.com/babydessy/mutest-rs/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	footerStyle  = lipgloss.NewStyle().Faint(true)
)

// TUI implements UI by collecting every section and showing them in a
// scrollable pager once the caller waits on it.
type TUI struct {
	output   io.Writer
	mode     StartMode
	sections []section
}

type section struct {
	title string
	body  string
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start resets the collected sections.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := &StartConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	p.mode = cfg.mode
	p.sections = nil

	return nil
}

// Close drops the collected sections.
func (p *TUI) Close(_ context.Context) {
	p.sections = nil
}

// Wait shows the collected sections. Short output is printed directly,
// longer output opens a pager the user closes with q.
func (p *TUI) Wait(ctx context.Context) {
	if ctx.Err() != nil || len(p.sections) == 0 {
		return
	}

	model := newReportModel(p.title(), p.content())

	if f, ok := p.output.(*os.File); ok {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			model = model.resize(width, height)
		}
	}

	if !model.needsPagination() {
		_, _ = fmt.Fprint(p.output, model.plain())
		return
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		_, _ = fmt.Fprint(p.output, model.plain())
	}
}

func (p *TUI) title() string {
	if p.mode == ModeView {
		return "mutest - stored report"
	}

	return "mutest - analysis"
}

func (p *TUI) content() string {
	var b strings.Builder

	for _, s := range p.sections {
		if s.title != "" {
			b.WriteString(sectionStyle.Render(s.title))
			b.WriteString("\n\n")
		}

		b.WriteString(strings.TrimRight(s.body, "\n"))
		b.WriteString("\n\n")
	}

	return b.String()
}

func (p *TUI) add(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.sections = append(p.sections, section{title: title, body: body})

	return nil
}

// DisplaySummary collects the headline figures of a report.
func (p *TUI) DisplaySummary(ctx context.Context, report *m.Report) error {
	return p.add(ctx, "", renderSummary(report))
}

// DisplayTargets collects the mutation targets.
func (p *TUI) DisplayTargets(ctx context.Context, targets []m.TargetRecord) error {
	return p.add(ctx, "Targets", renderTargetsTable(targets))
}

// DisplayGraph collects a rendered graph.
func (p *TUI) DisplayGraph(ctx context.Context, title string, graph string) error {
	return p.add(ctx, title, graph)
}

// DisplayMutations collects the mutations.
func (p *TUI) DisplayMutations(ctx context.Context, mutations []m.MutationRecord) error {
	return p.add(ctx, "Mutations", renderMutationsTable(mutations))
}

// DisplayMutants collects the mutants.
func (p *TUI) DisplayMutants(ctx context.Context, mutants []m.MutantRecord, mutations []m.MutationRecord) error {
	return p.add(ctx, "Mutants", renderMutants(mutants, mutations))
}

// DisplayUndetected collects the undetected mutant diagnostics.
func (p *TUI) DisplayUndetected(ctx context.Context, mutants []m.MutantRecord) error {
	return p.add(ctx, "Undetected", renderUndetected(mutants))
}

// DisplayDiagnostics collects warnings and notes.
func (p *TUI) DisplayDiagnostics(ctx context.Context, diagnostics []m.Diagnostic) error {
	if len(diagnostics) == 0 {
		return ctx.Err()
	}

	return p.add(ctx, "Diagnostics", renderDiagnostics(diagnostics))
}

// DisplayTimings collects the phase durations.
func (p *TUI) DisplayTimings(ctx context.Context, timings m.Timings) error {
	return p.add(ctx, "Timings", renderTimingsTable(timings))
}

// reportModel is the Bubble Tea model of the pager.
type reportModel struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
	quitting bool
}

// header and footer lines around the viewport.
const reservedLines = 4

func newReportModel(title, content string) reportModel {
	return reportModel{title: title, content: content}
}

func (rm reportModel) resize(width, height int) reportModel {
	vpHeight := max(height-reservedLines, 1)

	if !rm.ready {
		rm.viewport = viewport.New(width, vpHeight)
		rm.viewport.SetContent(rm.content)
		rm.ready = true

		return rm
	}

	rm.viewport.Width = width
	rm.viewport.Height = vpHeight

	return rm
}

// needsPagination returns true if the content does not fit on screen.
func (rm reportModel) needsPagination() bool {
	if !rm.ready {
		return false
	}

	return strings.Count(rm.content, "\n") > rm.viewport.Height
}

func (rm reportModel) Init() tea.Cmd {
	return nil
}

func (rm reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return rm.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			rm.quitting = true
			return rm, tea.Quit
		case "g", "home":
			rm.viewport.GotoTop()
			return rm, nil
		case "G", "end":
			rm.viewport.GotoBottom()
			return rm, nil
		}
	}

	var cmd tea.Cmd
	rm.viewport, cmd = rm.viewport.Update(msg)

	return rm, cmd
}

func (rm reportModel) View() string {
	if rm.quitting {
		return ""
	}

	if !rm.ready {
		return "loading...\n"
	}

	footer := fmt.Sprintf("%3.f%%  j/k scroll, d/u page, g/G top/bottom, q quit", rm.viewport.ScrollPercent()*100)

	return titleStyle.Render(rm.title) + "\n\n" + rm.viewport.View() + "\n" + footerStyle.Render(footer)
}

// plain renders the whole content without the pager.
func (rm reportModel) plain() string {
	return titleStyle.Render(rm.title) + "\n\n" + rm.content
}

// internal/tui/app.go
//
// Terminal front end for the credit risk form. It shows the same four views
// as the web surface: tab cycles views, up/down moves between fields,
// left/right changes a selector or the threshold, enter predicts.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/validation"
	"credit-default-risk/internal/content"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	tabStyle     = lipgloss.NewStyle().Padding(0, 1)
	activeTab    = tabStyle.Bold(true).Underline(true)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	highStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	lowStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// Assessor is the part of the assessment service the terminal needs.
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*models.Assessment, error)
	DefaultThreshold() float64
}

type assessedMsg struct {
	assessment *models.Assessment
	err        error
	savedTo    string
}

// App is the bubbletea model.
type App struct {
	site       *content.Site
	svc        Assessor
	reportPath string

	view     int
	form     form
	busy     bool
	result   *models.Assessment
	savedTo  string
	errMsg   string
	warnings []string

	width int
}

// NewApp builds the terminal app. Reports are written to reportPath.
func NewApp(site *content.Site, svc Assessor, reportPath string) *App {
	if reportPath == "" {
		reportPath = report.Filename
	}
	return &App{
		site:       site,
		svc:        svc,
		reportPath: reportPath,
		form:       newForm(svc.DefaultThreshold()),
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) current() content.Page {
	return a.site.Pages[a.view]
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		return a, nil

	case assessedMsg:
		a.busy = false
		if msg.err != nil {
			a.result = nil
			a.errMsg = userMessage(msg.err)
			a.warnings = zeroWarning(msg.err)
			return a, nil
		}
		a.result = msg.assessment
		a.savedTo = msg.savedTo
		a.errMsg = ""
		a.warnings = msg.assessment.Warnings
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.view = (a.view + 1) % len(a.site.Pages)
		return a, nil
	case "shift+tab":
		a.view = (a.view + len(a.site.Pages) - 1) % len(a.site.Pages)
		return a, nil
	}

	if a.current().Slug != content.Predict {
		if msg.String() == "q" || msg.String() == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	switch msg.String() {
	case "esc":
		return a, tea.Quit
	case "up":
		a.form.setFocus(a.form.focus - 1)
		return a, nil
	case "down":
		a.form.setFocus(a.form.focus + 1)
		return a, nil
	case "left":
		if !a.form.editingText() {
			a.form.adjust(-1)
			return a, nil
		}
	case "right":
		if !a.form.editingText() {
			a.form.adjust(1)
			return a, nil
		}
	case "enter":
		return a.submit()
	}

	if a.form.editingText() {
		var cmd tea.Cmd
		a.form.amounts[a.form.focus], cmd = a.form.amounts[a.form.focus].Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) submit() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	req, err := a.form.request()
	if err != nil {
		a.result = nil
		a.errMsg = userMessage(err)
		a.warnings = nil
		return a, nil
	}
	a.busy = true
	return a, a.assess(req)
}

// assess runs the prediction off the UI loop and saves the report.
func (a *App) assess(req assessment.Request) tea.Cmd {
	svc, path := a.svc, a.reportPath
	return func() tea.Msg {
		result, err := svc.Assess(context.Background(), req)
		if err != nil {
			return assessedMsg{err: err}
		}
		if err := os.WriteFile(path, result.Report, 0o644); err != nil {
			return assessedMsg{err: errors.NewReportGenerationFailedError(err)}
		}
		return assessedMsg{assessment: result, savedTo: path}
	}
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(a.site.Title) + "\n")

	tabs := make([]string, len(a.site.Pages))
	for i, p := range a.site.Pages {
		if i == a.view {
			tabs[i] = activeTab.Render(p.Nav)
		} else {
			tabs[i] = tabStyle.Render(p.Nav)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	page := a.current()
	b.WriteString(titleStyle.Render(page.Title) + "\n\n")
	if page.Slug == content.Predict {
		b.WriteString(a.predictView(page))
	} else {
		b.WriteString(a.pageView(page))
	}

	b.WriteString("\n" + mutedStyle.Render(a.help()) + "\n")
	return b.String()
}

func (a *App) help() string {
	if a.current().Slug == content.Predict {
		return "tab: next view • ↑/↓: field • ←/→: change • enter: predict • esc: quit"
	}
	return "tab: next view • q: quit"
}

func (a *App) pageView(page content.Page) string {
	width := a.width
	if width <= 0 || width > 100 {
		width = 100
	}
	wrap := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for _, p := range page.Paragraphs {
		b.WriteString(wrap.Render(p) + "\n\n")
	}
	for _, s := range page.Sections {
		if s.Heading != "" {
			b.WriteString(titleStyle.Render(s.Heading) + "\n")
		}
		for _, p := range s.Paragraphs {
			b.WriteString(wrap.Render(p) + "\n")
		}
		for _, item := range s.Items {
			b.WriteString(wrap.Render("  • "+item) + "\n")
		}
		for _, p := range s.Closing {
			b.WriteString(wrap.Render(p) + "\n")
		}
		if s.Contact != "" {
			b.WriteString(s.Contact + "\n")
		}
		b.WriteString("\n")
	}
	if page.Notice != "" {
		b.WriteString(warnStyle.Render(page.Notice) + "\n")
	}
	return b.String()
}

func (a *App) predictView(page content.Page) string {
	var b strings.Builder
	for _, p := range page.Paragraphs {
		b.WriteString(p + "\n")
	}
	b.WriteString("\n" + a.form.view())

	if a.busy {
		b.WriteString("\n" + mutedStyle.Render("Predicting...") + "\n")
	}
	for _, w := range a.warnings {
		b.WriteString("\n" + warnStyle.Render(w) + "\n")
	}
	if a.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(a.errMsg) + "\n")
	}
	if a.result != nil {
		b.WriteString("\n" + a.resultView(a.result))
	}
	return b.String()
}

func (a *App) resultView(r *models.Assessment) string {
	p := r.Prediction
	verdict := lowStyle.Render(p.Verdict())
	if p.Label == 1 {
		verdict = highStyle.Render(p.Verdict())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Prediction Result") + "\n")
	b.WriteString(fmt.Sprintf("Probability of Default: %s\n", report.Percent(p.Probability)))
	b.WriteString(fmt.Sprintf("Risk Level: %s\n", p.RiskBand.DisplayName()))
	b.WriteString(fmt.Sprintf("Debt-to-Income Ratio: %.2f\n", r.Ratios.DebtToIncome))
	b.WriteString(fmt.Sprintf("Debt-to-Savings Ratio: %.2f\n", r.Ratios.DebtToSavings))
	b.WriteString(verdict + "\n")
	if a.savedTo != "" {
		b.WriteString(mutedStyle.Render("PDF report saved to "+a.savedTo) + "\n")
	}
	return b.String()
}

// userMessage is the text shown under the form when a submission fails.
func userMessage(err error) string {
	stdErr := errors.Normalize(err)
	switch stdErr.Code {
	case errors.ErrCodeBorrowerValidationFailed:
		if fields, ok := stdErr.Metadata["fieldErrors"].([]string); ok && len(fields) > 0 {
			return stdErr.Message + ": " + strings.Join(fields, "; ")
		}
		return stdErr.Message
	case errors.ErrCodeFinancialsAllZero, errors.ErrCodeInvalidThreshold:
		return stdErr.Message
	default:
		return "The prediction could not be completed. Please try again later."
	}
}

func zeroWarning(err error) []string {
	if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Code == errors.ErrCodeFinancialsAllZero {
		return []string{validation.ZeroInputWarning}
	}
	return nil
}

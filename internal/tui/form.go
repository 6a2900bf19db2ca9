// internal/tui/form.go
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/models"

	"github.com/charmbracelet/bubbles/textinput"
)

// focus order on the predict view
const (
	focusIncome = iota
	focusSavings
	focusDebt
	focusEducation
	focusOccupation
	focusRelationship
	focusThreshold
	focusSubmit
	focusCount
)

const thresholdStep = 0.01

// choice is a closed-set selector cycled with left/right.
type choice struct {
	label   string
	options []string
	index   int
}

func (c *choice) value() string { return c.options[c.index] }

func (c *choice) move(delta int) {
	n := len(c.options)
	c.index = ((c.index+delta)%n + n) % n
}

type form struct {
	amounts   [3]textinput.Model
	choices   [3]choice
	threshold float64
	focus     int
}

func newForm(threshold float64) form {
	var f form
	for i := range f.amounts {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "0"
		ti.CharLimit = 16
		ti.Width = 16
		f.amounts[i] = ti
	}
	f.choices = [3]choice{
		{label: "Education Level", options: models.EducationLevels},
		{label: "Occupation", options: models.Occupations},
		{label: "Household Role", options: models.Relationships},
	}
	f.threshold = threshold
	f.amounts[focusIncome].Focus()
	return f
}

var amountLabels = [3]string{"INCOME", "SAVINGS", "DEBT"}

func (f *form) setFocus(i int) {
	f.focus = ((i % focusCount) + focusCount) % focusCount
	for j := range f.amounts {
		if j == f.focus {
			f.amounts[j].Focus()
		} else {
			f.amounts[j].Blur()
		}
	}
}

// adjust handles left/right on a selector or the threshold slider.
func (f *form) adjust(delta int) {
	switch {
	case f.focus >= focusEducation && f.focus <= focusRelationship:
		f.choices[f.focus-focusEducation].move(delta)
	case f.focus == focusThreshold:
		t := f.threshold + float64(delta)*thresholdStep
		// snap to the 0.01 grid so repeated steps do not drift
		t = math.Round(t*100) / 100
		f.threshold = math.Min(1, math.Max(0, t))
	}
}

func (f *form) editingText() bool {
	return f.focus <= focusDebt
}

// request converts the form into an assessment request. Empty amounts count as zero.
func (f *form) request() (assessment.Request, error) {
	var fieldErrors []string
	var values [3]float64
	for i, ti := range f.amounts {
		raw := strings.TrimSpace(ti.Value())
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrors = append(fieldErrors, amountLabels[i]+": must be a number")
			continue
		}
		values[i] = v
	}
	if len(fieldErrors) > 0 {
		return assessment.Request{}, errors.NewBorrowerValidationError(strings.Join(fieldErrors, "; "), fieldErrors)
	}

	threshold := f.threshold
	return assessment.Request{
		Borrower: models.BorrowerInput{
			Income:       values[0],
			Savings:      values[1],
			Debt:         values[2],
			Education:    f.choices[0].value(),
			Occupation:   f.choices[1].value(),
			Relationship: f.choices[2].value(),
		},
		Threshold: &threshold,
		Source:    "tui",
	}, nil
}

func (f *form) view() string {
	var b strings.Builder
	for i, ti := range f.amounts {
		b.WriteString(f.row(i, amountLabels[i], ti.View()))
	}
	for i, c := range f.choices {
		b.WriteString(f.row(focusEducation+i, c.label, "< "+c.value()+" >"))
	}
	b.WriteString(f.row(focusThreshold, "Set Risk Threshold", fmt.Sprintf("< %.2f >", f.threshold)))

	submit := "[ Predict ]"
	if f.focus == focusSubmit {
		submit = focusedStyle.Render(submit)
	}
	b.WriteString("\n" + submit + "\n")
	return b.String()
}

func (f *form) row(index int, label, value string) string {
	cursor := "  "
	if f.focus == index {
		cursor = focusedStyle.Render("> ")
		label = focusedStyle.Render(label)
	}
	return fmt.Sprintf("%s%-20s %s\n", cursor, label, value)
}

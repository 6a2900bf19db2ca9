package web

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/validation"
	"credit-default-risk/internal/content"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

type navItem struct {
	Label  string
	Href   string
	Active bool
}

type view struct {
	SiteTitle string
	Nav       []navItem
	Page      content.Page
	Form      *formView
	Result    *resultView
	Warnings  []string
	Error     string
}

type formView struct {
	Income          string
	Savings         string
	Debt            string
	Education       string
	Occupation      string
	Relationship    string
	Threshold       string
	EducationLevels []string
	Occupations     []string
	Relationships   []string
}

type resultView struct {
	ID             string
	Probability    string
	Classification string
	RiskLevel      string
	Verdict        string
	HighRisk       bool
	DownloadURI    template.URL
	Filename       string
}

func href(slug string) string {
	if slug == content.Home {
		return "/"
	}
	return "/" + slug
}

func (s *Server) newView(slug string) view {
	v := view{SiteTitle: s.site.Title}
	for _, p := range s.site.Pages {
		v.Nav = append(v.Nav, navItem{Label: p.Nav, Href: href(p.Slug), Active: p.Slug == slug})
	}
	v.Page, _ = s.site.Page(slug)
	return v
}

func (s *Server) render(w http.ResponseWriter, status int, name string, v view) {
	var buf bytes.Buffer
	if err := s.pages[name].Execute(&buf, v); err != nil {
		s.log.Error("template execution failed", map[string]interface{}{"template": name, "error": err})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStatic(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "page.html", s.newView(slug))
	}
}

func (s *Server) defaultForm() *formView {
	return &formView{
		Income:          "0",
		Savings:         "0",
		Debt:            "0",
		Education:       models.EducationLevels[0],
		Occupation:      models.Occupations[0],
		Relationship:    models.Relationships[0],
		Threshold:       strconv.FormatFloat(s.svc.DefaultThreshold(), 'f', 2, 64),
		EducationLevels: models.EducationLevels,
		Occupations:     models.Occupations,
		Relationships:   models.Relationships,
	}
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	v := s.newView(content.Predict)
	v.Form = s.defaultForm()
	s.render(w, http.StatusOK, "predict.html", v)
}

func (s *Server) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	v := s.newView(content.Predict)
	v.Form = s.defaultForm()

	if err := r.ParseForm(); err != nil {
		v.Error = "Could not read the submitted form."
		s.render(w, http.StatusBadRequest, "predict.html", v)
		return
	}

	fillForm(v.Form, r)
	req, err := parseForm(v.Form)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, http.StatusUnprocessableEntity, "predict.html", v)
		return
	}
	req.Source = "web"

	a, err := s.svc.Assess(r.Context(), req)
	if err != nil {
		stdErr := errors.Normalize(err)
		v.Error = userMessage(stdErr)
		status := http.StatusInternalServerError
		if stdErr.IsValidation() {
			status = http.StatusUnprocessableEntity
		}
		if stdErr.Code == errors.ErrCodeFinancialsAllZero {
			v.Warnings = []string{validation.ZeroInputWarning}
		}
		s.render(w, status, "predict.html", v)
		return
	}

	v.Warnings = a.Warnings
	v.Result = newResultView(a)
	s.render(w, http.StatusOK, "predict.html", v)
}

func newResultView(a *models.Assessment) *resultView {
	return &resultView{
		ID:             a.ID,
		Probability:    report.Percent(a.Prediction.Probability),
		Classification: a.Prediction.Classification(),
		RiskLevel:      a.Prediction.RiskBand.DisplayName(),
		Verdict:        a.Prediction.Verdict(),
		HighRisk:       a.Prediction.Label == 1,
		DownloadURI:    template.URL(report.DataURI(a.Report)),
		Filename:       report.Filename,
	}
}

func fillForm(f *formView, r *http.Request) {
	f.Income = strings.TrimSpace(r.PostFormValue("income"))
	f.Savings = strings.TrimSpace(r.PostFormValue("savings"))
	f.Debt = strings.TrimSpace(r.PostFormValue("debt"))
	f.Education = r.PostFormValue("education")
	f.Occupation = r.PostFormValue("occupation")
	f.Relationship = r.PostFormValue("relationship")
	if t := strings.TrimSpace(r.PostFormValue("threshold")); t != "" {
		f.Threshold = t
	}
}

// parseForm converts the submitted strings. Empty amounts count as 0, the
// same as an untouched number input.
func parseForm(f *formView) (assessment.Request, error) {
	var fieldErrors []string
	amount := func(name, raw string) float64 {
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrors = append(fieldErrors, name+": must be a number")
		}
		return v
	}

	borrower := models.BorrowerInput{
		Income:       amount("INCOME", f.Income),
		Savings:      amount("SAVINGS", f.Savings),
		Debt:         amount("DEBT", f.Debt),
		Education:    f.Education,
		Occupation:   f.Occupation,
		Relationship: f.Relationship,
	}

	threshold, err := strconv.ParseFloat(f.Threshold, 64)
	if err != nil {
		fieldErrors = append(fieldErrors, "threshold: must be a number")
	}

	if len(fieldErrors) > 0 {
		return assessment.Request{}, errors.NewBorrowerValidationError(strings.Join(fieldErrors, "; "), fieldErrors)
	}
	return assessment.Request{Borrower: borrower, Threshold: &threshold}, nil
}

// userMessage is the text shown in the form's error banner.
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

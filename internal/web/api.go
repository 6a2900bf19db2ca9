package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/validation"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"
)

type apiRequest struct {
	Borrower  json.RawMessage `json:"borrower"`
	Threshold *float64        `json:"threshold,omitempty"`
}

type apiResponse struct {
	*models.Assessment
	Classification string `json:"classification"`
	RiskLevel      string `json:"riskLevel"`
	Report         string `json:"report"`
	ReportFilename string `json:"reportFilename"`
}

type apiError struct {
	Error *errors.StandardError `json:"error"`
}

func (s *Server) handleAPIAssess(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assessJSON(w, r, "api")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Assessment:     a,
		Classification: a.Prediction.Classification(),
		RiskLevel:      a.Prediction.RiskBand.DisplayName(),
		Report:         base64.StdEncoding.EncodeToString(a.Report),
		ReportFilename: report.Filename,
	})
}

func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assessJSON(w, r, "api")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Report)))
	w.Header().Set("X-Assessment-Id", a.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Report)
}

// assessJSON decodes, validates and assesses a JSON request, writing the
// error response itself when it returns false.
func (s *Server) assessJSON(w http.ResponseWriter, r *http.Request, source string) (*models.Assessment, bool) {
	req, err := decodeAPIRequest(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeAPIError(w, err)
		return nil, false
	}
	req.Source = source

	a, err := s.svc.Assess(r.Context(), req)
	if err != nil {
		s.writeAPIError(w, err)
		return nil, false
	}
	return a, true
}

// decodeAPIRequest checks the borrower document against the JSON schema
// before binding it, so missing and unknown fields are reported by name.
func decodeAPIRequest(body io.Reader) (assessment.Request, error) {
	var in apiRequest
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return assessment.Request{}, errors.NewBorrowerValidationError(fmt.Sprintf("malformed request body: %v", err), nil)
	}
	if len(bytes.TrimSpace(in.Borrower)) == 0 {
		return assessment.Request{}, errors.NewBorrowerValidationError("borrower is required", []string{"borrower: is required"})
	}

	var doc interface{}
	if err := json.Unmarshal(in.Borrower, &doc); err != nil {
		return assessment.Request{}, errors.NewBorrowerValidationError(fmt.Sprintf("malformed borrower: %v", err), nil)
	}
	if res := validation.ValidateBorrower(doc); !res.Valid {
		return assessment.Request{}, errors.NewBorrowerValidationError(
			fmt.Sprintf("%d field error(s)", len(res.Errors)), res.GetErrorMessages())
	}

	var borrower models.BorrowerInput
	if err := json.Unmarshal(in.Borrower, &borrower); err != nil {
		return assessment.Request{}, errors.NewBorrowerValidationError(fmt.Sprintf("malformed borrower: %v", err), nil)
	}
	return assessment.Request{Borrower: borrower, Threshold: in.Threshold}, nil
}

func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	status := http.StatusInternalServerError
	if stdErr.IsValidation() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, apiError{Error: stdErr})
}

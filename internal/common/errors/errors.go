// Package errors provides the structured error type shared by the HTTP surface,
// the terminal client and the BPMN worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeBorrowerValidationFailed ErrorCode = "BORROWER_VALIDATION_FAILED"
	ErrCodeFinancialsAllZero        ErrorCode = "FINANCIALS_ALL_ZERO"
	ErrCodeInvalidThreshold         ErrorCode = "INVALID_THRESHOLD"

	ErrCodeArtifactFetchFailed ErrorCode = "ARTIFACT_FETCH_FAILED"
	ErrCodeArtifactLoadFailed  ErrorCode = "ARTIFACT_LOAD_FAILED"

	ErrCodeModelInvocationFailed  ErrorCode = "MODEL_INVOCATION_FAILED"
	ErrCodeReportGenerationFailed ErrorCode = "REPORT_GENERATION_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeAlertSendFailed  ErrorCode = "ALERT_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// IsValidation reports whether the error was caused by the submitted input.
func (e *StandardError) IsValidation() bool {
	return GetErrorCategory(e.Code) == "VALIDATION"
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewBorrowerValidationError creates a non-retryable input validation error.
func NewBorrowerValidationError(details string, fieldErrors []string) *StandardError {
	err := newError(ErrCodeBorrowerValidationFailed, "Borrower input is invalid", details, false)
	if len(fieldErrors) > 0 {
		err.Metadata = map[string]interface{}{"fieldErrors": fieldErrors}
	}
	return err
}

// NewFinancialsAllZeroError is returned when income, savings and debt are all zero.
func NewFinancialsAllZeroError() *StandardError {
	return newError(ErrCodeFinancialsAllZero,
		"Please enter valid borrower financial details before predicting.",
		"INCOME, SAVINGS and DEBT are all zero", false)
}

// NewInvalidThresholdError is returned for thresholds outside [0,1].
func NewInvalidThresholdError(threshold float64) *StandardError {
	return newError(ErrCodeInvalidThreshold,
		"Risk threshold must be between 0 and 1",
		fmt.Sprintf("threshold: %v", threshold), false)
}

// NewArtifactFetchFailedError wraps a failed remote download.
func NewArtifactFetchFailedError(name string, err error) *StandardError {
	return newError(ErrCodeArtifactFetchFailed,
		fmt.Sprintf("Could not fetch artifact '%s'", name), err.Error(), true)
}

// NewArtifactLoadFailedError wraps a failure to decode a local artifact.
func NewArtifactLoadFailedError(name string, err error) *StandardError {
	return newError(ErrCodeArtifactLoadFailed,
		fmt.Sprintf("Could not load artifact '%s'", name), err.Error(), false)
}

// NewModelInvocationFailedError wraps a failed probability estimate.
func NewModelInvocationFailedError(err error) *StandardError {
	return newError(ErrCodeModelInvocationFailed, "Model invocation failed", err.Error(), true)
}

// NewReportGenerationFailedError wraps a failed PDF render.
func NewReportGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeReportGenerationFailed, "Report generation failed", err.Error(), true)
}

// NewCacheUnavailableError wraps a prediction cache failure.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Prediction cache unavailable", err.Error(), true)
}

// NewAlertSendFailedError wraps a failed SES/SNS call.
func NewAlertSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeAlertSendFailed,
		fmt.Sprintf("Failed to send %s alert", channel), err.Error(), true)
}

// AsStandardError unwraps err into a *StandardError, if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always yields a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeModelInvocationFailed,
		ErrCodeArtifactFetchFailed:
		return 3
	case ErrCodeReportGenerationFailed:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"),
		strings.Contains(codeStr, "ZERO"),
		strings.Contains(codeStr, "THRESHOLD"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ARTIFACT"):
		return "ARTIFACT"
	case strings.Contains(codeStr, "MODEL"):
		return "MODEL"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORT"
	case strings.Contains(codeStr, "CACHE"), strings.Contains(codeStr, "ALERT"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}

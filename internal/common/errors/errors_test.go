package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "all zero financials are never retried",
			err:             NewFinancialsAllZeroError(),
			expectedCode:    "FINANCIALS_ALL_ZERO",
			expectedRetries: 0,
		},
		{
			name:            "model failure is retried",
			err:             NewModelInvocationFailedError(fmt.Errorf("connection reset")),
			expectedCode:    "MODEL_INVOCATION_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "report failure gets one retry",
			err:             NewReportGenerationFailedError(fmt.Errorf("font missing")),
			expectedCode:    "REPORT_GENERATION_FAILED",
			expectedRetries: 1,
		},
		{
			name:            "load failure is not retryable",
			err:             NewArtifactLoadFailedError("model", fmt.Errorf("bad json")),
			expectedCode:    "ARTIFACT_LOAD_FAILED",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmn.Code)
			assert.Equal(t, tt.expectedRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
			assert.Equal(t, tt.expectedCode, vars["originalErrorCode"])
			assert.Contains(t, vars, "timestamp")
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeBorrowerValidationFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFinancialsAllZero))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidThreshold))
	assert.Equal(t, "ARTIFACT", GetErrorCategory(ErrCodeArtifactFetchFailed))
	assert.Equal(t, "MODEL", GetErrorCategory(ErrCodeModelInvocationFailed))
	assert.Equal(t, "REPORT", GetErrorCategory(ErrCodeReportGenerationFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestAsStandardError_Wrapped(t *testing.T) {
	base := NewInvalidThresholdError(1.5)
	wrapped := fmt.Errorf("assess: %w", base)

	got, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, got.IsValidation())
}

func TestNormalize_UnknownError(t *testing.T) {
	got := Normalize(stderrors.New("kaboom"))
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Equal(t, "kaboom", got.Details)
	assert.False(t, got.IsValidation())
}

func TestNewBorrowerValidationError_Metadata(t *testing.T) {
	err := NewBorrowerValidationError("2 problems", []string{"INCOME: must be >= 0", "education: invalid"})
	assert.Equal(t, []string{"INCOME: must be >= 0", "education: invalid"}, err.Metadata["fieldErrors"])
	assert.Contains(t, err.Error(), "BORROWER_VALIDATION_FAILED")

	bare := NewBorrowerValidationError("nothing", nil)
	assert.Nil(t, bare.Metadata)
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeModelInvocationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeFinancialsAllZero))
}

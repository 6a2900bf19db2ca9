package validation

import (
	_ "embed"
	"fmt"
	"math"
	"strings"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed borrower.schema.json
var borrowerSchemaJSON string

var borrowerSchema = mustCompile(borrowerSchemaJSON)

func mustCompile(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("compile borrower schema: %v", err))
	}
	return schema
}

// ZeroInputWarning is surfaced when some, but not all, financial inputs are zero.
const ZeroInputWarning = "Some inputs are set to 0. This may lead to unrealistic predictions."

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateBorrower checks a borrower document (a BorrowerInput or its decoded
// JSON map) against the embedded JSON schema.
func ValidateBorrower(doc interface{}) *ValidationResult {
	result, err := borrowerSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "UNREADABLE_DOCUMENT",
			}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// ValidateThreshold accepts thresholds in [0,1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return errors.NewInvalidThresholdError(threshold)
	}
	return nil
}

// CheckFinancials applies the zero-input policy: all three zero is rejected,
// any other zero produces a non-blocking warning.
func CheckFinancials(input models.BorrowerInput) ([]string, error) {
	if input.AllFinancialsZero() {
		return nil, errors.NewFinancialsAllZeroError()
	}
	if input.AnyFinancialZero() {
		return []string{ZeroInputWarning}, nil
	}
	return nil, nil
}

// Borrower runs the schema check and the zero-input policy, returning the warnings to surface.
func Borrower(input models.BorrowerInput) ([]string, error) {
	if res := ValidateBorrower(input); !res.Valid {
		return nil, errors.NewBorrowerValidationError(
			fmt.Sprintf("%d field error(s)", len(res.Errors)),
			res.GetErrorMessages(),
		)
	}
	return CheckFinancials(input)
}

// GetErrorMessages returns a simple list of error messages.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for a specific field.
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// internal/models/borrower.go
package models

// Education levels accepted by the borrower form.
var EducationLevels = []string{
	"No formal education", "Primary", "Secondary", "High School", "Diploma",
	"Bachelor's", "Master's", "PhD",
}

// Occupations accepted by the borrower form.
var Occupations = []string{
	"Unemployed", "Student", "Agriculture", "Manual labor", "Sales", "Clerical",
	"Skilled Trade", "Health Care", "Education", "Engineering/Tech", "Managerial",
	"Professional Services", "Self-employed", "Retired", "Other",
}

// Relationships are the household roles accepted by the borrower form.
var Relationships = []string{
	"Single", "Married", "Divorced", "Widowed", "Supporting dependents", "Living with family",
}

const (
	FieldEducation    = "education"
	FieldOccupation   = "occupation"
	FieldRelationship = "relationship"
)

// DefaultThreshold is the decision threshold preselected on the form.
const DefaultThreshold = 0.4

// BorrowerInput is one form submission. It is never persisted.
type BorrowerInput struct {
	Income       float64 `json:"INCOME"`
	Savings      float64 `json:"SAVINGS"`
	Debt         float64 `json:"DEBT"`
	Education    string  `json:"education"`
	Occupation   string  `json:"occupation"`
	Relationship string  `json:"relationship"`
}

// Categorical returns the one-hot source fields in a stable order.
func (b BorrowerInput) Categorical() [][2]string {
	return [][2]string{
		{FieldEducation, b.Education},
		{FieldOccupation, b.Occupation},
		{FieldRelationship, b.Relationship},
	}
}

// AllFinancialsZero reports whether income, savings and debt are all zero.
func (b BorrowerInput) AllFinancialsZero() bool {
	return b.Income == 0 && b.Savings == 0 && b.Debt == 0
}

// AnyFinancialZero reports whether at least one monetary field is zero.
func (b BorrowerInput) AnyFinancialZero() bool {
	return b.Income == 0 || b.Savings == 0 || b.Debt == 0
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// IsKnownEducation reports whether v is one of EducationLevels.
func IsKnownEducation(v string) bool { return contains(EducationLevels, v) }

// IsKnownOccupation reports whether v is one of Occupations.
func IsKnownOccupation(v string) bool { return contains(Occupations, v) }

// IsKnownRelationship reports whether v is one of Relationships.
func IsKnownRelationship(v string) bool { return contains(Relationships, v) }

// internal/workers/credit/predict-credit-default/models.go
package predictcreditdefault

import "credit-default-risk/internal/models"

// Input is the process variable payload for a prediction job.
type Input struct {
	Borrower  *models.BorrowerInput `json:"borrower"`
	Threshold *float64              `json:"threshold,omitempty"`
}

// Output is merged back into the process instance.
type Output struct {
	AssessmentID   string   `json:"assessmentId"`
	Probability    float64  `json:"probability"`
	Label          int      `json:"label"`
	RiskBand       string   `json:"riskBand"`
	Classification string   `json:"classification"`
	Threshold      float64  `json:"threshold"`
	DebtToIncome   float64  `json:"debtToIncome"`
	DebtToSavings  float64  `json:"debtToSavings"`
	Warnings       []string `json:"warnings,omitempty"`
	ReportSize     int      `json:"reportSize"`
}

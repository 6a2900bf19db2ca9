// internal/models/prediction.go
package models

import "time"

// RiskBand is the coarse grouping of a default probability.
type RiskBand string

const (
	RiskBandLow    RiskBand = "Low"
	RiskBandMedium RiskBand = "Medium"
	RiskBandHigh   RiskBand = "High"
)

// DisplayName renders the band the way the result view and report show it.
func (b RiskBand) DisplayName() string {
	return string(b) + " Risk"
}

// PredictionResult is the classifier output for one feature vector and threshold.
type PredictionResult struct {
	Probability float64  `json:"probability"`
	Label       int      `json:"label"`
	RiskBand    RiskBand `json:"riskBand"`
	Threshold   float64  `json:"threshold"`
}

// Classification renders the binary label.
func (p PredictionResult) Classification() string {
	if p.Label == 1 {
		return "High Risk"
	}
	return "Low Risk"
}

// Verdict is the one-line banner shown under a result.
func (p PredictionResult) Verdict() string {
	if p.Label == 1 {
		return "High Risk: This borrower is likely to default."
	}
	return "Low Risk: This borrower is unlikely to default."
}

// Ratios holds the derived ratios echoed back to the borrower.
type Ratios struct {
	DebtToIncome  float64 `json:"debtToIncome"`
	DebtToSavings float64 `json:"debtToSavings"`
}

// Assessment is the full outcome of one submission.
type Assessment struct {
	ID         string           `json:"id"`
	Borrower   BorrowerInput    `json:"borrower"`
	Ratios     Ratios           `json:"ratios"`
	Prediction PredictionResult `json:"prediction"`
	Warnings   []string         `json:"warnings,omitempty"`
	Report     []byte           `json:"-"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// Package classifier turns a model probability into a binary label and a risk band.
package classifier

import (
	"context"
	"math"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/credit/model"
	"credit-default-risk/internal/models"
)

// Fixed band cut points. They do not move with the decision threshold.
const (
	MediumRiskFrom = 0.3
	HighRiskFrom   = 0.6
)

// Band groups p into Low (< 0.3), Medium (< 0.6) or High.
func Band(p float64) models.RiskBand {
	switch {
	case p < MediumRiskFrom:
		return models.RiskBandLow
	case p < HighRiskFrom:
		return models.RiskBandMedium
	default:
		return models.RiskBandHigh
	}
}

// Label is 1 when p >= t.
func Label(p, t float64) int {
	if p >= t {
		return 1
	}
	return 0
}

// ValidThreshold reports whether t is usable as a decision threshold.
func ValidThreshold(t float64) bool {
	return !math.IsNaN(t) && t >= 0 && t <= 1
}

// Classify scores vector with m and applies the threshold and banding policy.
// Model failures, including non-probability outputs, come back as
// MODEL_INVOCATION_FAILED. There is no retry and no fallback model.
func Classify(ctx context.Context, m model.Model, vector features.FeatureVector, t float64) (models.PredictionResult, error) {
	if !ValidThreshold(t) {
		return models.PredictionResult{}, errors.NewInvalidThresholdError(t)
	}

	p, err := m.PredictProba(ctx, vector)
	if err == nil {
		err = model.CheckProbability(p)
	}
	if err != nil {
		return models.PredictionResult{}, errors.NewModelInvocationFailedError(err)
	}

	return models.PredictionResult{
		Probability: p,
		Label:       Label(p, t),
		RiskBand:    Band(p),
		Threshold:   t,
	}, nil
}

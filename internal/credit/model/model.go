// Package model holds the probability-estimation capability the classifier
// wraps, and its implementations.
package model

import (
	"context"
	"fmt"
	"math"

	"credit-default-risk/internal/credit/features"
)

// Model estimates P(default=1 | vector). Implementations must be safe for
// concurrent use once constructed.
type Model interface {
	PredictProba(ctx context.Context, vector features.FeatureVector) (float64, error)
}

// Func adapts a plain function to Model.
type Func func(ctx context.Context, vector features.FeatureVector) (float64, error)

func (f Func) PredictProba(ctx context.Context, vector features.FeatureVector) (float64, error) {
	return f(ctx, vector)
}

// Constant always predicts p. Useful for wiring tests and smoke runs.
func Constant(p float64) Model {
	return Func(func(context.Context, features.FeatureVector) (float64, error) {
		return p, nil
	})
}

// CheckProbability rejects values that cannot be a probability.
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("model returned %v, want a probability in [0,1]", p)
	}
	return nil
}

// Package assessment runs one borrower submission through validation, the
// feature transform, the classifier and the report renderer.
package assessment

import (
	"context"
	"fmt"

	"credit-default-risk/internal/credit/classifier"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/credit/model"
	"credit-default-risk/internal/models"
)

// Engine pairs the feature schema with the model it was trained for. It is
// built once at startup and only read afterwards.
type Engine struct {
	schema features.Schema
	model  model.Model
}

func NewEngine(schema features.Schema, m model.Model) (*Engine, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("engine: empty feature schema")
	}
	if m == nil {
		return nil, fmt.Errorf("engine: nil model")
	}
	return &Engine{schema: schema, model: m}, nil
}

func (e *Engine) Schema() features.Schema {
	return e.schema
}

// Vector aligns input to the engine's schema.
func (e *Engine) Vector(input models.BorrowerInput) features.FeatureVector {
	return features.Transform(e.schema, input)
}

// Classify scores an already-transformed vector.
func (e *Engine) Classify(ctx context.Context, vector features.FeatureVector, threshold float64) (models.PredictionResult, error) {
	return classifier.Classify(ctx, e.model, vector, threshold)
}

// Predict is Vector followed by Classify. It performs no input validation.
func (e *Engine) Predict(ctx context.Context, input models.BorrowerInput, threshold float64) (models.PredictionResult, error) {
	return e.Classify(ctx, e.Vector(input), threshold)
}

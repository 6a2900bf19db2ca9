package model

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two stumps on the debt-to-income ratio and savings.
const twoTreeForest = `{
  "n_classes": 2,
  "positive_class": 1,
  "trees": [
    {"nodes": [
      {"feature": "R_DEBT_INCOME", "threshold": 0.5, "left": 1, "right": 2},
      {"left": -1, "right": -1, "value": [80, 20]},
      {"left": -1, "right": -1, "value": [10, 30]}
    ]},
    {"nodes": [
      {"feature": "CAT_SAVINGS_ACCOUNT", "threshold": 0.5, "left": 1, "right": 2},
      {"left": -1, "right": -1, "value": [0.4, 0.6]},
      {"left": -1, "right": -1, "value": [0.9, 0.1]}
    ]}
  ]
}`

func testSchema(t *testing.T) features.Schema {
	t.Helper()
	s, err := features.NewSchema(features.KnownFeatures())
	require.NoError(t, err)
	return s
}

func vectorFor(t *testing.T, income, savings, debt float64) features.FeatureVector {
	return features.Transform(testSchema(t), models.BorrowerInput{
		Income: income, Savings: savings, Debt: debt,
		Education: "PhD", Occupation: "Retired", Relationship: "Widowed",
	})
}

func TestForest_PredictProba(t *testing.T) {
	forest, err := ParseForest([]byte(twoTreeForest), testSchema(t))
	require.NoError(t, err)
	assert.Equal(t, 2, forest.Trees())

	tests := []struct {
		name                  string
		income, savings, debt float64
		want                  float64
	}{
		{"low ratio with savings", 50000, 10000, 20000, (0.2 + 0.1) / 2},
		{"high ratio with savings", 10000, 5000, 20000, (0.75 + 0.1) / 2},
		{"high ratio no savings", 10000, 0, 20000, (0.75 + 0.6) / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := forest.PredictProba(context.Background(), vectorFor(t, tt.income, tt.savings, tt.debt))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, p, 1e-12)
			assert.NoError(t, CheckProbability(p))
		})
	}
}

func TestForest_RejectsBadArtifacts(t *testing.T) {
	schema := testSchema(t)
	stump := func(feature string, left, right int, value []float64) ForestSpec {
		return ForestSpec{NClasses: 2, PositiveClass: 1, Trees: []TreeSpec{{Nodes: []NodeSpec{
			{Feature: feature, Threshold: 1, Left: left, Right: right},
			{Left: -1, Right: -1, Value: value},
			{Left: -1, Right: -1, Value: []float64{1, 1}},
		}}}}
	}

	tests := []struct {
		name    string
		spec    ForestSpec
		wantErr string
	}{
		{"no trees", ForestSpec{NClasses: 2, PositiveClass: 1}, "no trees"},
		{"one class", ForestSpec{NClasses: 1}, "n_classes"},
		{"positive class out of range", ForestSpec{NClasses: 2, PositiveClass: 2}, "positive_class"},
		{"unknown feature", stump("AGE", 1, 2, []float64{1, 0}), "not in the feature schema"},
		{"backward child", stump("INCOME", 0, 2, []float64{1, 0}), "invalid children"},
		{"child out of range", stump("INCOME", 1, 9, []float64{1, 0}), "invalid children"},
		{"wrong leaf width", stump("INCOME", 1, 2, []float64{1}), "class values"},
		{"empty leaf", stump("INCOME", 1, 2, []float64{0, 0}), "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForest(tt.spec, schema)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := ParseForest([]byte("not json"), schema)
	assert.ErrorContains(t, err, "decode forest")
}

func TestForest_WidthMismatch(t *testing.T) {
	forest, err := ParseForest([]byte(twoTreeForest), testSchema(t))
	require.NoError(t, err)

	small, err := features.NewSchema([]string{features.RatioDebtIncome})
	require.NoError(t, err)
	v := features.Transform(small, models.BorrowerInput{Income: 1, Debt: 1})

	_, err = forest.PredictProba(context.Background(), v)
	assert.ErrorContains(t, err, "expects 36 features")
}

func TestForest_Deterministic(t *testing.T) {
	forest, err := ParseForest([]byte(twoTreeForest), testSchema(t))
	require.NoError(t, err)

	v := vectorFor(t, 42000, 300, 9000)
	first, err := forest.PredictProba(context.Background(), v)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := forest.PredictProba(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCheckProbability(t *testing.T) {
	assert.NoError(t, CheckProbability(0))
	assert.NoError(t, CheckProbability(1))
	assert.Error(t, CheckProbability(-0.01))
	assert.Error(t, CheckProbability(1.01))
}

func TestRemoteModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"probability": 0.73}`))
	}))
	defer srv.Close()

	p, err := NewRemoteModel(srv.URL, time.Second).PredictProba(context.Background(), vectorFor(t, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.73, p)
}

func TestRemoteModel_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `boom`, "unexpected status 500"},
		{"missing probability", http.StatusOK, `{}`, "no probability"},
		{"garbage", http.StatusOK, `<html>`, "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRemoteModel(srv.URL, time.Second).PredictProba(context.Background(), vectorFor(t, 1, 1, 1))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

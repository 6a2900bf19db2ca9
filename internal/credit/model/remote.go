package model

import (
	"context"
	"fmt"
	"time"

	"credit-default-risk/internal/common/http"
	"credit-default-risk/internal/credit/features"
)

// RemoteModel delegates scoring to an HTTP endpoint serving the trained model.
//
// Request:  {"features": {"INCOME": 50000, ...}, "values": [50000, ...]}
// Response: {"probability": 0.42}
type RemoteModel struct {
	endpoint string
	client   *http.Client
}

type scoreRequest struct {
	Features map[string]float64 `json:"features"`
	Values   []float64          `json:"values"`
}

type scoreResponse struct {
	Probability *float64 `json:"probability"`
}

func NewRemoteModel(endpoint string, timeout time.Duration) *RemoteModel {
	return &RemoteModel{endpoint: endpoint, client: http.NewClient(timeout)}
}

func (m *RemoteModel) PredictProba(ctx context.Context, vector features.FeatureVector) (float64, error) {
	req := scoreRequest{Features: vector.Map(), Values: vector.Values()}

	var resp scoreResponse
	if err := m.client.PostJSON(ctx, m.endpoint, req, &resp); err != nil {
		return 0, fmt.Errorf("remote model: %w", err)
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("remote model: response has no probability")
	}
	return *resp.Probability, nil
}

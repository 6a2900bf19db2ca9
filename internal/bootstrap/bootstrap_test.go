package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"credit-default-risk/internal/common/config"
	stderrors "credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.Join("..", "..", "artifacts")
	return &config.Config{
		Artifacts: config.ArtifactsConfig{
			Model:  config.ArtifactSource{Path: filepath.Join(root, "credit_model.json")},
			Schema: config.ArtifactSource{Path: filepath.Join(root, "feature_names.json")},
		},
		Model:      config.ModelConfig{Kind: config.ModelKindForest},
		Assessment: config.AssessmentConfig{DefaultThreshold: models.DefaultThreshold},
	}
}

func borrower() models.BorrowerInput {
	return models.BorrowerInput{
		Income:       50000,
		Savings:      10000,
		Debt:         20000,
		Education:    "Bachelor's",
		Occupation:   "Clerical",
		Relationship: "Married",
	}
}

func TestBuild_ShippedArtifacts(t *testing.T) {
	rt, err := Build(context.Background(), testConfig(t), &observability.Observability{}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Redis)
	assert.Equal(t, models.DefaultThreshold, rt.Service.DefaultThreshold())

	a, err := rt.Service.Assess(context.Background(), assessment.Request{Borrower: borrower(), Source: "test"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Prediction.Probability, 0.0)
	assert.LessOrEqual(t, a.Prediction.Probability, 1.0)
	assert.NotEmpty(t, a.Report)
}

func TestBuild_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache = config.CacheConfig{Enabled: true, TTL: 60, Redis: config.RedisConfig{Address: mr.Addr()}}

	rt, err := Build(context.Background(), cfg, &observability.Observability{}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer rt.Close()
	require.NotNil(t, rt.Redis)

	_, err = rt.Service.Assess(context.Background(), assessment.Request{Borrower: borrower()})
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)
}

func TestBuild_MissingArtifact(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artifacts.Model.Path = filepath.Join(t.TempDir(), "absent.json")

	_, err := Build(context.Background(), cfg, &observability.Observability{}, logger.NewTestLogger(t))
	stdErr, ok := stderrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeArtifactFetchFailed, stdErr.Code)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	}, 3, time.Millisecond, logger.NewTestLogger(t), "probe")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	err = RetryWithBackoff(func() error { return errors.New("down") }, 2, time.Millisecond, logger.NewTestLogger(t), "probe")
	assert.EqualError(t, err, "probe failed after 2 attempts: down")
}

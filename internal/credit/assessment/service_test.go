package assessment

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/database"
	stderrors "credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/validation"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/credit/model"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type countingModel struct {
	p     float64
	err   error
	calls int32
}

func (m *countingModel) PredictProba(context.Context, features.FeatureVector) (float64, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.p, m.err
}

type failingRenderer struct{}

func (failingRenderer) Render(report.Data) ([]byte, error) {
	return nil, errors.New("font missing")
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, a *models.Assessment) error {
	return m.Called(ctx, a).Error(0)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, m model.Model) *Engine {
	t.Helper()
	schema, err := features.NewSchema(features.KnownFeatures())
	require.NoError(t, err)
	engine, err := NewEngine(schema, m)
	require.NoError(t, err)
	return engine
}

func newService(t *testing.T, m model.Model, opts ...Option) *Service {
	opts = append([]Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "assessment-1" }),
	}, opts...)
	return NewService(newEngine(t, m), report.PDFRenderer{}, models.DefaultThreshold, newTestLogger(t), opts...)
}

func validBorrower() models.BorrowerInput {
	return models.BorrowerInput{
		Income:       50000,
		Savings:      10000,
		Debt:         20000,
		Education:    "Bachelor's",
		Occupation:   "Clerical",
		Relationship: "Married",
	}
}

func threshold(t float64) *float64 { return &t }

func codeOf(t *testing.T, err error) stderrors.ErrorCode {
	t.Helper()
	stdErr, ok := stderrors.AsStandardError(err)
	require.True(t, ok, "expected a StandardError, got %v", err)
	return stdErr.Code
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Assess_Success(t *testing.T) {
	svc := newService(t, model.Constant(0.45))

	a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower(), Source: "test"})
	require.NoError(t, err)

	assert.Equal(t, "assessment-1", a.ID)
	assert.Equal(t, fixedNow, a.CreatedAt)
	assert.Equal(t, models.Ratios{DebtToIncome: 0.4, DebtToSavings: 2}, a.Ratios)
	assert.Equal(t, models.PredictionResult{
		Probability: 0.45,
		Label:       1,
		RiskBand:    models.RiskBandMedium,
		Threshold:   models.DefaultThreshold,
	}, a.Prediction)
	assert.Empty(t, a.Warnings)
	assert.True(t, bytes.HasPrefix(a.Report, []byte("%PDF-")))
}

func TestService_Assess_ExplicitThreshold(t *testing.T) {
	svc := newService(t, model.Constant(0.45))

	a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower(), Threshold: threshold(0.5)})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Prediction.Label)
	assert.Equal(t, 0.5, a.Prediction.Threshold)
	assert.Equal(t, models.RiskBandMedium, a.Prediction.RiskBand)
}

func TestService_Assess_ZeroInputs(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*models.BorrowerInput)
		wantCode     stderrors.ErrorCode
		wantWarnings []string
	}{
		{
			name:     "all zero is rejected",
			mutate:   func(b *models.BorrowerInput) { b.Income, b.Savings, b.Debt = 0, 0, 0 },
			wantCode: stderrors.ErrCodeFinancialsAllZero,
		},
		{
			name:         "one zero warns",
			mutate:       func(b *models.BorrowerInput) { b.Savings = 0 },
			wantWarnings: []string{validation.ZeroInputWarning},
		},
		{
			name:         "two zeros warn",
			mutate:       func(b *models.BorrowerInput) { b.Savings, b.Debt = 0, 0 },
			wantWarnings: []string{validation.ZeroInputWarning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &countingModel{p: 0.2}
			svc := newService(t, m)

			b := validBorrower()
			tt.mutate(&b)
			a, err := svc.Assess(context.Background(), Request{Borrower: b})

			if tt.wantCode != "" {
				assert.Nil(t, a)
				assert.Equal(t, tt.wantCode, codeOf(t, err))
				assert.Zero(t, atomic.LoadInt32(&m.calls), "model must not run for rejected input")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWarnings, a.Warnings)
			assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))
		})
	}
}

func TestService_Assess_ValidationFailures(t *testing.T) {
	tests := []struct {
		name      string
		borrower  models.BorrowerInput
		threshold *float64
		wantCode  stderrors.ErrorCode
	}{
		{
			name:     "negative income",
			borrower: func() models.BorrowerInput { b := validBorrower(); b.Income = -1; return b }(),
			wantCode: stderrors.ErrCodeBorrowerValidationFailed,
		},
		{
			name:     "unknown occupation",
			borrower: func() models.BorrowerInput { b := validBorrower(); b.Occupation = "Astronaut"; return b }(),
			wantCode: stderrors.ErrCodeBorrowerValidationFailed,
		},
		{
			name:      "threshold above one",
			borrower:  validBorrower(),
			threshold: threshold(1.01),
			wantCode:  stderrors.ErrCodeInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &countingModel{p: 0.2}
			a, err := newService(t, m).Assess(context.Background(), Request{Borrower: tt.borrower, Threshold: tt.threshold})
			assert.Nil(t, a)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
			assert.True(t, stderrors.Normalize(err).IsValidation())
			assert.Zero(t, atomic.LoadInt32(&m.calls))
		})
	}
}

func TestService_Assess_FatalFailures(t *testing.T) {
	t.Run("model failure", func(t *testing.T) {
		svc := newService(t, &countingModel{err: errors.New("model file corrupt")})
		a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower()})
		assert.Nil(t, a)
		assert.Equal(t, stderrors.ErrCodeModelInvocationFailed, codeOf(t, err))
	})

	t.Run("report failure emits no partial result", func(t *testing.T) {
		notifier := &mockNotifier{}
		svc := NewService(newEngine(t, model.Constant(0.9)), failingRenderer{}, 0.4, newTestLogger(t), WithNotifier(notifier))

		a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower()})
		assert.Nil(t, a)
		assert.Equal(t, stderrors.ErrCodeReportGenerationFailed, codeOf(t, err))
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})
}

func TestService_Assess_Idempotent(t *testing.T) {
	svc := newService(t, model.Constant(0.61))
	req := Request{Borrower: validBorrower(), Threshold: threshold(0.7)}

	first, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Assess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Prediction, second.Prediction)
	assert.Equal(t, first.Report, second.Report)
}

func TestService_Assess_Cache(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	m := &countingModel{p: 0.33}
	svc := newService(t, m, WithCache(NewRedisCache(client, time.Hour)))

	for i := 0; i < 3; i++ {
		a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower()})
		require.NoError(t, err)
		assert.Equal(t, 0.33, a.Prediction.Probability)
		assert.Equal(t, models.RiskBandMedium, a.Prediction.RiskBand)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))

	// a different threshold is a different key
	_, err = svc.Assess(context.Background(), Request{Borrower: validBorrower(), Threshold: threshold(0.3)})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&m.calls))
}

func TestService_Assess_CacheOutageFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	mr.Close()

	m := &countingModel{p: 0.1}
	svc := newService(t, m, WithCache(NewRedisCache(client, time.Hour)))

	a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower()})
	require.NoError(t, err)
	assert.Equal(t, models.RiskBandLow, a.Prediction.RiskBand)
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))
}

func TestService_Assess_NotifierFailureIsNotFatal(t *testing.T) {
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(a *models.Assessment) bool {
		return a.ID == "assessment-1" && len(a.Report) > 0
	})).Return(stderrors.NewAlertSendFailedError("ses", errors.New("throttled"))).Once()

	svc := newService(t, model.Constant(0.8), WithNotifier(notifier))
	a, err := svc.Assess(context.Background(), Request{Borrower: validBorrower()})
	require.NoError(t, err)
	assert.Equal(t, models.RiskBandHigh, a.Prediction.RiskBand)
	notifier.AssertExpectations(t)
}

func TestCacheKey(t *testing.T) {
	engine := newEngine(t, model.Constant(0))
	v := engine.Vector(validBorrower())

	assert.Equal(t, CacheKey(v, 0.4), CacheKey(v, 0.4))
	assert.NotEqual(t, CacheKey(v, 0.4), CacheKey(v, 0.41))

	other := validBorrower()
	other.Relationship = "Single"
	assert.NotEqual(t, CacheKey(v, 0.4), CacheKey(engine.Vector(other), 0.4))
}

func TestRedisCache_CorruptEntryIsAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, mr.Set("credit:prediction:broken", "{not json"))
	_, ok, err := NewRedisCache(client, time.Minute).Get(context.Background(), "credit:prediction:broken")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNewEngine_Rejects(t *testing.T) {
	_, err := NewEngine(features.Schema{}, model.Constant(0))
	assert.Error(t, err)

	schema, err := features.NewSchema([]string{features.Income})
	require.NoError(t, err)
	_, err = NewEngine(schema, nil)
	assert.Error(t, err)
}

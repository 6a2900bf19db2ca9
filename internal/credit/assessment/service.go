package assessment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/metrics"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/common/validation"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"

	"github.com/google/uuid"
)

// Renderer produces the downloadable report for a finished assessment.
type Renderer interface {
	Render(d report.Data) ([]byte, error)
}

// Request is one submission. A nil Threshold selects the configured default.
type Request struct {
	Borrower  models.BorrowerInput
	Threshold *float64
	// Source labels the caller in metrics and logs, e.g. "web", "api", "worker".
	Source string
}

type Option func(*Service)

// WithCache enables prediction caching.
func WithCache(c PredictionCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithNotifier enables high-risk alerts.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithObservability records otel metrics for every assessment.
func WithObservability(o *observability.Observability) Option {
	return func(s *Service) { s.obs = o }
}

// WithClock overrides time.Now, for reproducible reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the assessment id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	engine           *Engine
	renderer         Renderer
	defaultThreshold float64
	cache            PredictionCache
	notifier         Notifier
	obs              *observability.Observability
	log              logger.Logger
	now              func() time.Time
	newID            func() string
}

func NewService(engine *Engine, renderer Renderer, defaultThreshold float64, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		engine:           engine,
		renderer:         renderer,
		defaultThreshold: defaultThreshold,
		obs:              &observability.Observability{},
		log:              log.WithFields(map[string]interface{}{"component": "assessment"}),
		now:              time.Now,
		newID:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultThreshold is the threshold used when a request does not set one.
func (s *Service) DefaultThreshold() float64 {
	return s.defaultThreshold
}

// Engine exposes the schema and model the service was built with.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Assess validates, classifies and renders one submission. Validation
// failures return a StandardError for which IsValidation is true; model and
// report failures are fatal for the submission and no partial result is
// returned. Cache and alert problems are logged and never fail the request.
func (s *Service) Assess(ctx context.Context, req Request) (*models.Assessment, error) {
	start := time.Now()
	source := req.Source
	if source == "" {
		source = "unknown"
	}

	a, err := s.assess(ctx, req)

	elapsed := time.Since(start)
	metrics.AssessmentDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		code := string(errors.Normalize(err).Code)
		metrics.AssessmentsRejected.WithLabelValues(code).Inc()
		s.obs.RecordAssessment(ctx, elapsed, code, "")
		s.log.Warn("Assessment failed", map[string]interface{}{
			"source":   source,
			"code":     code,
			"error":    err,
			"duration": elapsed.String(),
		})
		return nil, err
	}

	metrics.AssessmentsTotal.WithLabelValues(string(a.Prediction.RiskBand), strconv.Itoa(a.Prediction.Label)).Inc()
	s.obs.RecordAssessment(ctx, elapsed, "success", string(a.Prediction.RiskBand))
	s.log.Info("Assessment completed", map[string]interface{}{
		"assessmentId": a.ID,
		"source":       source,
		"probability":  a.Prediction.Probability,
		"threshold":    a.Prediction.Threshold,
		"label":        a.Prediction.Label,
		"riskBand":     a.Prediction.RiskBand,
		"warnings":     len(a.Warnings),
		"duration":     elapsed.String(),
	})
	return a, nil
}

func (s *Service) assess(ctx context.Context, req Request) (*models.Assessment, error) {
	threshold := s.defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if err := validation.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	warnings, err := validation.Borrower(req.Borrower)
	if err != nil {
		return nil, err
	}

	vector := s.engine.Vector(req.Borrower)
	if unmatched := features.Unmatched(s.engine.Schema(), req.Borrower); len(unmatched) > 0 {
		s.log.Debug("Inputs without a schema column were ignored", map[string]interface{}{"features": unmatched})
	}

	prediction, err := s.predict(ctx, vector, threshold)
	if err != nil {
		return nil, err
	}

	a := &models.Assessment{
		ID:         s.newID(),
		Borrower:   req.Borrower,
		Ratios:     features.DeriveRatios(req.Borrower),
		Prediction: prediction,
		Warnings:   warnings,
		CreatedAt:  s.now(),
	}

	pdf, err := s.renderer.Render(report.Data{
		Reference:   a.ID,
		Borrower:    a.Borrower,
		Ratios:      a.Ratios,
		Prediction:  a.Prediction,
		GeneratedAt: a.CreatedAt,
	})
	if err != nil {
		return nil, errors.NewReportGenerationFailedError(err)
	}
	if len(pdf) == 0 {
		return nil, errors.NewReportGenerationFailedError(fmt.Errorf("renderer returned an empty document"))
	}
	a.Report = pdf
	metrics.ReportsGenerated.Inc()

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, a); err != nil {
			s.log.Warn("High-risk alert not delivered", map[string]interface{}{"assessmentId": a.ID, "error": err})
		}
	}

	return a, nil
}

func (s *Service) predict(ctx context.Context, vector features.FeatureVector, threshold float64) (models.PredictionResult, error) {
	if s.cache == nil {
		return s.engine.Classify(ctx, vector, threshold)
	}

	key := CacheKey(vector, threshold)
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("Prediction cache lookup failed", map[string]interface{}{"error": err})
	}
	if ok {
		metrics.PredictionCacheHits.Inc()
		return cached, nil
	}

	prediction, err := s.engine.Classify(ctx, vector, threshold)
	if err != nil {
		return models.PredictionResult{}, err
	}
	if err := s.cache.Set(ctx, key, prediction); err != nil {
		s.log.Warn("Prediction cache store failed", map[string]interface{}{"error": err})
	}
	return prediction, nil
}

// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"credit-default-risk/internal/common/aws"
	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/database"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/credit/artifacts"
	"credit-default-risk/internal/credit/assessment"
	"credit-default-risk/internal/credit/report"
)

// Runtime is the assessment service plus the optional backends wired into it.
type Runtime struct {
	Service *assessment.Service
	Redis   *database.RedisClient
	closers []func() error
}

// RetryWithBackoff attempts to execute a function with exponential backoff.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Build loads the artifacts and assembles the assessment service. Artifact
// failures are fatal; a cache that cannot be reached is not.
func Build(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*Runtime, error) {
	store := artifacts.NewStore(config.GetDuration(cfg.Artifacts.FetchTimeout), log)
	schema, m, err := store.Open(ctx, cfg.Artifacts, cfg.Model)
	if err != nil {
		return nil, err
	}

	engine, err := assessment.NewEngine(schema, m)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	opts := []assessment.Option{assessment.WithObservability(obs)}

	if cfg.Cache.Enabled {
		if redis := connectRedis(ctx, cfg.Cache.Redis, log); redis != nil {
			rt.Redis = redis
			rt.closers = append(rt.closers, redis.Close)
			ttl := time.Duration(cfg.Cache.TTL) * time.Second
			opts = append(opts, assessment.WithCache(assessment.NewRedisCache(redis, ttl)))
			log.Info("Prediction cache enabled", map[string]interface{}{"address": cfg.Cache.Redis.Address, "ttl": ttl.String()})
		}
	}

	if cfg.Alerts.Enabled {
		notifier, err := newNotifier(ctx, cfg.Alerts, log)
		if err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, assessment.WithNotifier(notifier))
	}

	rt.Service = assessment.NewService(engine, report.PDFRenderer{}, cfg.Assessment.DefaultThreshold, log, opts...)
	return rt, nil
}

func connectRedis(ctx context.Context, rc config.RedisConfig, log logger.Logger) *database.RedisClient {
	var redis *database.RedisClient
	err := RetryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(rc)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 3, time.Second, log, "Redis connection")
	if err != nil {
		log.Warn("Prediction cache disabled", map[string]interface{}{"error": err.Error()})
		if redis != nil {
			_ = redis.Close()
		}
		return nil
	}
	return redis
}

func newNotifier(ctx context.Context, ac config.AlertsConfig, log logger.Logger) (*assessment.AlertNotifier, error) {
	var email assessment.EmailSender
	var topic assessment.TopicPublisher

	if ac.SES.Enabled {
		client, err := aws.NewSESClient(ctx, ac.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		email = client
	}
	if ac.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, ac.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		topic = client
	}

	log.Info("High-risk alerts enabled", map[string]interface{}{"ses": ac.SES.Enabled, "sns": ac.SNS.Enabled})
	return assessment.NewAlertNotifier(ac, email, topic, log), nil
}

// Close releases the backends opened by Build.
func (r *Runtime) Close() {
	for _, c := range r.closers {
		_ = c()
	}
	r.closers = nil
}

// internal/workers/credit/predict-credit-default/handler.go
package predictcreditdefault

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/metrics"
	"credit-default-risk/internal/common/observability"
	"credit-default-risk/internal/credit/assessment"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "predict-credit-default"
	source   = "worker"
)

type Handler struct {
	config       *Config
	service      *assessment.Service
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, svc *assessment.Service, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      svc,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

// Execute runs one prediction outside of Zeebe.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewBorrowerValidationError(fmt.Sprintf("parse input: %v", err), nil)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Borrower == nil {
		return nil, errors.NewBorrowerValidationError("borrower is required", []string{"borrower: is required"})
	}

	a, err := h.service.Assess(ctx, assessment.Request{
		Borrower:  *input.Borrower,
		Threshold: input.Threshold,
		Source:    source,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		AssessmentID:   a.ID,
		Probability:    a.Prediction.Probability,
		Label:          a.Prediction.Label,
		RiskBand:       string(a.Prediction.RiskBand),
		Classification: a.Prediction.Classification(),
		Threshold:      a.Prediction.Threshold,
		DebtToIncome:   a.Ratios.DebtToIncome,
		DebtToSavings:  a.Ratios.DebtToSavings,
		Warnings:       a.Warnings,
		ReportSize:     len(a.Report),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.failJob(ctx, client, job, errors.Normalize(err), start)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}

	elapsed := time.Since(start)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, elapsed, "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"assessmentId": output.AssessmentID,
		"riskBand":     output.RiskBand,
		"label":        output.Label,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	stdErr := errors.Normalize(err)
	elapsed := time.Since(start)

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, elapsed, "failed")

	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// HandlerFunc is the Zeebe job callback. Handlers complete, fail or throw the job themselves.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Workers tracks opened job workers so they can be closed together.
type Workers struct {
	client zbc.Client
	log    logger.Logger
	open   []worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{client: client, log: log}
}

// Start opens a job worker for taskType unless wcfg disables it.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		w.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()
	w.open = append(w.open, jobWorker)

	w.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Close stops every worker and waits for in-flight jobs.
func (w *Workers) Close() {
	for _, jw := range w.open {
		jw.Close()
		jw.AwaitClose()
	}
	w.log.Info("workers stopped", map[string]interface{}{"count": len(w.open)})
	w.open = nil
}

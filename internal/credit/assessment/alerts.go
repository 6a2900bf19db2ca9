package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-default-risk/internal/common/config"
	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/common/logger"
	"credit-default-risk/internal/common/metrics"
	"credit-default-risk/internal/credit/report"
	"credit-default-risk/internal/models"
)

// Notifier is told about every completed assessment and decides itself
// whether it is worth an alert.
type Notifier interface {
	Notify(ctx context.Context, a *models.Assessment) error
}

// EmailSender and TopicPublisher are satisfied by the SES and SNS clients in
// internal/common/aws.
type EmailSender interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type TopicPublisher interface {
	PublishMessage(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}

// AlertNotifier sends an alert for assessments classified High Risk. Alerts
// carry the derived ratios and the prediction, never the raw amounts.
type AlertNotifier struct {
	cfg   config.AlertsConfig
	email EmailSender
	topic TopicPublisher
	log   logger.Logger
}

// NewAlertNotifier accepts nil senders for channels that are disabled.
func NewAlertNotifier(cfg config.AlertsConfig, email EmailSender, topic TopicPublisher, log logger.Logger) *AlertNotifier {
	return &AlertNotifier{
		cfg:   cfg,
		email: email,
		topic: topic,
		log:   log.WithFields(map[string]interface{}{"component": "alerts"}),
	}
}

type alertMessage struct {
	AssessmentID   string        `json:"assessmentId"`
	Probability    float64       `json:"probability"`
	Threshold      float64       `json:"threshold"`
	Classification string        `json:"classification"`
	RiskBand       string        `json:"riskBand"`
	Ratios         models.Ratios `json:"ratios"`
	Education      string        `json:"education"`
	Occupation     string        `json:"occupation"`
	CreatedAt      string        `json:"createdAt"`
}

// Notify sends on every enabled channel and returns the first failure, after
// trying them all.
func (n *AlertNotifier) Notify(ctx context.Context, a *models.Assessment) error {
	if !n.cfg.Enabled || a.Prediction.Label != 1 {
		return nil
	}

	subject := fmt.Sprintf("Credit default alert: %s (%s)", a.Prediction.Classification(), report.Percent(a.Prediction.Probability))
	var firstErr error

	if n.cfg.SES.Enabled && n.email != nil {
		id, err := n.email.SendText(ctx, n.cfg.SES.FromEmail, n.cfg.SES.Recipients, subject, emailBody(a))
		firstErr = n.record("ses", id, a.ID, err, firstErr)
	}

	if n.cfg.SNS.Enabled && n.topic != nil {
		id, err := n.publish(ctx, subject, a)
		firstErr = n.record("sns", id, a.ID, err, firstErr)
	}

	return firstErr
}

func (n *AlertNotifier) publish(ctx context.Context, subject string, a *models.Assessment) (string, error) {
	payload, err := json.Marshal(alertMessage{
		AssessmentID:   a.ID,
		Probability:    a.Prediction.Probability,
		Threshold:      a.Prediction.Threshold,
		Classification: a.Prediction.Classification(),
		RiskBand:       string(a.Prediction.RiskBand),
		Ratios:         a.Ratios,
		Education:      a.Borrower.Education,
		Occupation:     a.Borrower.Occupation,
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return n.topic.PublishMessage(ctx, n.cfg.SNS.TopicARN, subject, string(payload), map[string]string{
		"riskBand":       string(a.Prediction.RiskBand),
		"classification": a.Prediction.Classification(),
	})
}

func (n *AlertNotifier) record(channel, messageID, assessmentID string, err, firstErr error) error {
	if err != nil {
		metrics.AlertsSent.WithLabelValues(channel, "failed").Inc()
		n.log.Warn("Alert delivery failed", map[string]interface{}{
			"channel":      channel,
			"assessmentId": assessmentID,
			"error":        err,
		})
		if firstErr == nil {
			return errors.NewAlertSendFailedError(channel, err)
		}
		return firstErr
	}

	metrics.AlertsSent.WithLabelValues(channel, "sent").Inc()
	n.log.Info("Alert sent", map[string]interface{}{
		"channel":      channel,
		"assessmentId": assessmentID,
		"messageId":    messageID,
	})
	return firstErr
}

func emailBody(a *models.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assessment %s was classified %s.\n\n", a.ID, a.Prediction.Classification())
	fmt.Fprintf(&b, "Predicted probability: %s\n", report.Percent(a.Prediction.Probability))
	fmt.Fprintf(&b, "Threshold used: %v\n", a.Prediction.Threshold)
	fmt.Fprintf(&b, "Risk level: %s\n", a.Prediction.RiskBand.DisplayName())
	fmt.Fprintf(&b, "Debt-to-Income Ratio: %.2f\n", a.Ratios.DebtToIncome)
	fmt.Fprintf(&b, "Debt-to-Savings Ratio: %.2f\n", a.Ratios.DebtToSavings)
	fmt.Fprintf(&b, "Education: %s\nOccupation: %s\n\n", a.Borrower.Education, a.Borrower.Occupation)
	b.WriteString(report.Disclaimer)
	b.WriteString("\n")
	return b.String()
}

package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config holds alerting configuration.
type Config struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string `yaml:"webhook_url"`
	// WebhookType determines the payload format: "slack", "discord", or "generic"
	WebhookType string `yaml:"webhook_type"`
	// MinFailuresBeforeAlert is the threshold before sending alerts
	MinFailuresBeforeAlert int `yaml:"min_failures"`
	// Email configures the sendgrid channel; disabled when APIKey is empty.
	Email EmailConfig `yaml:"email"`
}

// DetectWebhookType fills WebhookType from the URL when unset.
func (c *Config) DetectWebhookType() {
	if c.WebhookType != "" {
		return
	}
	if strings.Contains(c.WebhookURL, "slack.com") {
		c.WebhookType = "slack"
	} else if strings.Contains(c.WebhookURL, "discord.com") {
		c.WebhookType = "discord"
	} else {
		c.WebhookType = "generic"
	}
}

// WarehouseFailure contains details about one failed warehouse.
type WarehouseFailure struct {
	Warehouse string `json:"warehouse"`
	Error     string `json:"error"`
}

// BatchAlert describes a reconciliation run with failures.
type BatchAlert struct {
	JobName       string
	RunID         string
	TotalCount    int
	SuccessCount  int
	FailedCount   int
	Duration      time.Duration
	FailedDetails []WarehouseFailure
	Timestamp     time.Time
}

// Alerter sends alerts about failed reconciliation runs to the configured
// webhook and email channels.
type Alerter struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

func NewAlerter(cfg Config, log *zap.Logger) *Alerter {
	cfg.DetectWebhookType()
	if cfg.MinFailuresBeforeAlert <= 0 {
		cfg.MinFailuresBeforeAlert = 1
	}
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// SendBatchAlert dispatches the alert on every enabled channel. Channel
// failures are logged, not propagated; alerting never gates the run.
func (a *Alerter) SendBatchAlert(ctx context.Context, alert BatchAlert) {
	if alert.FailedCount < a.cfg.MinFailuresBeforeAlert {
		return
	}

	if a.cfg.WebhookURL != "" {
		if err := a.sendWebhook(ctx, alert); err != nil {
			a.log.Warn("webhook alert failed", zap.Error(err))
		}
	}
	if a.cfg.Email.Enabled() {
		if err := a.sendEmail(alert); err != nil {
			a.log.Warn("email alert failed", zap.Error(err))
		}
	}
}

func (a *Alerter) sendWebhook(ctx context.Context, alert BatchAlert) error {
	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "slack":
		payload, err = a.buildSlackPayload(alert)
	case "discord":
		payload, err = a.buildDiscordPayload(alert)
	default:
		payload, err = a.buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *Alerter) buildSlackPayload(alert BatchAlert) ([]byte, error) {
	var failedList strings.Builder
	for _, f := range alert.FailedDetails {
		failedList.WriteString(fmt.Sprintf("• *%s*: %s\n", f.Warehouse, f.Error))
	}

	emoji := ":warning:"
	if alert.FailedCount == alert.TotalCount {
		emoji = ":x:"
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s Tariff Run Alert: %s", emoji, alert.JobName),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Status:*\n%d/%d failed", alert.FailedCount, alert.TotalCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", alert.Duration.Round(time.Millisecond))},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Success:*\n%d", alert.SuccessCount)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Run:*\n%s", alert.RunID)},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Failed Warehouses:*\n%s", failedList.String()),
				},
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildDiscordPayload(alert BatchAlert) ([]byte, error) {
	var failedList strings.Builder
	for _, f := range alert.FailedDetails {
		failedList.WriteString(fmt.Sprintf("• **%s**: %s\n", f.Warehouse, f.Error))
	}

	color := 16776960 // Yellow
	if alert.FailedCount == alert.TotalCount {
		color = 16711680 // Red
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("Tariff Run Alert: %s", alert.JobName),
				"description": fmt.Sprintf("%d/%d warehouses failed", alert.FailedCount, alert.TotalCount),
				"color":       color,
				"fields": []map[string]interface{}{
					{"name": "Success", "value": fmt.Sprintf("%d", alert.SuccessCount), "inline": true},
					{"name": "Failed", "value": fmt.Sprintf("%d", alert.FailedCount), "inline": true},
					{"name": "Duration", "value": alert.Duration.Round(time.Millisecond).String(), "inline": true},
					{"name": "Failed Warehouses", "value": failedList.String(), "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildGenericPayload(alert BatchAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":     "reconcile_run_failure",
		"job_name":       alert.JobName,
		"run_id":         alert.RunID,
		"total_count":    alert.TotalCount,
		"success_count":  alert.SuccessCount,
		"failed_count":   alert.FailedCount,
		"duration_ms":    alert.Duration.Milliseconds(),
		"timestamp":      alert.Timestamp.Format(time.RFC3339),
		"failed_details": alert.FailedDetails,
	}

	return json.Marshal(payload)
}

package alerting

import (
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailConfig configures the sendgrid alert channel.
type EmailConfig struct {
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
	FromName    string `yaml:"from_name"`
	To          string `yaml:"to"`
}

func (c EmailConfig) Enabled() bool {
	return c.APIKey != "" && c.To != ""
}

func (a *Alerter) sendEmail(alert BatchAlert) error {
	cfg := a.cfg.Email

	fromName := cfg.FromName
	if fromName == "" {
		fromName = "wbtariffs"
	}
	subject := fmt.Sprintf("[wbtariffs] %d/%d warehouses failed in run %s",
		alert.FailedCount, alert.TotalCount, alert.RunID)

	var body strings.Builder
	fmt.Fprintf(&body, "Job: %s\nRun: %s\nDuration: %s\nFailed: %d of %d\n\n",
		alert.JobName, alert.RunID, alert.Duration, alert.FailedCount, alert.TotalCount)
	for _, f := range alert.FailedDetails {
		fmt.Fprintf(&body, "- %s: %s\n", f.Warehouse, f.Error)
	}

	from := mail.NewEmail(fromName, cfg.FromAddress)
	to := mail.NewEmail("", cfg.To)
	message := mail.NewSingleEmail(from, subject, to, body.String(), "")

	client := sendgrid.NewSendClient(cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

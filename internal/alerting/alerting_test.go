package alerting

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func sampleAlert() BatchAlert {
	return BatchAlert{
		JobName:      "reconcile_tariffs",
		RunID:        "run-1",
		TotalCount:   10,
		SuccessCount: 8,
		FailedCount:  2,
		Duration:     3 * time.Second,
		FailedDetails: []WarehouseFailure{
			{Warehouse: "Koledino", Error: "write tariff for Koledino: disk full"},
			{Warehouse: "Elektrostal", Error: "tariff for Elektrostal disappeared between read and update"},
		},
		Timestamp: time.Date(2024, 11, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestSendBatchAlert_GenericWebhook(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	a := NewAlerter(Config{WebhookURL: srv.URL}, zap.NewNop())
	a.SendBatchAlert(context.Background(), sampleAlert())

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("webhook body not JSON: %v", err)
	}
	if payload["failed_count"] != float64(2) {
		t.Errorf("unexpected failed_count: %v", payload["failed_count"])
	}
	if payload["run_id"] != "run-1" {
		t.Errorf("unexpected run_id: %v", payload["run_id"])
	}
}

func TestSendBatchAlert_BelowThresholdSkips(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := NewAlerter(Config{WebhookURL: srv.URL, MinFailuresBeforeAlert: 5}, zap.NewNop())
	a.SendBatchAlert(context.Background(), sampleAlert())

	if called {
		t.Fatalf("alert sent below failure threshold")
	}
}

func TestDetectWebhookType(t *testing.T) {
	cases := map[string]string{
		"https://hooks.slack.com/services/T/B/X": "slack",
		"https://discord.com/api/webhooks/1/x":   "discord",
		"https://example.org/hook":               "generic",
	}
	for url, want := range cases {
		cfg := Config{WebhookURL: url}
		cfg.DetectWebhookType()
		if cfg.WebhookType != want {
			t.Errorf("%s: got %q, want %q", url, cfg.WebhookType, want)
		}
	}
}

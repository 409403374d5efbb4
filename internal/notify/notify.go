package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frontier912/pulsewatch/internal/models"
)

// Notifier delivers one alert to one recipient. Delivery failures are the
// transport's concern: the sweeper never retries a send.
type Notifier interface {
	Notify(ctx context.Context, recipient models.User, monitor models.Monitor, alert models.Alert) error
}

// LogNotifier writes notifications to the structured log. It is the fallback
// transport for recipients without a webhook URL and the default in dev.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, recipient models.User, monitor models.Monitor, alert models.Alert) error {
	slog.Info("alert notification",
		"recipient", recipient.Username,
		"monitor_id", monitor.ID,
		"monitor", monitor.Name,
		"alert_type", alert.AlertType,
		"message", alert.Message)
	return nil
}

// webhookPayload is the JSON body POSTed to a recipient's webhook URL.
type webhookPayload struct {
	MonitorID   int       `json:"monitor_id"`
	MonitorName string    `json:"monitor_name"`
	AlertType   string    `json:"alert_type"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// WebhookNotifier POSTs alert JSON to each recipient's webhook URL.
// Recipients without a URL fall back to the log.
type WebhookNotifier struct {
	Client *http.Client
}

// NewWebhookNotifier returns a WebhookNotifier with a 10s request timeout.
func NewWebhookNotifier() *WebhookNotifier {
	return &WebhookNotifier{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, recipient models.User, monitor models.Monitor, alert models.Alert) error {
	if recipient.WebhookURL == "" {
		return LogNotifier{}.Notify(ctx, recipient, monitor, alert)
	}

	body, err := json.Marshal(webhookPayload{
		MonitorID:   monitor.ID,
		MonitorName: monitor.Name,
		AlertType:   alert.AlertType,
		Message:     alert.Message,
		TriggeredAt: alert.TriggeredAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recipient.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s: HTTP %d", recipient.WebhookURL, resp.StatusCode)
	}
	return nil
}

// Dispatcher fans an alert out to team members asynchronously. One send per
// member, not deduplicated; a failure for one recipient never affects the
// others or the already-committed alert.
type Dispatcher struct {
	notifier Notifier
	wg       sync.WaitGroup
}

// NewDispatcher returns a Dispatcher delivering through the given Notifier.
func NewDispatcher(n Notifier) *Dispatcher {
	return &Dispatcher{notifier: n}
}

// Dispatch sends the alert to every recipient in the background and returns
// immediately. Per-recipient failures are logged, never retried. Deliveries
// outlive the caller: a sweep triggered over HTTP must not have its webhooks
// canceled when the handler returns, so cancellation is stripped from ctx
// while its values are kept.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []models.User, monitor models.Monitor, alert models.Alert) {
	ctx = context.WithoutCancel(ctx)
	for _, recipient := range recipients {
		d.wg.Add(1)
		go func(u models.User) {
			defer d.wg.Done()
			if err := d.notifier.Notify(ctx, u, monitor, alert); err != nil {
				slog.Error("notification dispatch failed",
					"recipient", u.Username,
					"monitor_id", monitor.ID,
					"alert_type", alert.AlertType,
					"error", err)
			}
		}(recipient)
	}
}

// Wait blocks until all in-flight sends finish. Used on shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

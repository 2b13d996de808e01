package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avionix/bite-engine/internal/models"
	"github.com/avionix/bite-engine/internal/utils"
)

// Webhook POSTs each fault event as JSON to an external receiver, typically
// an alerting bridge. Failed posts are retried with a short linear backoff;
// the sampling loop is never blocked longer than retries * (timeout + backoff).
type Webhook struct {
	url        string
	retries    int
	backoff    time.Duration
	httpClient *http.Client
}

// NewWebhook constructs the sink. retries counts attempts beyond the first;
// values below zero are treated as zero.
func NewWebhook(url string, retries int, timeout time.Duration) *Webhook {
	if retries < 0 {
		retries = 0
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		url:     url,
		retries: retries,
		backoff: 200 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name identifies the sink in logs and metrics.
func (w *Webhook) Name() string { return "webhook" }

// Record posts one fault event, retrying transient failures.
func (w *Webhook) Record(ctx context.Context, ev models.FaultEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return utils.NewAppError("recorder.webhook", "marshal event", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return utils.NewAppError("recorder.webhook", "post event", ctx.Err())
			case <-time.After(w.backoff):
			}
		}
		if lastErr = w.post(ctx, body); lastErr == nil {
			return nil
		}
	}
	return utils.NewAppError("recorder.webhook", "post event", lastErr)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// Package webhook delivers event notifications to retailers with bounded
// retry. Delivery is fire-and-forget: the triggering request never waits on
// it and never observes its outcome. There is no durable retry queue; after
// the retries are exhausted the failure is logged and dropped.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/authenticas/authenticas-api/internal/metrics"
	"github.com/authenticas/authenticas-api/internal/models"
)

// Config controls the retry schedule.
type Config struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// RetryDelays holds the wait before each retry. The last entry repeats
	// for any attempt beyond the table.
	RetryDelays []time.Duration

	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// DefaultConfig matches the contract: 4 attempts total, delays 1s/5s/15s,
// 10 second per-attempt timeout.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second},
		Timeout:     10 * time.Second,
	}
}

// DeliveryResult is the outcome of a delivery run, retries included.
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Attempts   int
	Err        string
}

// Target identifies the entity being notified. A nil WebhookURL makes every
// trigger a silent no-op.
type Target struct {
	ID         string
	Name       string
	WebhookURL *string
}

// Extra carries the optional budget fields some events include.
type Extra struct {
	SpentThisMonth *float64
	SpendingLimit  *float64
}

// Dispatcher posts payloads to retailer endpoints.
type Dispatcher struct {
	cfg    Config
	client *http.Client
	logger *logrus.Logger
	wg     sync.WaitGroup
}

// NewDispatcher builds a dispatcher with its own HTTP client.
func NewDispatcher(cfg Config, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger,
	}
}

// BuildPayload assembles the fixed payload shape for a transaction event.
func BuildPayload(event models.WebhookEvent, tx *models.Transaction, extra *Extra) models.WebhookPayload {
	data := models.WebhookData{
		TransactionID: &tx.ID,
		UserID:        &tx.UserID,
		CompanyID:     &tx.CompanyID,
		RetailerID:    &tx.RetailerID,
		Amount:        &tx.Amount,
		Status:        &tx.Status,
		DenialReason:  tx.DenialReason,
	}
	if extra != nil {
		data.SpentThisMonth = extra.SpentThisMonth
		data.SpendingLimit = extra.SpendingLimit
	}
	return models.WebhookPayload{
		Event:     event,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// BuildDisconnectPayload assembles the payload for a disconnect lifecycle event.
func BuildDisconnectPayload(event models.WebhookEvent, req *models.DisconnectRequest) models.WebhookPayload {
	return models.WebhookPayload{
		Event:     event,
		Timestamp: time.Now(),
		Data: models.WebhookData{
			DisconnectRequestID: &req.ID,
			CompanyID:           &req.CompanyID,
			RetailerID:          &req.RetailerID,
		},
	}
}

// Trigger posts a transaction event to the target in the background. It is a
// silent no-op when the target has no configured endpoint.
func (d *Dispatcher) Trigger(target Target, event models.WebhookEvent, tx *models.Transaction, extra *Extra) {
	d.dispatch(target, event, BuildPayload(event, tx, extra))
}

// TriggerDisconnect posts a disconnect lifecycle event to the target.
func (d *Dispatcher) TriggerDisconnect(target Target, event models.WebhookEvent, req *models.DisconnectRequest) {
	d.dispatch(target, event, BuildDisconnectPayload(event, req))
}

func (d *Dispatcher) dispatch(target Target, event models.WebhookEvent, payload models.WebhookPayload) {
	if target.WebhookURL == nil || *target.WebhookURL == "" {
		return
	}
	url := *target.WebhookURL

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		result := d.Deliver(context.Background(), url, payload)

		outcome := "delivered"
		if !result.Success {
			outcome = "failed"
			d.logger.WithFields(logrus.Fields{
				"event":    event,
				"targetId": target.ID,
				"attempts": result.Attempts,
				"status":   result.StatusCode,
				"error":    result.Err,
			}).Error("webhook delivery failed, dropping event")
		}
		metrics.WebhookDeliveriesTotal.WithLabelValues(string(event), outcome).Inc()
	}()
}

// Wait blocks until every in-flight delivery has finished. Used by shutdown
// and tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Deliver attempts the POST up to 1+MaxRetries times. A 2xx response is
// success; every other status, timeout or transport error counts as a failed
// attempt.
func (d *Dispatcher) Deliver(ctx context.Context, url string, payload models.WebhookPayload) DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{Err: fmt.Sprintf("encode payload: %v", err), Attempts: 1}
	}

	result := DeliveryResult{}
	for attempt := 0; attempt <= d.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := d.retryDelay(attempt)
			d.logger.WithFields(logrus.Fields{
				"url":     url,
				"event":   payload.Event,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("webhook retry scheduled")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				result.Err = ctx.Err().Error()
				result.Attempts = attempt
				return result
			}
		}

		result.Attempts = attempt + 1
		statusCode, attemptErr := d.post(ctx, url, payload, body)
		if statusCode != 0 {
			result.StatusCode = statusCode
		}

		if attemptErr == nil && statusCode >= 200 && statusCode < 300 {
			result.Success = true
			result.Err = ""
			return result
		}

		if attemptErr != nil {
			result.Err = attemptErr.Error()
		} else {
			result.Err = fmt.Sprintf("HTTP %d", statusCode)
		}
	}

	return result
}

// retryDelay returns the wait before the given retry; the last table entry
// repeats when attempts run past it.
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	if len(d.cfg.RetryDelays) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(d.cfg.RetryDelays) {
		idx = len(d.cfg.RetryDelays) - 1
	}
	return d.cfg.RetryDelays[idx]
}

func (d *Dispatcher) post(ctx context.Context, url string, payload models.WebhookPayload, body []byte) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", string(payload.Event))
	req.Header.Set("X-Webhook-Timestamp", payload.Timestamp.Format(time.RFC3339))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

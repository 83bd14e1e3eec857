package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/models"
)

func newTestDispatcher() *Dispatcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewDispatcher(Config{
		MaxRetries:  3,
		RetryDelays: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		Timeout:     time.Second,
	}, logger)
}

func samplePayload() models.WebhookPayload {
	tx := models.Transaction{
		ID:         "tx1",
		UserID:     "u1",
		CompanyID:  "c1",
		RetailerID: "r1",
		Amount:     42.5,
		Status:     models.TransactionApproved,
	}
	return BuildPayload(models.EventPurchaseApproved, &tx, nil)
}

func TestDeliverSucceedsOnFirstAttempt(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []*http.Request
		bodies   [][]byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, r)
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newTestDispatcher()
	result := d.Deliver(context.Background(), server.URL, samplePayload())

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 1)
	assert.Equal(t, "application/json", requests[0].Header.Get("Content-Type"))
	assert.Equal(t, "purchase.approved", requests[0].Header.Get("X-Webhook-Event"))
	assert.NotEmpty(t, requests[0].Header.Get("X-Webhook-Timestamp"))

	var payload models.WebhookPayload
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	assert.Equal(t, models.EventPurchaseApproved, payload.Event)
	require.NotNil(t, payload.Data.TransactionID)
	assert.Equal(t, "tx1", *payload.Data.TransactionID)
}

func TestDeliverRetriesUntilSuccess(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := newTestDispatcher()
	result := d.Deliver(context.Background(), server.URL, samplePayload())

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, http.StatusNoContent, result.StatusCode)
}

func TestDeliverGivesUpAfterRetriesExhausted(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := newTestDispatcher()
	result := d.Deliver(context.Background(), server.URL, samplePayload())

	assert.False(t, result.Success)
	assert.Equal(t, 4, result.Attempts)
	assert.Equal(t, "HTTP 502", result.Err)

	mu.Lock()
	assert.Equal(t, 4, calls)
	mu.Unlock()
}

func TestTriggerIsNoOpWithoutURL(t *testing.T) {
	d := newTestDispatcher()
	tx := models.Transaction{ID: "tx1", Status: models.TransactionApproved}

	d.Trigger(Target{ID: "r1", Name: "No Hook"}, models.EventPurchaseApproved, &tx, nil)
	empty := ""
	d.Trigger(Target{ID: "r1", Name: "No Hook", WebhookURL: &empty}, models.EventPurchaseApproved, &tx, nil)
	d.Wait()
}

func TestTriggerDeliversInBackground(t *testing.T) {
	var mu sync.Mutex
	var events []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		events = append(events, r.Header.Get("X-Webhook-Event"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := newTestDispatcher()
	reason := models.ReasonLimitExceeded
	tx := models.Transaction{ID: "tx1", Status: models.TransactionDenied, DenialReason: &reason}
	target := Target{ID: "r1", Name: "Hooked", WebhookURL: &server.URL}

	d.Trigger(target, models.EventPurchaseDenied, &tx, nil)
	d.Trigger(target, models.EventLimitExceeded, &tx, nil)
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"purchase.denied", "limit.exceeded"}, events)
}

func TestBuildDisconnectPayload(t *testing.T) {
	request := models.DisconnectRequest{ID: "d1", CompanyID: "c1", RetailerID: "r1"}
	payload := BuildDisconnectPayload(models.EventDisconnectRequested, &request)

	assert.Equal(t, models.EventDisconnectRequested, payload.Event)
	require.NotNil(t, payload.Data.DisconnectRequestID)
	assert.Equal(t, "d1", *payload.Data.DisconnectRequestID)
	require.NotNil(t, payload.Data.CompanyID)
	assert.Equal(t, "c1", *payload.Data.CompanyID)
	assert.Nil(t, payload.Data.TransactionID)
}

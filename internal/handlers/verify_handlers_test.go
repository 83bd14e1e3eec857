package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticas/authenticas-api/internal/audit"
	"github.com/authenticas/authenticas-api/internal/engine"
	"github.com/authenticas/authenticas-api/internal/ledger"
	"github.com/authenticas/authenticas-api/internal/links"
	"github.com/authenticas/authenticas-api/internal/middleware"
	"github.com/authenticas/authenticas-api/internal/models"
	"github.com/authenticas/authenticas-api/internal/store"
	"github.com/authenticas/authenticas-api/internal/webhook"
)

const testAPIKey = "ak_0000000000000000000000000000000000000000000000000000000000000000"

// newVerifyServer builds a gin engine with only the verification endpoint,
// guarded by the token-or-API-key middleware, over seeded records.
func newVerifyServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	recorder := audit.NewRecorder(s, logger)
	spendLedger := ledger.NewLedger(s, recorder, logger)
	registry := links.NewRegistry(s)
	dispatcher := webhook.NewDispatcher(webhook.Config{Timeout: time.Second}, logger)

	h := &Handlers{
		Store:     s,
		Logger:    logger,
		JWTSecret: []byte("test-secret"),
		Engine:    engine.NewEngine(s, registry, spendLedger, recorder, dispatcher, logger),
		Links:     registry,
		Ledger:    spendLedger,
		Audit:     recorder,
	}

	companyID := "c1"
	require.NoError(t, store.Append(s, store.Retailers, models.Retailer{
		ID: "r1", Name: "Shop", APIKey: testAPIKey, IsActive: true,
	}))
	require.NoError(t, store.Append(s, store.Companies, models.Company{
		ID: "c1", Name: "Acme", APIKey: "ak_other", IsActive: true,
	}))
	require.NoError(t, store.Append(s, store.Users, models.User{
		ID:            "u1",
		Email:         "u1@example.com",
		CompanyID:     &companyID,
		Role:          models.RoleCompanyUser,
		SpendingLimit: 300,
		LastResetDate: time.Now(),
		IsActive:      true,
	}))
	_, err = registry.Create("c1", "r1")
	require.NoError(t, err)

	router := gin.New()
	router.POST("/verifyPurchase", middleware.AuthAny(h.JWTSecret, s), h.VerifyPurchase)
	return router
}

func postVerify(t *testing.T, router *gin.Engine, apiKey string, body map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/verifyPurchase", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	return w, decoded
}

func TestVerifyPurchaseRequiresCredentials(t *testing.T) {
	router := newVerifyServer(t)

	w, _ := postVerify(t, router, "", map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": 50,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = postVerify(t, router, "ak_bogus", map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": 50,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyPurchaseApprovedBody(t *testing.T) {
	router := newVerifyServer(t)

	w, body := postVerify(t, router, testAPIKey, map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": 50,
	})

	require.Equal(t, http.StatusOK, w.Code)
	// Flat body, no success envelope.
	assert.NotContains(t, body, "success")
	assert.NotContains(t, body, "data")
	assert.Equal(t, "approved", body["status"])
	assert.NotEmpty(t, body["transactionId"])
	assert.Equal(t, 50.0, body["spentThisMonth"])
	assert.Equal(t, 300.0, body["spendingLimit"])
	assert.Equal(t, 250.0, body["remainingBudget"])
}

func TestVerifyPurchaseStatusMapping(t *testing.T) {
	router := newVerifyServer(t)

	cases := []struct {
		name   string
		body   map[string]any
		code   int
		reason string
	}{
		{
			"unknown retailer",
			map[string]any{"userId": "u1", "companyId": "c1", "retailerId": "nope", "amount": 10},
			http.StatusNotFound, "retailer_not_found",
		},
		{
			"unknown company",
			map[string]any{"userId": "u1", "companyId": "nope", "retailerId": "r1", "amount": 10},
			http.StatusNotFound, "company_not_found",
		},
		{
			"unknown user",
			map[string]any{"userId": "nope", "companyId": "c1", "retailerId": "r1", "amount": 10},
			http.StatusNotFound, "user_not_found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := postVerify(t, router, testAPIKey, tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Equal(t, "denied", body["status"])
			assert.Equal(t, tc.reason, body["reason"])
			assert.NotContains(t, body, "spendingLimit")
		})
	}
}

func TestVerifyPurchaseLimitExceededBody(t *testing.T) {
	router := newVerifyServer(t)

	// First purchase eats most of the budget, the second trips the limit.
	w, _ := postVerify(t, router, testAPIKey, map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": 280,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := postVerify(t, router, testAPIKey, map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": 100,
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "denied", body["status"])
	assert.Equal(t, "limit_exceeded", body["reason"])
	assert.Equal(t, 280.0, body["spentThisMonth"])
	assert.Equal(t, 300.0, body["spendingLimit"])
	assert.Equal(t, 20.0, body["remainingBudget"])
}

func TestVerifyPurchaseValidation(t *testing.T) {
	router := newVerifyServer(t)

	w, body := postVerify(t, router, testAPIKey, map[string]any{
		"userId": "u1", "companyId": "c1", "retailerId": "r1", "amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body, "error")

	w, _ = postVerify(t, router, testAPIKey, map[string]any{
		"companyId": "c1", "retailerId": "r1", "amount": 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

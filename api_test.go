//go:build api

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Eursukkul/stay-booking/internal/webhook"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live service: SERVICE_URL (default http://localhost:8082)
// and the WEBHOOK_SECRET that service was started with.

func serviceURL() string {
	if v := os.Getenv("SERVICE_URL"); v != "" {
		return v
	}
	return "http://localhost:8082"
}

func TestAPI_WebhookFlow(t *testing.T) {
	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		t.Skip("WEBHOOK_SECRET not set")
	}
	waitForService(t)
	signer := webhook.NewVerifier(secret, 0)

	webhookID := "wh-" + uuid.NewString()
	body := []byte(`{"type":"Transaction.Paid","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `","data":{"paymentId":"unknown-` + uuid.NewString() + `"}}`)

	t.Run("unknown payment is acknowledged", func(t *testing.T) {
		resp := postWebhook(t, signer, webhookID, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", decodeStatus(t, resp))
	})

	t.Run("redelivery is a duplicate", func(t *testing.T) {
		resp := postWebhook(t, signer, webhookID, body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "duplicate", decodeStatus(t, resp))
	})

	t.Run("tampered body is rejected", func(t *testing.T) {
		req := newWebhookRequest(t, signer, "wh-"+uuid.NewString(), body)
		req.Body = http.NoBody
		req.ContentLength = 0
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown guest token", func(t *testing.T) {
		resp, err := http.Get(serviceURL() + "/api/v1/bookings/" + uuid.NewString())
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func waitForService(t *testing.T) {
	t.Helper()
	for i := 0; i < 30; i++ {
		resp, err := http.Get(serviceURL() + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatal("service did not become ready in time")
}

func newWebhookRequest(t *testing.T, signer *webhook.Verifier, id string, body []byte) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, serviceURL()+"/webhooks/portone", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.HeaderID, id)
	req.Header.Set(webhook.HeaderTimestamp, ts)
	req.Header.Set(webhook.HeaderSignature, "v1,"+signer.Sign(id, ts, body))
	return req
}

func postWebhook(t *testing.T, signer *webhook.Verifier, id string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(newWebhookRequest(t, signer, id, body))
	require.NoError(t, err)
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var out struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Status
}

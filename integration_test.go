package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"schoollicense.app/renewal/handlers"
	"schoollicense.app/renewal/internal/app"
	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/renewal"
	"schoollicense.app/renewal/models"
	"schoollicense.app/renewal/storage"
)

// Integration tests that drive complete workflows end-to-end over HTTP
// against a real SQLite store.

const (
	integrationSecret       = "flw-integration-secret"
	integrationStripeSecret = "whsec_integration"
)

func setupIntegration(t *testing.T) (*app.App, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", config.DriverSQLite)
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "licenses.sqlite"))
	t.Setenv("FLW_SECRET_HASH", integrationSecret)
	t.Setenv("STRIPE_WEBHOOK_SECRET", integrationStripeSecret)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MANUAL_RATE_LIMIT", "100")

	cfg, err := config.New()
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(`[
		{"schoolCode":"GREEN01","schoolName":"Greenfield Academy","expiryDate":"2020-01-01T00:00:00Z","isActive":false},
		{"schoolCode":"RIVER02","schoolName":"Riverside College","expiryDate":"2099-06-01T00:00:00Z","isActive":true}
	]`), 0o600))
	records, err := readSeedFile(seedPath)
	require.NoError(t, err)
	n, err := seed(context.Background(), a.Store, records)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	server := httptest.NewServer(handlers.NewHttpServer(cfg, a.Store, a.Service))
	t.Cleanup(server.Close)
	return a, server
}

func post(t *testing.T, url string, body []byte, headers map[string]string) (int, renewal.Response) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out renewal.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func findLicense(t *testing.T, st storage.Store, code string) *models.LicenseRecord {
	t.Helper()
	license, err := st.FindBySchoolCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, license)
	return license
}

func TestFullWorkflow_GatewayWebhookRenewsExpiredLicense(t *testing.T) {
	a, server := setupIntegration(t)
	before := time.Now().UTC()

	body := []byte(`{"status":"successful","amount":"50000","txRef":"flw-1","meta":{"schoolCode":"GREEN01"}}`)
	status, resp := post(t, server.URL+"/", body, map[string]string{"verif-hash": integrationSecret})

	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, "Sessional", resp.Plan)

	// Expired licenses extend from now.
	license := findLicense(t, a.Store, "GREEN01")
	assert.True(t, license.IsActive)
	assert.False(t, license.ExpiryDate.Before(before.AddDate(1, 0, 0).Add(-time.Minute)))
	assert.Equal(t, "Greenfield Academy", license.SchoolName)
}

func TestFullWorkflow_ManualRenewalExtendsActiveLicense(t *testing.T) {
	a, server := setupIntegration(t)

	body, err := manualBody("RIVER02", "Termly", 0, false)
	require.NoError(t, err)
	status, resp := post(t, server.URL+"/api/v1/renewals", body, nil)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Termly", resp.Plan)
	license := findLicense(t, a.Store, "RIVER02")
	assert.True(t, license.ExpiryDate.Equal(time.Date(2099, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFullWorkflow_StripeCheckout(t *testing.T) {
	a, server := setupIntegration(t)

	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_integration",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{"object": map[string]interface{}{
			"id":             "cs_integration",
			"payment_status": "paid",
			"amount_total":   2000000,
			"metadata":       map[string]string{"schoolCode": "RIVER02"},
		}},
	})
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    integrationStripeSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	status, resp := post(t, server.URL+"/api/v1/webhooks/stripe", signed.Payload, map[string]string{
		"Stripe-Signature": signed.Header,
	})

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Termly", resp.Plan)
	license := findLicense(t, a.Store, "RIVER02")
	assert.True(t, license.ExpiryDate.Equal(time.Date(2099, 10, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFullWorkflow_RejectedTriggersLeaveStoreUntouched(t *testing.T) {
	a, server := setupIntegration(t)
	original := findLicense(t, a.Store, "GREEN01")

	status, _ := post(t, server.URL+"/", []byte(`{"status":"successful","amount":50000,"meta":{"schoolCode":"GREEN01"}}`),
		map[string]string{"verif-hash": "forged"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := post(t, server.URL+"/", []byte(`{"status":"failed","amount":50000,"meta":{"schoolCode":"GREEN01"}}`),
		map[string]string{"verif-hash": integrationSecret})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)

	status, _ = post(t, server.URL+"/", []byte(`{"schoolCode":"UNKNOWN"}`), nil)
	assert.Equal(t, http.StatusNotFound, status)

	license := findLicense(t, a.Store, "GREEN01")
	assert.True(t, license.ExpiryDate.Equal(original.ExpiryDate))
	assert.False(t, license.IsActive)
}

func TestSeedRejectsHostedStore(t *testing.T) {
	st := storage.NewAppwriteStorage(storage.AppwriteConfig{Endpoint: "http://127.0.0.1:1/v1"})

	_, err := seed(context.Background(), st, []models.LicenseRecord{{SchoolCode: "X"}})
	assert.Error(t, err)
}

func TestReadSeedFileErrors(t *testing.T) {
	_, err := readSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600))
	_, err = readSeedFile(path)
	assert.Error(t, err)
}

func TestManualBody(t *testing.T) {
	body, err := manualBody("SCH001", "Sessional", 0, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schoolCode":"SCH001","plan":"Sessional"}`, string(body))

	body, err = manualBody("SCH001", "Sessional", 15000, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schoolCode":"SCH001","plan":"Sessional","amount":15000}`, string(body))

	body, err = manualBody("SCH001", "", 0, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schoolCode":"SCH001"}`, string(body))
}

func TestRenewCommandPlanDefault(t *testing.T) {
	flag := renewCmd.Flags().Lookup("plan")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)

	body, err := manualBody("SCH001", flag.DefValue, 0, false)
	require.NoError(t, err)
	r, err := renewal.Normalize(renewal.OriginManual, body)
	require.NoError(t, err)
	assert.Equal(t, renewal.TierTermly, renewal.ClassifyTier(r.AmountPaid))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "license-renewal "))
}

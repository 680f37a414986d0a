package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"schoollicense.app/renewal/models"
	"schoollicense.app/renewal/storage"
)

// Now is the fixed clock most renewal tests run against.
var Now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// CreateTestLicense creates an inactive license with the given expiry.
func CreateTestLicense(id, schoolCode string, expiry time.Time) models.LicenseRecord {
	return models.LicenseRecord{
		ID:           id,
		SchoolCode:   schoolCode,
		SchoolName:   "School " + schoolCode,
		ContactEmail: strings.ToLower(schoolCode) + "@example.com",
		ExpiryDate:   expiry,
		IsActive:     false,
	}
}

// TestStorage returns a memory store holding the given licenses.
func TestStorage(t testing.TB, licenses ...models.LicenseRecord) *storage.MemoryStorage {
	t.Helper()
	st := storage.NewMemoryStorage()
	for i := range licenses {
		if err := st.SaveLicense(context.Background(), &licenses[i]); err != nil {
			t.Fatalf("failed to save license %s: %v", licenses[i].SchoolCode, err)
		}
	}
	return st
}

// SetupTestData returns a store with one expired, one active and one
// soon-to-expire school relative to Now.
func SetupTestData(t testing.TB) *storage.MemoryStorage {
	t.Helper()
	return TestStorage(t,
		CreateTestLicense("license1", "SCH001", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		CreateTestLicense("license2", "SCH002", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		CreateTestLicense("license3", "SCH003", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)),
	)
}

// GatewayPayload builds a payment gateway notification body.
func GatewayPayload(t testing.TB, status, schoolCode string, amount interface{}) []byte {
	t.Helper()
	return mustJSON(t, map[string]interface{}{
		"id":     1234567,
		"txRef":  "tx-" + schoolCode,
		"status": status,
		"amount": amount,
		"meta":   map[string]interface{}{"schoolCode": schoolCode},
	})
}

// ManualPayload builds a manual renewal body. A nil amount is omitted.
func ManualPayload(t testing.TB, schoolCode, plan string, amount interface{}) []byte {
	t.Helper()
	body := map[string]interface{}{
		"schoolCode": schoolCode,
		"plan":       plan,
	}
	if amount != nil {
		body["amount"] = amount
	}
	return mustJSON(t, body)
}

func mustJSON(t testing.TB, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return b
}

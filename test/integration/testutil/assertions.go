//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// StoredScore reads the persisted value score of an offer.
func StoredScore(t *testing.T, env *TestEnv, offerID uuid.UUID) float64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var score float64
	err := env.Pool.QueryRow(ctx,
		"SELECT value_score::float8 FROM offers WHERE id = $1", offerID).Scan(&score)
	if err != nil {
		t.Fatalf("StoredScore: %v", err)
	}
	return score
}

// OutboxEventTypes returns the event types written for an offer, oldest first.
func OutboxEventTypes(t *testing.T, env *TestEnv, offerID uuid.UUID) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		`SELECT "eventType" FROM event_outbox WHERE "aggregateId" = $1 ORDER BY id`, offerID.String())
	if err != nil {
		t.Fatalf("OutboxEventTypes: %v", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var et string
		if err := rows.Scan(&et); err != nil {
			t.Fatalf("OutboxEventTypes: scan: %v", err)
		}
		types = append(types, et)
	}
	return types
}

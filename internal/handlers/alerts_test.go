package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assetwatch/internal/alerts"
	"assetwatch/internal/handlers"
	"assetwatch/internal/models"
	"assetwatch/internal/notify"
	"assetwatch/internal/storage"
)

func newAlertsHandler(t *testing.T) (*handlers.AlertsHandler, *storage.MemoryRepository) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	dispatcher := notify.NewDispatcher(notify.Config{})
	manager := alerts.NewManager(repo, dispatcher)
	return handlers.NewAlertsHandler(manager), repo
}

func saveAlert(t *testing.T, repo *storage.MemoryRepository, id string, status models.AlertStatus) {
	t.Helper()
	alert := &models.Alert{
		ID:        id,
		AssetID:   "press-01",
		Title:     "Seeded alert",
		Severity:  models.SeverityHigh,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveAlert(context.Background(), alert); err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}
}

func TestAcknowledgeEndpoint(t *testing.T) {
	h, repo := newAlertsHandler(t)
	saveAlert(t, repo, "a-1", models.AlertOpen)
	saveAlert(t, repo, "a-2", models.AlertResolved)

	body := `{"ids":["a-1","a-2","missing"]}`
	req := httptest.NewRequest(http.MethodPost, "/alerts/acknowledge", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Acknowledge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["acknowledged"] != 1 {
		t.Errorf("acknowledged = %d, want 1", resp["acknowledged"])
	}
}

func TestAcknowledgeEndpointValidation(t *testing.T) {
	h, _ := newAlertsHandler(t)

	tests := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid JSON", http.MethodPost, `{not json`, http.StatusBadRequest},
		{"empty ids", http.MethodPost, `{"ids":[]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/alerts/acknowledge", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Acknowledge(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	h, repo := newAlertsHandler(t)
	saveAlert(t, repo, "a-1", models.AlertAcknowledged)

	body := `{"id":"a-1","resolved_by":"operator","notes":"replaced the bearing"}`
	req := httptest.NewRequest(http.MethodPost, "/alerts/resolve", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var alert models.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &alert); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if alert.Status != models.AlertResolved {
		t.Errorf("status = %s, want resolved", alert.Status)
	}
	if alert.ResolvedBy != "operator" {
		t.Errorf("resolved_by = %q, want operator", alert.ResolvedBy)
	}
}

func TestResolveEndpointNotFound(t *testing.T) {
	h, _ := newAlertsHandler(t)

	body := `{"id":"missing","resolved_by":"operator"}`
	req := httptest.NewRequest(http.MethodPost, "/alerts/resolve", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestResolveEndpointMissingID(t *testing.T) {
	h, _ := newAlertsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/alerts/resolve", bytes.NewBufferString(`{"resolved_by":"operator"}`))
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

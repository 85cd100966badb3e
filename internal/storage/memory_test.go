package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"assetwatch/internal/models"
	"assetwatch/internal/storage"
)

func TestAssetRoundTrip(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.GetAsset(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound", err)
	}

	asset := &models.Asset{ID: "press-01", Name: "Hydraulic Press", Status: models.StatusActive}
	if err := repo.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("SaveAsset failed: %v", err)
	}

	got, err := repo.GetAsset(ctx, "press-01")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.Name != "Hydraulic Press" {
		t.Errorf("name = %q", got.Name)
	}

	// The stored copy must be isolated from later mutation
	asset.Name = "mutated"
	got2, _ := repo.GetAsset(ctx, "press-01")
	if got2.Name != "Hydraulic Press" {
		t.Error("repository should store a copy, not share the caller's pointer")
	}
}

func TestGetPreviousMetricReturnsLatest(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := repo.GetPreviousMetric(ctx, "press-01", models.MetricTemperature); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound for an empty series", err)
	}

	// Out-of-order writes; the latest timestamp must win
	values := []struct {
		value  float64
		offset time.Duration
	}{
		{70, -3 * time.Hour},
		{75, -time.Hour},
		{72, -2 * time.Hour},
	}
	for _, v := range values {
		s := &models.Sample{
			AssetID:   "press-01",
			Kind:      models.MetricTemperature,
			Value:     v.value,
			Timestamp: now.Add(v.offset),
		}
		if err := repo.SaveMetric(ctx, s); err != nil {
			t.Fatalf("SaveMetric failed: %v", err)
		}
	}

	latest, err := repo.GetPreviousMetric(ctx, "press-01", models.MetricTemperature)
	if err != nil {
		t.Fatalf("GetPreviousMetric failed: %v", err)
	}
	if latest.Value != 75 {
		t.Errorf("latest value = %v, want 75", latest.Value)
	}

	// Series are keyed per asset and kind
	if _, err := repo.GetPreviousMetric(ctx, "press-01", models.MetricVibration); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound for a different kind", err)
	}
	if _, err := repo.GetPreviousMetric(ctx, "press-02", models.MetricTemperature); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound for a different asset", err)
	}
}

func TestListAssetsWithUpcomingMaintenance(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(id string, status models.AssetStatus, next *time.Time) {
		asset := &models.Asset{ID: id, Status: status, NextMaintenanceDate: next}
		if err := repo.SaveAsset(ctx, asset); err != nil {
			t.Fatalf("SaveAsset failed: %v", err)
		}
	}
	in2d := now.AddDate(0, 0, 2)
	in10d := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -1)

	seed("inside-horizon", models.StatusActive, &in2d)
	seed("overdue", models.StatusActive, &past)
	seed("outside-horizon", models.StatusActive, &in10d)
	seed("inactive", models.StatusInactive, &in2d)
	seed("no-schedule", models.StatusActive, nil)

	assets, err := repo.ListAssetsWithUpcomingMaintenance(ctx, now, 7)
	if err != nil {
		t.Fatalf("ListAssetsWithUpcomingMaintenance failed: %v", err)
	}

	got := map[string]bool{}
	for _, a := range assets {
		got[a.ID] = true
	}
	if len(got) != 2 || !got["inside-horizon"] || !got["overdue"] {
		t.Errorf("listed assets = %v, want inside-horizon and overdue", got)
	}
}

func TestListActiveAlerts(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(id string, assetID string, status models.AlertStatus, createdAt time.Time) {
		alert := &models.Alert{ID: id, AssetID: assetID, Status: status, CreatedAt: createdAt}
		if err := repo.SaveAlert(ctx, alert); err != nil {
			t.Fatalf("SaveAlert failed: %v", err)
		}
	}

	seed("open-recent", "press-01", models.AlertOpen, now.Add(-time.Hour))
	seed("ack-recent", "press-01", models.AlertAcknowledged, now.Add(-2*time.Hour))
	seed("resolved-recent", "press-01", models.AlertResolved, now.Add(-time.Hour))
	seed("open-stale", "press-01", models.AlertOpen, now.Add(-10*24*time.Hour))
	seed("open-other-asset", "press-02", models.AlertOpen, now.Add(-time.Hour))

	alerts, err := repo.ListActiveAlerts(ctx, "press-01", now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListActiveAlerts failed: %v", err)
	}

	got := map[string]bool{}
	for _, a := range alerts {
		got[a.ID] = true
	}
	if len(got) != 2 || !got["open-recent"] || !got["ack-recent"] {
		t.Errorf("listed alerts = %v, want open-recent and ack-recent", got)
	}
}

func TestDeleteAlert(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()

	if err := repo.DeleteAlert(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want storage.ErrNotFound", err)
	}

	alert := &models.Alert{ID: "a-1", AssetID: "press-01", Status: models.AlertOpen}
	if err := repo.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("SaveAlert failed: %v", err)
	}
	if err := repo.DeleteAlert(ctx, "a-1"); err != nil {
		t.Fatalf("DeleteAlert failed: %v", err)
	}
	if _, err := repo.GetAlert(ctx, "a-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("alert should be gone, got %v", err)
	}
}

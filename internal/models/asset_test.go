package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"assetwatch/internal/models"
)

func TestAssetStatusIsValid(t *testing.T) {
	valid := []models.AssetStatus{
		models.StatusActive,
		models.StatusInactive,
		models.StatusMaintenance,
		models.StatusFailed,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if models.AssetStatus("decommissioned").IsValid() {
		t.Error("unknown status should be invalid")
	}
}

func TestMaintenanceOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		next *time.Time
		want bool
	}{
		{"no schedule", nil, false},
		{"past date", &past, true},
		{"future date", &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset := &models.Asset{NextMaintenanceDate: tt.next}
			if got := asset.MaintenanceOverdue(now); got != tt.want {
				t.Errorf("MaintenanceOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurrentValueFinancial(t *testing.T) {
	now := time.Now().UTC()
	current := decimal.NewFromFloat(150.50)
	purchase := decimal.NewFromInt(120)

	t.Run("current price times quantity", func(t *testing.T) {
		asset := &models.Asset{
			Type:         models.AssetFinancial,
			CurrentPrice: &current,
			Quantity:     10,
		}
		want := decimal.NewFromInt(1505)
		if got := asset.CurrentValue(now); !got.Equal(want) {
			t.Errorf("value = %s, want %s", got, want)
		}
	})

	t.Run("falls back to purchase price", func(t *testing.T) {
		asset := &models.Asset{
			Type:          models.AssetFinancial,
			PurchasePrice: &purchase,
			Quantity:      5,
		}
		want := decimal.NewFromInt(600)
		if got := asset.CurrentValue(now); !got.Equal(want) {
			t.Errorf("value = %s, want %s", got, want)
		}
	})

	t.Run("no price or quantity", func(t *testing.T) {
		asset := &models.Asset{Type: models.AssetFinancial, CurrentPrice: &current}
		if got := asset.CurrentValue(now); !got.Equal(decimal.Zero) {
			t.Errorf("value = %s, want 0", got)
		}
	})
}

func TestCurrentValueManufacturing(t *testing.T) {
	now := time.Now().UTC()

	t.Run("default age factor without installation date", func(t *testing.T) {
		asset := &models.Asset{Type: models.AssetManufacturing, HealthScore: 100}
		// 100000 * 1.0 * 0.7
		want := decimal.NewFromInt(70000)
		if got := asset.CurrentValue(now); !got.Equal(want) {
			t.Errorf("value = %s, want %s", got, want)
		}
	})

	t.Run("health scales the value", func(t *testing.T) {
		asset := &models.Asset{Type: models.AssetManufacturing, HealthScore: 50}
		want := decimal.NewFromInt(35000)
		if got := asset.CurrentValue(now); !got.Equal(want) {
			t.Errorf("value = %s, want %s", got, want)
		}
	})

	t.Run("old machines bottom out at the minimum age factor", func(t *testing.T) {
		installed := now.AddDate(-20, 0, 0)
		asset := &models.Asset{
			Type:             models.AssetManufacturing,
			HealthScore:      100,
			InstallationDate: &installed,
		}
		// 100000 * 1.0 * 0.1
		want := decimal.NewFromInt(10000)
		if got := asset.CurrentValue(now); !got.Equal(want) {
			t.Errorf("value = %s, want %s", got, want)
		}
	})
}

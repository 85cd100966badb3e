package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetType distinguishes the two monitored fleets
type AssetType string

const (
	AssetFinancial     AssetType = "financial"
	AssetManufacturing AssetType = "manufacturing"
)

// AssetStatus is the coarse operational state of an asset
type AssetStatus string

const (
	StatusActive      AssetStatus = "active"
	StatusInactive    AssetStatus = "inactive"
	StatusMaintenance AssetStatus = "maintenance"
	StatusFailed      AssetStatus = "failed"
)

// IsValid checks if the asset status is valid
func (s AssetStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMaintenance, StatusFailed:
		return true
	default:
		return false
	}
}

// Asset represents one monitored financial instrument or manufacturing unit.
// HealthScore and Status are derived exclusively by the health scorer; no
// other component writes them.
type Asset struct {
	ID          string      `json:"id" bson:"_id"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Type        AssetType   `json:"asset_type" bson:"asset_type"`
	Status      AssetStatus `json:"status" bson:"status"`
	Location    string      `json:"location,omitempty" bson:"location,omitempty"`

	// Financial asset fields
	Symbol        string           `json:"symbol,omitempty" bson:"symbol,omitempty"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty" bson:"current_price,omitempty"`
	Quantity      int64            `json:"quantity,omitempty" bson:"quantity,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty" bson:"purchase_price,omitempty"`

	// Manufacturing asset fields
	Model               string     `json:"model,omitempty" bson:"model,omitempty"`
	SerialNumber        string     `json:"serial_number,omitempty" bson:"serial_number,omitempty"`
	InstallationDate    *time.Time `json:"installation_date,omitempty" bson:"installation_date,omitempty"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date,omitempty" bson:"last_maintenance_date,omitempty"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date,omitempty" bson:"next_maintenance_date,omitempty"`

	// Derived fitness indicator, always in [0,100]
	HealthScore float64 `json:"health_score" bson:"health_score"`

	Tags      map[string]string      `json:"tags,omitempty" bson:"tags,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" bson:"updated_at"`
}

// MaintenanceOverdue reports whether the asset's next maintenance date has
// passed. Always false for assets without a schedule.
func (a *Asset) MaintenanceOverdue(now time.Time) bool {
	return a.NextMaintenanceDate != nil && a.NextMaintenanceDate.Before(now)
}

// Manufacturing asset valuation constants
const (
	baseManufacturingValue = 100000
	yearlyDepreciation     = 0.1
	minAgeFactor           = 0.1
	defaultAgeFactor       = 0.7
)

// CurrentValue calculates the present value of an asset. Financial assets
// are valued at current (or purchase) price times quantity; manufacturing
// assets depreciate from a base value by health score and age.
func (a *Asset) CurrentValue(now time.Time) decimal.Decimal {
	if a.Type == AssetFinancial {
		qty := decimal.NewFromInt(a.Quantity)
		if a.CurrentPrice != nil && a.Quantity > 0 {
			return a.CurrentPrice.Mul(qty)
		}
		if a.PurchasePrice != nil && a.Quantity > 0 {
			return a.PurchasePrice.Mul(qty)
		}
		return decimal.Zero
	}

	healthFactor := decimal.NewFromFloat(a.HealthScore / 100)

	ageFactor := decimal.NewFromFloat(defaultAgeFactor)
	if a.InstallationDate != nil {
		years := now.Sub(*a.InstallationDate).Hours() / (24 * 365)
		factor := 1 - years*yearlyDepreciation
		if factor < minAgeFactor {
			factor = minAgeFactor
		}
		ageFactor = decimal.NewFromFloat(factor)
	}

	return decimal.NewFromInt(baseManufacturingValue).Mul(healthFactor).Mul(ageFactor)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assetwatch/internal/models"
)

// ErrNotFound is returned when a referenced asset, alert, or metric does
// not exist.
var ErrNotFound = errors.New("not found")

// StorageError wraps an underlying persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Repository is the persistence boundary consumed by the monitoring core.
// Implementations return ErrNotFound for missing entities and StorageError
// for underlying persistence failures.
type Repository interface {
	GetAsset(ctx context.Context, id string) (*models.Asset, error)
	SaveAsset(ctx context.Context, asset *models.Asset) error
	// ListAssetsWithUpcomingMaintenance returns active assets whose next
	// maintenance date falls on or before now plus the horizon. Overdue
	// assets are included.
	ListAssetsWithUpcomingMaintenance(ctx context.Context, now time.Time, horizonDays int) ([]models.Asset, error)

	SaveMetric(ctx context.Context, sample *models.Sample) error
	// GetPreviousMetric returns the most recent stored sample of the given
	// kind for the asset, or ErrNotFound when none exists.
	GetPreviousMetric(ctx context.Context, assetID string, kind models.MetricKind) (*models.Sample, error)

	SaveAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id string) error
	// ListActiveAlerts returns open and acknowledged alerts for the asset
	// created at or after since.
	ListActiveAlerts(ctx context.Context, assetID string, since time.Time) ([]models.Alert, error)

	Close(ctx context.Context) error
}

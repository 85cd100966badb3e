package thresholds

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"assetwatch/internal/models"
)

// Threshold holds the boundary values for one metric kind. Bounded numeric
// kinds use Min/Max/Critical; price-like kinds use the percentage-change
// bounds instead.
type Threshold struct {
	Min      *float64 `yaml:"min"`
	Max      *float64 `yaml:"max"`
	Critical *float64 `yaml:"critical"`

	ChangePercent  *float64 `yaml:"change_percent"`
	CriticalChange *float64 `yaml:"critical_change"`
}

// PercentChange reports whether this threshold is evaluated as a
// percentage-change series rather than an absolute bound.
func (t Threshold) PercentChange() bool {
	return t.ChangePercent != nil || t.CriticalChange != nil
}

// Table maps metric kinds to their configured thresholds. Pure data.
type Table map[models.MetricKind]Threshold

func ptr(v float64) *float64 { return &v }

// Defaults returns the built-in threshold table.
func Defaults() Table {
	return Table{
		models.MetricTemperature: {Min: ptr(20), Max: ptr(80), Critical: ptr(90)},
		models.MetricVibration:   {Min: ptr(0), Max: ptr(5), Critical: ptr(8)},
		models.MetricPressure:    {Min: ptr(0), Max: ptr(80), Critical: ptr(95)},
		models.MetricVoltage:     {Min: ptr(210), Max: ptr(230), Critical: ptr(240)},
		models.MetricCurrent:     {Min: ptr(0), Max: ptr(10), Critical: ptr(15)},
		models.MetricStockPrice:  {ChangePercent: ptr(5), CriticalChange: ptr(10)},
	}
}

// LoadFile reads a YAML threshold file and merges it over the defaults.
// Kinds present in the file replace the default entry entirely.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds file: %w", err)
	}

	var overrides map[models.MetricKind]Threshold
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse thresholds file: %w", err)
	}

	table := Defaults()
	for kind, t := range overrides {
		table[kind] = t
	}
	return table, nil
}

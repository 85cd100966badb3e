package thresholds

import (
	"fmt"
	"strconv"
	"strings"

	"assetwatch/internal/models"
)

// Verdict is the evaluator's decision that a sample breached a threshold.
type Verdict struct {
	Severity       models.Severity
	Title          string
	Description    string
	ThresholdValue float64
	ActualValue    float64
}

// Evaluate decides whether one sample breaches its configured thresholds.
// It returns nil when no threshold is configured for the kind, when no
// bound is crossed, or when a percentage-change kind lacks a previous value
// or the asset lacks a reference price. Pure and side-effect-free.
func Evaluate(asset *models.Asset, kind models.MetricKind, value float64, previous *float64, table Table) *Verdict {
	t, ok := table[kind]
	if !ok {
		return nil
	}

	if t.PercentChange() {
		return evaluateChange(asset, kind, value, previous, t)
	}
	return evaluateBounds(asset, kind, value, t)
}

// evaluateBounds checks absolute bounds in priority order: critical, then
// max, then min. The first crossed bound wins.
func evaluateBounds(asset *models.Asset, kind models.MetricKind, value float64, t Threshold) *Verdict {
	title := fmt.Sprintf("%s Alert for %s", capitalize(string(kind)), asset.Name)

	switch {
	case t.Critical != nil && value > *t.Critical:
		return &Verdict{
			Severity:       models.SeverityCritical,
			Title:          title,
			Description:    fmt.Sprintf("Critical %s: %s exceeds critical threshold %s", kind, num(value), num(*t.Critical)),
			ThresholdValue: *t.Critical,
			ActualValue:    value,
		}
	case t.Max != nil && value > *t.Max:
		return &Verdict{
			Severity:       models.SeverityHigh,
			Title:          title,
			Description:    fmt.Sprintf("High %s: %s exceeds maximum threshold %s", kind, num(value), num(*t.Max)),
			ThresholdValue: *t.Max,
			ActualValue:    value,
		}
	case t.Min != nil && value < *t.Min:
		return &Verdict{
			Severity:       models.SeverityMedium,
			Title:          title,
			Description:    fmt.Sprintf("Medium %s: %s below minimum threshold %s", kind, num(value), num(*t.Min)),
			ThresholdValue: *t.Min,
			ActualValue:    value,
		}
	}
	return nil
}

// evaluateChange checks percentage movement against the previous sample.
// Requires both a previous value and a reference price on the asset.
func evaluateChange(asset *models.Asset, kind models.MetricKind, value float64, previous *float64, t Threshold) *Verdict {
	if previous == nil || *previous == 0 || asset.CurrentPrice == nil {
		return nil
	}

	change := (value - *previous) / *previous * 100
	if change < 0 {
		change = -change
	}

	criticalChange := 10.0
	if t.CriticalChange != nil {
		criticalChange = *t.CriticalChange
	}
	changeBound := 5.0
	if t.ChangePercent != nil {
		changeBound = *t.ChangePercent
	}

	direction := "increased"
	if value < *previous {
		direction = "decreased"
	}

	title := fmt.Sprintf("Stock Price Alert for %s", asset.Symbol)

	switch {
	case change >= criticalChange:
		return &Verdict{
			Severity:       models.SeverityCritical,
			Title:          title,
			Description:    fmt.Sprintf("Critical stock movement: %s %s by %.2f%%", asset.Symbol, direction, change),
			ThresholdValue: changeBound,
			ActualValue:    change,
		}
	case change > changeBound:
		return &Verdict{
			Severity:       models.SeverityHigh,
			Title:          title,
			Description:    fmt.Sprintf("Significant stock movement: %s %s by %.2f%%", asset.Symbol, direction, change),
			ThresholdValue: changeBound,
			ActualValue:    change,
		}
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Package pricing computes booking price estimates.
package pricing

import "math"

// EstimatedHours is the fixed duration every booking is quoted for.
const EstimatedHours = 2.0

const EstimatedDuration = "2 hours"

type Breakdown struct {
	HourlyRate    float64 `json:"hourly_rate"`
	Hours         float64 `json:"hours"`
	FeePercentage float64 `json:"fee_percentage"`
	TaxPercentage float64 `json:"tax_percentage"`
	Subtotal      float64 `json:"subtotal"`
	PlatformFee   float64 `json:"platform_fee"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

func Estimate(hourlyRate, feePct, taxPct float64) Breakdown {
	subtotal := hourlyRate * EstimatedHours
	fee := subtotal * feePct / 100
	tax := subtotal * taxPct / 100
	return Breakdown{
		HourlyRate:    hourlyRate,
		Hours:         EstimatedHours,
		FeePercentage: feePct,
		TaxPercentage: taxPct,
		Subtotal:      subtotal,
		PlatformFee:   fee,
		Tax:           tax,
		Total:         subtotal + fee + tax,
	}
}

// Rounded returns the breakdown with money fields rounded to cents for display.
func (b Breakdown) Rounded() Breakdown {
	b.Subtotal = Round2(b.Subtotal)
	b.PlatformFee = Round2(b.PlatformFee)
	b.Tax = Round2(b.Tax)
	b.Total = Round2(b.Total)
	return b
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package service

import "math"

// Mobile-money and platform fee rates. Cash-in and cash-out legs are charged
// together on every order payment.
const (
	CashInRate   = 0.03
	CashOutRate  = 0.03
	PlatformRate = 0.014
)

// FeeBreakdown is the checkout-time fee statement for a base amount.
type FeeBreakdown struct {
	BaseAmount   float64
	ProcessorFee float64
	PlatformFee  float64
	TotalFee     float64
	TotalAmount  float64
}

// CalculateOrderFees computes the processor and platform fee components for
// a base amount. Each component is rounded up to the next whole currency unit
// on its own; the combined rate is never rounded as one figure, so the parts
// always match the statement breakdown.
func CalculateOrderFees(baseAmount float64) FeeBreakdown {
	processorFee := math.Ceil(baseAmount * (CashInRate + CashOutRate))
	platformFee := math.Ceil(baseAmount * PlatformRate)
	totalFee := processorFee + platformFee

	return FeeBreakdown{
		BaseAmount:   baseAmount,
		ProcessorFee: processorFee,
		PlatformFee:  platformFee,
		TotalFee:     totalFee,
		TotalAmount:  baseAmount + totalFee,
	}
}

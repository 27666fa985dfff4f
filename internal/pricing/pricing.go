// Package pricing computes order totals, balances, and payment status.
// All functions are pure; money is integer cents throughout.
package pricing

import "github.com/stantonsupply/backoffice/pkg/enums"

// Line is a single order line input.
type Line struct {
	Quantity       int
	UnitPriceCents int
}

// Result is the derived payment picture for an order.
type Result struct {
	TotalCents    int
	DiscountCents int
	PayableCents  int
	PaidCents     int
	BalanceCents  int
	PaymentStatus enums.PaymentStatus
}

// Compute derives totals, balance, and payment status from line items,
// a discount, and the payments received so far.
func Compute(lines []Line, discountCents int, paymentCents []int) Result {
	total := 0
	for _, line := range lines {
		total += line.Quantity * line.UnitPriceCents
	}

	paid := 0
	for _, amount := range paymentCents {
		paid += amount
	}

	return derive(total, discountCents, paid)
}

// Recompute derives the payment picture from already-aggregated cents.
// Used when paid totals are tracked on the order row.
func Recompute(totalCents, discountCents, paidCents int) Result {
	return derive(totalCents, discountCents, paidCents)
}

func derive(total, discount, paid int) Result {
	payable := total - discount
	if payable < 0 {
		payable = 0
	}
	balance := payable - paid
	if balance < 0 {
		balance = 0
	}

	return Result{
		TotalCents:    total,
		DiscountCents: discount,
		PayableCents:  payable,
		PaidCents:     paid,
		BalanceCents:  balance,
		PaymentStatus: Status(payable, paid),
	}
}

// Status maps payable/paid cents onto a payment status. A zero-payable
// order counts as paid.
func Status(payableCents, paidCents int) enums.PaymentStatus {
	switch {
	case paidCents >= payableCents:
		return enums.PaymentStatusPaid
	case paidCents == 0:
		return enums.PaymentStatusUnpaid
	default:
		return enums.PaymentStatusPartial
	}
}

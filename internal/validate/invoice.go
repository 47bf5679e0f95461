// Package validate checks extracted invoice records for field presence and
// arithmetic consistency. OCR and LLM extraction introduce small rounding
// noise, so amount checks accept a discrepancy up to the larger of 1% of the
// reference value and 1.0 currency unit.
package validate

import (
	"fmt"
	"math"

	"github.com/akdino27/invoice-poc/internal/entity"
)

// Invoice runs all checks in order and returns the first failure, or nil.
func Invoice(inv *entity.Invoice) error {
	if inv.InvoiceNumber == "" {
		return fmt.Errorf("missing InvoiceNumber")
	}
	if inv.InvoiceDate == "" {
		return fmt.Errorf("missing InvoiceDate")
	}
	if inv.VendorName == "" {
		return fmt.Errorf("missing VendorName")
	}

	if inv.TotalAmount <= 0 {
		return fmt.Errorf("invalid TotalAmount: %v", inv.TotalAmount)
	}

	if len(inv.LineItems) == 0 {
		return fmt.Errorf("no line items found")
	}

	var lineSum float64
	for i, item := range inv.LineItems {
		if item.ProductName == "" {
			return fmt.Errorf("LineItem[%d] missing ProductName", i)
		}
		if item.ProductID == "" {
			return fmt.Errorf("LineItem[%d] missing ProductId", i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("LineItem[%d] invalid Quantity: %v", i, item.Quantity)
		}
		if item.UnitRate <= 0 {
			return fmt.Errorf("LineItem[%d] invalid UnitRate: %v", i, item.UnitRate)
		}
		if item.Amount <= 0 {
			return fmt.Errorf("LineItem[%d] invalid Amount: %v", i, item.Amount)
		}

		expected := item.Quantity * item.UnitRate
		if !within(item.Amount, expected, tolerance(item.Amount)) {
			return fmt.Errorf("LineItem[%d] amount mismatch: %v != %v x %v",
				i, item.Amount, item.Quantity, item.UnitRate)
		}
		lineSum += item.Amount
	}

	if inv.Subtotal != nil {
		if !within(*inv.Subtotal, lineSum, tolerance(*inv.Subtotal)) {
			return fmt.Errorf("subtotal mismatch: %v != sum of line amounts %v", *inv.Subtotal, lineSum)
		}
	}

	expectedTotal := lineSum - inv.DiscountAmount() + inv.ShippingAmount()
	if !within(inv.TotalAmount, expectedTotal, tolerance(inv.TotalAmount)) {
		return fmt.Errorf("total mismatch: %v != %v (lines - discount + shipping)",
			inv.TotalAmount, expectedTotal)
	}

	return nil
}

// tolerance is relative-or-absolute, whichever is larger.
func tolerance(ref float64) float64 {
	t := 0.01 * math.Abs(ref)
	if t < 1.0 {
		t = 1.0
	}
	return t
}

func within(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

package entity

// Invoice is the structured record extracted by the LLM from one document.
// Field names (and JSON keys) follow the backend's callback contract, so they
// are PascalCase on the wire too.
type Invoice struct {
	InvoiceNumber string        `json:"InvoiceNumber"`
	InvoiceDate   string        `json:"InvoiceDate"`
	OrderID       string        `json:"OrderId,omitempty"`
	VendorName    string        `json:"VendorName"`
	BillTo        BillTo        `json:"BillTo"`
	ShipTo        ShipTo        `json:"ShipTo"`
	ShipMode      string        `json:"ShipMode,omitempty"`
	LineItems     []LineItem    `json:"LineItems"`
	Subtotal      *float64      `json:"Subtotal,omitempty"`
	Discount      *DiscountInfo `json:"Discount,omitempty"`
	ShippingCost  *float64      `json:"ShippingCost,omitempty"`
	TotalAmount   float64       `json:"TotalAmount"`
	BalanceDue    *float64      `json:"BalanceDue,omitempty"`
	Currency      string        `json:"Currency"`
	Notes         string        `json:"Notes,omitempty"`
	Terms         string        `json:"Terms,omitempty"`
}

// BillTo identifies the billed party.
type BillTo struct {
	Name string `json:"Name"`
}

// ShipTo carries the optional shipping destination.
type ShipTo struct {
	City    string `json:"City,omitempty"`
	State   string `json:"State,omitempty"`
	Country string `json:"Country,omitempty"`
}

// LineItem is one billed row on the invoice.
type LineItem struct {
	ProductName string  `json:"ProductName"`
	Category    string  `json:"Category,omitempty"`
	ProductID   string  `json:"ProductId"`
	Quantity    float64 `json:"Quantity"`
	UnitRate    float64 `json:"UnitRate"`
	Amount      float64 `json:"Amount"`
}

// DiscountInfo describes an invoice-level discount.
type DiscountInfo struct {
	Percentage *float64 `json:"Percentage,omitempty"`
	Amount     *float64 `json:"Amount,omitempty"`
}

// DiscountAmount returns the absolute discount, 0 when absent.
func (inv *Invoice) DiscountAmount() float64 {
	if inv.Discount == nil || inv.Discount.Amount == nil {
		return 0
	}
	return *inv.Discount.Amount
}

// ShippingAmount returns the shipping cost, 0 when absent.
func (inv *Invoice) ShippingAmount() float64 {
	if inv.ShippingCost == nil {
		return 0
	}
	return *inv.ShippingCost
}

package resource

import (
	"math"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

type lineItemForm struct {
	Description string  `mapstructure:"description" validate:"required,max=200"`
	Quantity    int     `mapstructure:"quantity" validate:"min=1"`
	UnitPrice   float64 `mapstructure:"unit_price" validate:"min=0"`
}

type billForm struct {
	PatientID   int64            `mapstructure:"patient_id" validate:"required,min=1"`
	BillingDate string           `mapstructure:"billing_date" validate:"required,datetime=2006-01-02"`
	Status      model.BillStatus `mapstructure:"status" validate:"omitempty,oneof=unpaid partially_paid paid"`
	Notes       string           `mapstructure:"notes" validate:"max=1000"`
	Items       []lineItemForm   `mapstructure:"items" validate:"required,min=1,dive"`
}

type billBody struct {
	PatientID   int64            `json:"patient_id"`
	BillingDate string           `json:"billing_date"`
	Status      model.BillStatus `json:"status"`
	Notes       string           `json:"notes,omitempty"`
	Items       []model.LineItem `json:"items"`
	TotalAmount float64          `json:"total_amount"`
}

var billMessages = messages{
	"patient_id":            "Select a patient",
	"billing_date":          "Billing date is required",
	"billing_date.datetime": "Billing date must be a date (YYYY-MM-DD)",
	"status":                "Unknown bill status",
	"notes":                 "Notes must be at most 1000 characters",
	"items":                 "Add at least one line item",
	"items.description":     "Item description is required",
	"items.quantity":        "Quantity must be at least 1",
	"items.quantity.type":   "Quantity must be a whole number",
	"items.unit_price":      "Unit price cannot be negative",
	"items.unit_price.type": "Unit price must be a number",
}

// BillSchema drives the billing page.
type BillSchema struct{}

func (BillSchema) Kind() string { return KindBills }

func (BillSchema) Fields(b model.Bill) map[string]interface{} {
	items := make([]interface{}, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, map[string]interface{}{
			"description": it.Description,
			"quantity":    it.Quantity,
			"unit_price":  it.UnitPrice,
		})
	}
	return map[string]interface{}{
		"patient_id":   b.PatientID,
		"billing_date": b.BillingDate,
		"status":       string(b.Status),
		"notes":        b.Notes,
		"items":        items,
	}
}

func (BillSchema) Prepare(fields map[string]interface{}) (interface{}, map[string]string) {
	var form billForm
	if errs := bindForm(fields, &form, billMessages); errs != nil {
		return nil, errs
	}

	body := billBody{
		PatientID:   form.PatientID,
		BillingDate: form.BillingDate,
		Status:      form.Status,
		Notes:       form.Notes,
		Items:       make([]model.LineItem, 0, len(form.Items)),
	}
	if body.Status == "" {
		body.Status = model.BillStatusUnpaid
	}
	for _, it := range form.Items {
		body.Items = append(body.Items, model.LineItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	body.TotalAmount = Total(body.Items)
	return body, nil
}

// Total sums the line items, rounded to cents.
func Total(items []model.LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * it.UnitPrice
	}
	return math.Round(sum*100) / 100
}

func (BillSchema) SearchText(b model.Bill) []string {
	return []string{b.BillNumber, b.PatientName, string(b.Status)}
}

func (BillSchema) Columns() []string {
	return []string{"ID", "Bill number", "Patient", "Billing date", "Total", "Status"}
}

func (BillSchema) Row(b model.Bill) []interface{} {
	return []interface{}{b.ID, b.BillNumber, b.PatientName, b.BillingDate, b.TotalAmount, string(b.Status)}
}

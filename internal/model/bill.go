package model

type BillStatus string

const (
	BillStatusUnpaid        BillStatus = "unpaid"
	BillStatusPartiallyPaid BillStatus = "partially_paid"
	BillStatusPaid          BillStatus = "paid"
)

type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Bill is a patient billing record made of line items.
type Bill struct {
	Base
	BillNumber  string     `json:"bill_number"`
	PatientID   int64      `json:"patient_id"`
	PatientName string     `json:"patient_name,omitempty"`
	BillingDate string     `json:"billing_date"`
	Items       []LineItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	Status      BillStatus `json:"status"`
	Notes       string     `json:"notes,omitempty"`
}

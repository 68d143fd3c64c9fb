package model

import (
	"time"
)

// Base contains common fields for all server-owned records
type Base struct {
	ID        int64      `json:"id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// RecordID identifies the record within its collection.
func (b Base) RecordID() int64 {
	return b.ID
}

// Pagination represents the pagination metadata returned with list responses
type Pagination struct {
	Page     int `json:"current_page"`
	PageSize int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

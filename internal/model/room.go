package model

// Room is a birthing or recovery room with a number of beds.
type Room struct {
	Base
	Name        string `json:"name"`
	BedCount    int    `json:"bed_count"`
	Description string `json:"description,omitempty"`
}

package resource

import (
	"github.com/jwalitptl/birthcare-portal/internal/model"
)

type roomForm struct {
	Name        string `mapstructure:"name" validate:"required,max=100"`
	Beds        int    `mapstructure:"beds" validate:"min=1,max=50"`
	Description string `mapstructure:"description" validate:"max=500"`
}

type roomBody struct {
	Name        string `json:"name"`
	Beds        int    `json:"beds"`
	Description string `json:"description,omitempty"`
}

var roomMessages = messages{
	"name":        "Room name is required",
	"name.max":    "Room name must be at most 100 characters",
	"beds":        "Number of beds must be at least 1",
	"beds.max":    "Number of beds must be at most 50",
	"beds.type":   "Number of beds must be a whole number",
	"description": "Description must be at most 500 characters",
}

// RoomSchema drives the room management page.
type RoomSchema struct{}

func (RoomSchema) Kind() string { return KindRooms }

func (RoomSchema) Fields(r model.Room) map[string]interface{} {
	return map[string]interface{}{
		"name":        r.Name,
		"beds":        r.BedCount,
		"description": r.Description,
	}
}

func (RoomSchema) Prepare(fields map[string]interface{}) (interface{}, map[string]string) {
	var form roomForm
	if errs := bindForm(fields, &form, roomMessages); errs != nil {
		return nil, errs
	}
	return roomBody{Name: form.Name, Beds: form.Beds, Description: form.Description}, nil
}

func (RoomSchema) SearchText(r model.Room) []string {
	return []string{r.Name, r.Description}
}

func (RoomSchema) Columns() []string {
	return []string{"ID", "Name", "Beds", "Description"}
}

func (RoomSchema) Row(r model.Room) []interface{} {
	return []interface{}{r.ID, r.Name, r.BedCount, r.Description}
}

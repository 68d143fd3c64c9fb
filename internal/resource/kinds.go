package resource

import (
	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/auth"
	"github.com/jwalitptl/birthcare-portal/internal/crud"
	"github.com/jwalitptl/birthcare-portal/internal/model"
)

const (
	KindRoles = "roles"
	KindRooms = "rooms"
	KindBills = "bills"
)

// Kind is one resource page the portal can mount.
type Kind struct {
	Name        string
	Requirement auth.Requirement
	New         func(client *apiclient.Client, cfg crud.Config) crud.Page
}

// Kinds returns the mountable resource pages keyed by name.
func Kinds() map[string]Kind {
	return map[string]Kind{
		KindRoles: {
			Name:        KindRoles,
			Requirement: auth.Requirement{Permission: model.PermissionManageRoles},
			New: func(client *apiclient.Client, cfg crud.Config) crud.Page {
				return crud.NewController[model.Role](apiclient.NewResource[model.Role](client, KindRoles, "/roles"), RoleSchema{}, cfg)
			},
		},
		KindRooms: {
			Name:        KindRooms,
			Requirement: auth.Requirement{Permission: model.PermissionManageRooms},
			New: func(client *apiclient.Client, cfg crud.Config) crud.Page {
				return crud.NewController[model.Room](apiclient.NewResource[model.Room](client, KindRooms, "/rooms"), RoomSchema{}, cfg)
			},
		},
		KindBills: {
			Name:        KindBills,
			Requirement: auth.Requirement{Permission: model.PermissionManageBilling},
			New: func(client *apiclient.Client, cfg crud.Config) crud.Page {
				return crud.NewController[model.Bill](apiclient.NewResource[model.Bill](client, KindBills, "/bills"), BillSchema{}, cfg)
			},
		},
	}
}

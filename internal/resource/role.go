package resource

import (
	"strings"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

type roleForm struct {
	Name        string                `mapstructure:"name" validate:"required,max=100"`
	Description string                `mapstructure:"description" validate:"max=500"`
	Permissions []model.PermissionTag `mapstructure:"permissions" validate:"required,min=1,dive,permission"`
}

type roleBody struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Permissions []model.PermissionTag `json:"permissions"`
}

var roleMessages = messages{
	"name":                   "Role name is required",
	"name.max":               "Role name must be at most 100 characters",
	"description":            "Description must be at most 500 characters",
	"permissions":            "Select at least one permission",
	"permissions.permission": "Unknown permission",
}

// RoleSchema drives the role and permission management page.
type RoleSchema struct{}

func (RoleSchema) Kind() string { return KindRoles }

func (RoleSchema) Fields(r model.Role) map[string]interface{} {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, string(p))
	}
	return map[string]interface{}{
		"name":        r.Name,
		"description": r.Description,
		"permissions": perms,
	}
}

func (RoleSchema) Prepare(fields map[string]interface{}) (interface{}, map[string]string) {
	var form roleForm
	if errs := bindForm(fields, &form, roleMessages); errs != nil {
		return nil, errs
	}

	seen := make(model.PermissionSet, len(form.Permissions))
	perms := make([]model.PermissionTag, 0, len(form.Permissions))
	for _, p := range form.Permissions {
		if !seen.Has(p) {
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	return roleBody{Name: form.Name, Description: form.Description, Permissions: perms}, nil
}

func (RoleSchema) SearchText(r model.Role) []string {
	return []string{r.Name, r.Description}
}

func (RoleSchema) Columns() []string {
	return []string{"ID", "Name", "Description", "Permissions"}
}

func (RoleSchema) Row(r model.Role) []interface{} {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, string(p))
	}
	return []interface{}{r.ID, r.Name, r.Description, strings.Join(perms, ", ")}
}

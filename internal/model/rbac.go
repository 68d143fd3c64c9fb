package model

// PermissionTag names a single capability granted through a role.
type PermissionTag string

const (
	PermissionManageUsers     PermissionTag = "manage_users"
	PermissionManageRoles     PermissionTag = "manage_roles"
	PermissionManageRooms     PermissionTag = "manage_rooms"
	PermissionViewBilling     PermissionTag = "view_billing"
	PermissionManageBilling   PermissionTag = "manage_billing"
	PermissionViewPatients    PermissionTag = "view_patients"
	PermissionManagePatients  PermissionTag = "manage_patients"
	PermissionViewPrenatal    PermissionTag = "view_prenatal"
	PermissionScheduleVisits  PermissionTag = "schedule_visits"
	PermissionManageDocuments PermissionTag = "manage_documents"
)

// AllPermissions lists every known tag in display order.
var AllPermissions = []PermissionTag{
	PermissionManageUsers,
	PermissionManageRoles,
	PermissionManageRooms,
	PermissionViewBilling,
	PermissionManageBilling,
	PermissionViewPatients,
	PermissionManagePatients,
	PermissionViewPrenatal,
	PermissionScheduleVisits,
	PermissionManageDocuments,
}

func (p PermissionTag) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// PermissionSet is an unordered set of permission tags.
type PermissionSet map[PermissionTag]struct{}

func NewPermissionSet(tags ...PermissionTag) PermissionSet {
	set := make(PermissionSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(tag PermissionTag) bool {
	_, ok := s[tag]
	return ok
}

// UserRole is the coarse role attached to a signed-in user.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleMidwife UserRole = "midwife"
	UserRoleStaff   UserRole = "staff"
)

type Role struct {
	Base
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Permissions []PermissionTag `json:"permissions"`
}

package shared

// Role names the back-office staff roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleSales     Role = "sales"
	RoleQC        Role = "qc"
	RolePackaging Role = "packaging"
	RoleDispatch  Role = "dispatch"
)

// Permission scopes.
const (
	PermManageStaff       = "manage_staff"
	PermManageSettings    = "manage_settings"
	PermManageInventory   = "manage_inventory"
	PermViewInventory     = "view_inventory"
	PermManageCustomers   = "manage_customers"
	PermManageEngagements = "manage_video_calls"
	PermManageQuotations  = "manage_quotations"
	PermViewAnalytics     = "view_analytics"
	PermManageQC          = "manage_qc"
	PermManagePackaging   = "manage_packaging"
	PermManageDispatch    = "manage_dispatch"
)

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		PermManageStaff,
		PermManageSettings,
		PermManageInventory,
		PermManageCustomers,
		PermManageEngagements,
		PermManageQuotations,
		PermViewAnalytics,
		PermViewInventory,
		PermManageQC,
		PermManagePackaging,
		PermManageDispatch,
	},
	RoleManager: {
		PermManageInventory,
		PermManageCustomers,
		PermManageEngagements,
		PermManageQuotations,
		PermViewAnalytics,
	},
	RoleSales: {
		PermViewInventory,
		PermManageCustomers,
		PermManageEngagements,
		PermManageQuotations,
	},
	RoleQC: {
		PermViewInventory,
		PermManageQC,
	},
	RolePackaging: {
		PermViewInventory,
		PermManagePackaging,
	},
	RoleDispatch: {
		PermViewInventory,
		PermManageDispatch,
	},
}

// RolePermissions returns the permission set granted to a role. Unknown roles
// get nothing.
func RolePermissions(role Role) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidRole reports whether the role is one of the known staff roles.
func ValidRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

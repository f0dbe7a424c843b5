package user

type Permission string

const (
	// Point registry
	PermissionPointRegister Permission = "point.register"
	PermissionPointViewOwn  Permission = "point.view_own"
	PermissionPointViewAll  Permission = "point.view_all"

	// Approvals
	PermissionApprovalCreate    Permission = "approval.create"
	PermissionApprovalView      Permission = "approval.view"
	PermissionApprovalManage    Permission = "approval.manage"
	PermissionApprovalDashboard Permission = "approval.dashboard"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionPointRegister,
		PermissionPointViewOwn,
		PermissionPointViewAll,
		PermissionApprovalCreate,
		PermissionApprovalView,
		PermissionApprovalManage,
		PermissionApprovalDashboard,
	},
	RoleHR: {
		PermissionPointRegister,
		PermissionPointViewOwn,
		PermissionPointViewAll,
		PermissionApprovalCreate,
		PermissionApprovalView,
		PermissionApprovalManage,
		PermissionApprovalDashboard,
	},
	RoleSupervisor: {
		PermissionPointRegister,
		PermissionPointViewOwn,
		PermissionPointViewAll,
		PermissionApprovalCreate,
		PermissionApprovalView,
		PermissionApprovalManage,
		PermissionApprovalDashboard,
	},
	RoleEmployee: {
		PermissionPointRegister,
		PermissionPointViewOwn,
		PermissionApprovalCreate,
		PermissionApprovalView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

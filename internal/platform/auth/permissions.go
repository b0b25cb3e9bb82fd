package auth

// Permissions describes what the caller may do with telehealth
// configuration and reporting.
type Permissions struct {
	CanViewSettings   bool `json:"can_view_settings"`
	CanEditSettings   bool `json:"can_edit_settings"`
	CanViewAnalytics  bool `json:"can_view_analytics"`
	CanViewAuditLogs  bool `json:"can_view_audit_logs"`
	CanManageSessions bool `json:"can_manage_sessions"`
}

// PermissionsForRoles maps roles onto telehealth permissions. Providers and
// clinic staff can view settings; only admins edit them. Analytics and audit
// access follow the edit permission plus the dedicated analyst role.
func PermissionsForRoles(roles []string) Permissions {
	p := Permissions{}
	for _, r := range roles {
		switch r {
		case "admin":
			return Permissions{
				CanViewSettings:   true,
				CanEditSettings:   true,
				CanViewAnalytics:  true,
				CanViewAuditLogs:  true,
				CanManageSessions: true,
			}
		case "provider", "care_team":
			p.CanViewSettings = true
			p.CanManageSessions = true
		case "analyst":
			p.CanViewSettings = true
			p.CanViewAnalytics = true
			p.CanViewAuditLogs = true
		case "patient":
			p.CanManageSessions = true
		}
	}
	return p
}

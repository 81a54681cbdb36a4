package models

// Permission is an external capability the device may grant.
type Permission string

const (
	PermissionBiometric     Permission = "biometric"
	PermissionNotifications Permission = "notifications"
	PermissionAnalytics     Permission = "analytics"
	PermissionLocation      Permission = "location"
)

// AllPermissions lists every known kind in display order.
var AllPermissions = []Permission{
	PermissionBiometric,
	PermissionNotifications,
	PermissionAnalytics,
	PermissionLocation,
}

// ParsePermission maps a persisted tag back to a Permission.
func ParsePermission(s string) (Permission, bool) {
	for _, p := range AllPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

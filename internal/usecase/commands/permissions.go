package commands

import (
	"strings"

	"chatcmd/internal/domain"
)

// NormalizePermission maps a free-text permission phrase to role ids.
// ok is false when the phrase is outside the fixed vocabulary; an empty
// result with ok=true means unrestricted.
func NormalizePermission(phrase string) (roleIDs []string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(phrase)) {
	case "", "all", "everyone":
		return []string{}, true
	case "sub":
		return []string{domain.RoleSubscriber}, true
	case "vip":
		return []string{domain.RoleVIP}, true
	case "mod":
		return []string{domain.RoleModerator}, true
	case "streamer":
		return []string{domain.RoleBroadcaster}, true
	default:
		return nil, false
	}
}

package authroles

import (
	"strings"

	domainauth "github.com/almacen/almacen-ui/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to Almacen roles by exact, case-insensitive
// group match. General admin wins over branch admin; everyone else is an employee.
type StaticRoleMapper struct {
	GeneralAdminGroup string
	BranchAdminGroup  string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	if hasGroup(groups, m.GeneralAdminGroup) {
		return domainauth.RoleGeneralAdmin
	}
	if hasGroup(groups, m.BranchAdminGroup) {
		return domainauth.RoleBranchAdmin
	}
	return domainauth.RoleEmployee
}

func hasGroup(groups []string, want string) bool {
	if want == "" {
		return false
	}
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), want) {
			return true
		}
	}
	return false
}

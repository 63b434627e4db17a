package enums

import "fmt"

// StaffRole is the dashboard role carried in staff JWTs.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleChef    StaffRole = "chef"
	StaffRoleWaiter  StaffRole = "waiter"
	StaffRoleCashier StaffRole = "cashier"
)

var validStaffRoles = []StaffRole{
	StaffRoleAdmin,
	StaffRoleChef,
	StaffRoleWaiter,
	StaffRoleCashier,
}

func (r StaffRole) String() string {
	return string(r)
}

func (r StaffRole) IsValid() bool {
	for _, candidate := range validStaffRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseStaffRole(value string) (StaffRole, error) {
	for _, candidate := range validStaffRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid staff role %q", value)
}

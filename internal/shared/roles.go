package shared

// Role identifies which route groups an account may reach.
type Role string

const (
	// RoleAdmin is store staff with access to the management console.
	RoleAdmin Role = "admin"
	// RoleDriver is a delivery driver.
	RoleDriver Role = "driver"
	// RoleUser is a customer.
	RoleUser Role = "user"
	// RoleNone marks the absence of an authenticated account.
	RoleNone Role = ""
)

// ClassifyRole returns the role recorded on the snapshot, verbatim. No
// normalization or default-role policy is applied; an absent snapshot
// classifies as RoleNone.
func ClassifyRole(user *UserSnapshot) Role {
	if user == nil {
		return RoleNone
	}
	return user.Role
}

// Valid reports whether the role is one of the three known tags.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDriver, RoleUser:
		return true
	}
	return false
}

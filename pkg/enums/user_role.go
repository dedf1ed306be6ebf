package enums

// UserRole mirrors the roles the identity provider issues.
type UserRole string

const (
	UserRoleCustomer       UserRole = "customer"
	UserRoleProductManager UserRole = "product_manager"
)

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the role is one the platform recognizes.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleProductManager:
		return true
	}
	return false
}

// CanManageOrders reports whether the role may set order status directly.
func (r UserRole) CanManageOrders() bool {
	return r == UserRoleProductManager
}

package models

// Role names as stored in the roles table.
const (
	RoleOwner    = "owner"
	RoleCourier  = "courier"
	RoleCustomer = "customer"
)

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID       int64  `db:"id" json:"id"`
	Forename string `db:"forename" json:"forename"`
	Surname  string `db:"surname" json:"surname"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"-"`
	Roles    []string
}

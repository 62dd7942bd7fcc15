package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// Role is the organisational role a user acts under. Monetary approval limits
// are attached to roles by the approval policy, not stored per user.
type Role string

const (
	RoleSales     Role = "sales"
	RoleOperator  Role = "operator"
	RoleManager   Role = "manager"
	RoleExecutive Role = "executive"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSales, RoleOperator, RoleManager, RoleExecutive, RoleAdmin:
		return true
	}

	return false
}

// User is a member of the directory.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

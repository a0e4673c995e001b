package account

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Scope selects which roles a listing may see.
type Scope string

const (
	ScopePatients Scope = "patients"
	ScopeStaff    Scope = "staff"
)

// Roles returns the roles visible under the scope.
func (s Scope) Roles() []Role {
	switch s {
	case ScopePatients:
		return []Role{RolePatient}
	case ScopeStaff:
		return []Role{RoleStaff, RoleAdmin}
	}
	return nil
}

type Account struct {
	ID           uuid.UUID
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

func (a Account) IsPatient() bool {
	return a.Role == RolePatient
}

package user

import (
	"github.com/students-gateway/gateway/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleStudent}

// ValidRole reports whether role is one of AllRoles.
func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	PushToken    string `json:"push_token,omitempty"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := Hash(pwd, salt)
	if err != nil {
		return err
	}
	u.Salt = salt
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether pwd hashes to the stored digest.
func (u *User) CheckPassword(pwd string) bool {
	hash, err := Hash(pwd, u.Salt)
	if err != nil {
		return false
	}
	return hash == u.PasswordHash
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,username"`
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

// Clean normalizes the user input before validation.
func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
}

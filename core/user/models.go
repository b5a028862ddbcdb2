package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/mansa/core"
)

// Roles
const (
	RoleStudent = "STUDENT"
	RoleTeacher = "TEACHER"
	RoleAdmin   = "ADMIN"
)

var (
	AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsBlocked    bool       `json:"is_blocked" db:"is_blocked"`
	IsDeleted    bool       `json:"-" db:"is_deleted"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    *time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// HasAnyRole reports whether the user holds one of roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsPending reports whether the user is waiting for an admin approval.
func (u User) IsPending() bool {
	return !u.IsActive && !u.IsDeleted
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,min=2,max=255"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,role"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role)
}

func (nu *NewUser) Validate(ctx context.Context, svc *Service) error {
	nu.Clean()
	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateProfile defines what information users may change on their own account.
type UpdateProfile struct {
	Name            string `json:"name" validate:"omitempty,min=2,max=255"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdateProfile) Validate(ctx context.Context, origUsr User, svc *Service) error {
	up.Name = core.CleanString(up.Name)
	if up.Name == "" {
		up.Name = origUsr.Name
	}
	up.Email = core.CleanString(up.Email, true /* lower */)
	if up.Email == "" {
		up.Email = origUsr.Email
	}

	if err := core.Validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, up.Email, origUsr)
}

type ChangeRole struct {
	Role string `json:"role" validate:"required,role"`
}

func (cr *ChangeRole) Validate() error {
	cr.Role = core.CleanString(cr.Role)
	return core.Validate.Struct(cr)
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search string
	Role   string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role)
}

type Stats struct {
	Total   int            `json:"total"`
	ByRole  map[string]int `json:"by_role"`
	Pending int            `json:"pending"`
	Blocked int            `json:"blocked"`
}

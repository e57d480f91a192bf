package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/prepdesk/prepdesk/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	// Tutor
	RoleTutor = "tutor:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner}
	TutorRoles   = []string{RoleTutor}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner: 30,
		RoleAdmin:      21,

		// Tutors: 20 - 11
		RoleTutor: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Tutor", Value: RoleTutor},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 4)
	all = append(all, AdminRoles...)
	all = append(all, TutorRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsActive     *bool     `json:"is_active"`
	Onboarded    bool      `json:"onboarded"`
	Roles        []string  `json:"roles"`
	SubjectIDs   []string  `json:"subject_ids"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
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

func (u *User) SetActive(active bool) {
	u.IsActive = &active
}

func (u *User) Deactivated() bool {
	return u.IsActive != nil && !*u.IsActive
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTutor() bool {
	return u.RoleStartsWith(RoleTutor)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     string   `json:"name" validate:"omitempty,max=120"`
	Email    string   `json:"email" validate:"omitempty,email"`
	IsActive *bool    `json:"is_active"`
	Roles    []string `json:"roles"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Email, origUsr)
}

// ChangeUserPassword requires the current password before setting a new one.
type ChangeUserPassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (cp ChangeUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(cp)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

// SelectSubjects replaces the full set of subjects a user studies.
type SelectSubjects struct {
	SubjectIDs []string `json:"subject_ids" validate:"required,min=1,dive,required"`
}

func (ss *SelectSubjects) Validate(validate *validator.Validate) error {
	return validate.Struct(ss)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

package account

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/query"
)

// Roles
const (
	RoleAdministration = "administration"
	RoleScientifique   = "scientifique"
	RoleFinance        = "finance"
)

var (
	AllRoles = []string{RoleAdministration, RoleScientifique, RoleFinance}

	Roles = []Role{
		{Name: "Administration", Value: RoleAdministration},
		{Name: "Scientifique", Value: RoleScientifique},
		{Name: "Finance", Value: RoleFinance},
	}
)

// IsRole reports whether r is one of AllRoles.
func IsRole(r string) bool {
	for _, role := range AllRoles {
		if role == r {
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
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
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

// IsAdmin gates the admin-only commands. It hides affordances only: the API has the final say.
func (u User) IsAdmin() bool {
	return u.IsActive && u.Role == RoleAdministration
}

func (u User) FullName() string {
	return strings.TrimSpace(u.Prenom + " " + u.Nom)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Nom             string `json:"nom" validate:"required"`
	Prenom          string `json:"prenom" validate:"required"`
	Role            string `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate() error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Nom = core.CleanString(nu.Nom)
	nu.Prenom = core.CleanString(nu.Prenom)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return core.ValidateStruct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	Username        string `json:"username,omitempty" validate:"omitempty,min=3,max=50,alphanum_"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Nom             string `json:"nom,omitempty"`
	Prenom          string `json:"prenom,omitempty"`
	Role            string `json:"role,omitempty" validate:"omitempty,role"`
	Password        string `json:"password,omitempty" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(orig User) error {
	pick := func(s, fallback string, lower bool) string {
		if s = core.CleanString(s, lower); s != "" {
			return s
		}
		return fallback
	}
	uu.Username = pick(uu.Username, orig.Username, true)
	uu.Email = pick(uu.Email, orig.Email, true)
	uu.Nom = pick(uu.Nom, orig.Nom, false)
	uu.Prenom = pick(uu.Prenom, orig.Prenom, false)
	uu.Role = pick(uu.Role, orig.Role, true)
	return core.ValidateStruct(uu)
}

// UpdateStatus is the body of a status toggle.
type UpdateStatus struct {
	IsActive bool `json:"is_active"`
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"is_active"`
}

func (qf QueryFilter) IsEmpty() bool {
	return query.IsAny(qf.Search) && query.IsAny(qf.Role) && qf.IsActive == nil
}

// Criteria searches the full name (both orders), the username and the email.
func (qf QueryFilter) Criteria() query.Criteria[User] {
	var (
		nom    query.Field[User] = func(u User) string { return u.Nom }
		prenom query.Field[User] = func(u User) string { return u.Prenom }
	)
	c := query.Criteria[User]{
		Search: qf.Search,
		SearchFields: []query.Field[User]{
			query.Join(nom, prenom),
			query.Join(prenom, nom),
			func(u User) string { return u.Username },
			func(u User) string { return u.Email },
		},
		Equals: []query.Match[User]{{Field: func(u User) string { return u.Role }, Value: qf.Role}},
	}
	if qf.IsActive != nil {
		active := *qf.IsActive
		c.Predicates = append(c.Predicates, func(u User) bool { return u.IsActive == active })
	}
	return c
}

// Filter keeps the users matching qf, in order.
func Filter(users []User, qf QueryFilter) []User {
	return query.Filter(users, qf.Criteria())
}

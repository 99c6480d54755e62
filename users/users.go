package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization tag bound to an account. The set is closed.
type Role string

const (
	RoleHR       Role = "HR"
	RoleEmployee Role = "EMPLOYEE"
)

// Roles lists every valid role
var Roles = []Role{RoleHR, RoleEmployee}

func (r Role) Valid() bool {
	return r == RoleHR || r == RoleEmployee
}

// Label is the human readable name shown in the navbar
func (r Role) Label() string {
	switch r {
	case RoleHR:
		return "HR Admin"
	case RoleEmployee:
		return "Employee"
	}
	return string(r)
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User holds the credentials of an account. Display data lives in Profile.
type User struct {
	ID                     string    `json:"id,omitempty"`
	Email                  string    `json:"email,omitempty"`
	PasswordHash           string    `json:"-"`                                  // never serialize
	DateJoined             time.Time `json:"date_joined,omitempty"`              // Date and time when the user registered
	LastLogin              time.Time `json:"last_login,omitempty"`               // Last time the user logged in
	Blocked                bool      `json:"blocked,omitempty"`                  // Blocked, has the user been blocked from logging in
	PasswordChangeRequired bool      `json:"password_change_required,omitempty"` // forces a password change on next login
}

// Profile is the user-facing enrichment data keyed by user ID
type Profile struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Department *string   `json:"department,omitempty"`
	Position   *string   `json:"position,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Company    *string   `json:"company,omitempty"`
	EmployeeID *string   `json:"employee_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Initials returns up to two upper-case initials of the profile name
func (p *Profile) Initials() string {
	if p == nil {
		return "U"
	}
	var initials []rune
	for _, part := range strings.Fields(p.Name) {
		r := []rune(part)
		initials = append(initials, unicode.ToUpper(r[0]))
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "U"
	}
	return string(initials)
}

// Matches reports whether the query appears in the name, email, department or position
func (p *Profile) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	fields := []string{p.Name, p.Email}
	if p.Department != nil {
		fields = append(fields, *p.Department)
	}
	if p.Position != nil {
		fields = append(fields, *p.Position)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// NormaliseEmail lower-cases and trims an email so lookups are case insensitive
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

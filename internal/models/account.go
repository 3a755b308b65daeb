package models

import (
	"strings"
	"time"
)

// Role identifies which profile an account owns.
type Role string

const (
	RoleTherapist Role = "therapist"
	RoleParent    Role = "parent"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTherapist || r == RoleParent
}

// Account is a login identity. Exactly one exists per email.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	IsVerified   bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TherapistProfile is the role profile of a therapist account
type TherapistProfile struct {
	ID        int64
	UserID    int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Bio       string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the non-empty name parts.
func (p *TherapistProfile) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// ParentProfile is the role profile of a parent account, including the
// identity of the child they registered for.
type ParentProfile struct {
	ID               int64
	UserID           int64
	ParentFirstName  string
	ParentLastName   string
	ChildFirstName   string
	ChildLastName    string
	ChildDOB         Date
	RelationToChild  string
	Email            string
	Phone            string
	AlternatePhone   string
	AddressLine1     string
	AddressLine2     string
	City             string
	State            string
	PostalCode       string
	Country          string
	EmergencyContact string
	IsVerified       bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins the non-empty parent name parts.
func (p *ParentProfile) FullName() string {
	return joinName(p.ParentFirstName, p.ParentLastName)
}

// HasLinkedChild reports whether enough child identity was captured to find
// the child's student record.
func (p *ParentProfile) HasLinkedChild() bool {
	return p.ChildFirstName != "" && p.ChildLastName != "" && !p.ChildDOB.IsZero()
}

// TherapistProfileUpdate lists the fields a therapist may change. Nil means unchanged.
type TherapistProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Bio       *string
}

// ParentProfileUpdate lists the fields a parent may change. Nil means unchanged.
// Address replaces the first address line.
type ParentProfileUpdate struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	Address          *string
	EmergencyContact *string
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

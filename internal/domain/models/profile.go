package models

import "errors"

// Role is the access level attached to a member profile.
type Role string

const (
	RoleMember     Role = "member"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
	RoleAdmin      Role = "admin"
	RolePowerAdmin Role = "power-admin"
)

// ErrInvalidRole is returned when a role value is outside the known set.
var ErrInvalidRole = errors.New("invalid role")

// Valid reports whether the role is one of the five recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleEditor, RoleViewer, RoleAdmin, RolePowerAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role grants access to the admin console.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RolePowerAdmin
}

// Profile is the per-user member record. UID is immutable and always equals
// the authentication identity that created it.
type Profile struct {
	UID      string `bson:"_id" json:"uid"`
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Role     Role   `bson:"role" json:"role"`
	PhotoURL string `bson:"photo_url,omitempty" json:"photoURL,omitempty"`
}

// Credential stores the password hash for email+password sign-in. It lives in
// its own collection so profile reads never carry the hash.
type Credential struct {
	UID          string `bson:"_id" json:"-"`
	Email        string `bson:"email" json:"-"`
	PasswordHash []byte `bson:"password_hash" json:"-"`
}

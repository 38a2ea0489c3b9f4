package models

import "time"

// Role is the closed set of account roles. Keeping this a typed enum (rather
// than free-text strings) removes typo-class bugs in role checks.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleBanned  Role = "banned"
	RoleDeleted Role = "deleted"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleBanned, RoleDeleted:
		return true
	}
	return false
}

// User represents an authenticated account.
// FreeDownloadsUsed and HasActiveSubscription together drive the
// document-generation entitlement; the subscription flag is a cached value
// maintained by billing webhook notifications, never queried synchronously.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string    `gorm:"size:255" json:"name,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role      Role      `gorm:"size:20;not null;default:'user'" json:"role"`

	FreeDownloadsUsed     int  `gorm:"not null;default:0" json:"free_downloads_used"`
	HasActiveSubscription bool `gorm:"not null;default:false" json:"has_active_subscription"`
}

// IsAdmin returns true for admin accounts, which bypass ownership and
// entitlement gating entirely.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if the account may sign in and use the service.
func (u *User) IsActive() bool {
	return u.Role == RoleUser || u.Role == RoleAdmin
}

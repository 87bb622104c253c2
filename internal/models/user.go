package models

import (
	"regexp"
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of roles the permission engine understands.
// Values match the rol column of the legacy directory.
type Role string

const (
	RoleVendedor Role = "VENDEDOR"
	RoleAnalista Role = "ANALISTA"
	RoleJefe     Role = "JEFE"
	RoleAdmin    Role = "ADMIN"
)

// Roles lists every valid role.
var Roles = []Role{RoleVendedor, RoleAnalista, RoleJefe, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleVendedor, RoleAnalista, RoleJefe, RoleAdmin:
		return true
	}
	return false
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)

// ValidUsername reports whether u is an acceptable username
// (3-50 chars, letters/digits . _ -).
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}

// User represents an account in the directory backing every authorization decision
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Nombre            string    `gorm:"size:120;not null" json:"nombre"`
	Correo            *string   `gorm:"size:255" json:"correo"`
	Rol               Role      `gorm:"size:20;not null" json:"rol"`
	Activo            bool      `gorm:"default:true" json:"activo"`
	EncryptedPassword string    `gorm:"column:encrypted_password;not null" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Rol == "" {
		u.Rol = RoleVendedor
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Rol == RoleAdmin
}

// IsActive returns true if the account may log in and be assigned work
func (u *User) IsActive() bool {
	return u.Activo
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Nombre    string    `json:"nombre"`
	Correo    *string   `json:"correo"`
	Rol       Role      `json:"rol"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Nombre:    u.Nombre,
		Correo:    u.Correo,
		Rol:       u.Rol,
		Activo:    u.Activo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// RefreshToken represents a JWT refresh token
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex" json:"token"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for RefreshToken
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsExpired returns true if the refresh token has expired
func (r *RefreshToken) IsExpired() bool {
	if r.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*r.ExpiresAt)
}

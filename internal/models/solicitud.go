package models

import (
	"strings"
	"time"
)

// Solicitud is the primary workflow entity tracked through estados.
// The owner never changes after creation; the record is never deleted.
type Solicitud struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Cliente        string     `gorm:"size:150;not null" json:"cliente"`
	Asunto         string     `gorm:"size:200;not null" json:"asunto"`
	Detalle        *string    `gorm:"type:text" json:"detalle"`
	DeadlineAt     *time.Time `json:"deadline_at"`
	EstadoID       uint       `gorm:"not null;index" json:"estado_id"`
	OwnerUserID    uint       `gorm:"not null;index" json:"owner_user_id"`
	AssignedUserID *uint      `gorm:"index" json:"assigned_user_id"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Associations
	Estado       SolicitudEstado `gorm:"foreignKey:EstadoID" json:"estado,omitempty"`
	Owner        User            `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`
	AssignedUser *User           `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`
}

// TableName specifies the table name for Solicitud
func (Solicitud) TableName() string {
	return "solicitudes"
}

// IsClosed reports whether the current estado is terminal for edits.
// Status changes remain role-gated even on closed solicitudes.
func (s *Solicitud) IsClosed() bool {
	return IsClosedEstado(s.Estado.Nombre)
}

// IsClosedEstado reports whether an estado name is terminal for edits.
func IsClosedEstado(nombre string) bool {
	switch strings.ToLower(nombre) {
	case "cerrado", "cancelado":
		return true
	}
	return false
}

// SolicitudResponse is the JSON response format for list/detail rows
type SolicitudResponse struct {
	ID             uint       `json:"id"`
	Cliente        string     `json:"cliente"`
	Asunto         string     `json:"asunto"`
	Detalle        *string    `json:"detalle"`
	DeadlineAt     *time.Time `json:"deadline_at"`
	Estado         string     `json:"estado"`
	EstadoID       uint       `json:"estado_id"`
	OwnerNombre    string     `json:"owner_nombre"`
	OwnerUsername  string     `json:"owner_username"`
	AssignedNombre *string    `json:"assigned_nombre"`
	AssignedUserID *uint      `json:"assigned_user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToResponse converts Solicitud to SolicitudResponse
func (s *Solicitud) ToResponse() SolicitudResponse {
	resp := SolicitudResponse{
		ID:             s.ID,
		Cliente:        s.Cliente,
		Asunto:         s.Asunto,
		Detalle:        s.Detalle,
		DeadlineAt:     s.DeadlineAt,
		Estado:         s.Estado.Nombre,
		EstadoID:       s.EstadoID,
		OwnerNombre:    s.Owner.Nombre,
		OwnerUsername:  s.Owner.Username,
		AssignedUserID: s.AssignedUserID,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.AssignedUser != nil {
		resp.AssignedNombre = &s.AssignedUser.Nombre
	}
	return resp
}

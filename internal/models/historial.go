package models

import (
	"time"
)

// AuditAction is the closed set of state-changing actions recorded in the
// historial. The lifecycle engine matches it exhaustively; unknown values
// never fall through to a default branch.
type AuditAction string

const (
	ActionCreate       AuditAction = "CREATE"
	ActionUpdate       AuditAction = "UPDATE"
	ActionAssign       AuditAction = "ASSIGN"
	ActionChangeStatus AuditAction = "CHANGE_STATUS"
	ActionComment      AuditAction = "COMMENT"
)

// SolicitudHistorial is one immutable audit entry: a state-changing action
// with its before/after diff, the actor and the request metadata. Rows are
// only ever inserted inside the transaction that performs the mutation.
type SolicitudHistorial struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	SolicitudID uint        `gorm:"not null;index" json:"solicitud_id"`
	Accion      AuditAction `gorm:"size:20;not null" json:"accion"`
	Resumen     string      `gorm:"size:255;not null" json:"resumen"`
	CambiosJSON string      `gorm:"type:text" json:"cambios_json"`
	ActorUserID uint        `gorm:"not null" json:"actor_user_id"`
	IP          string      `gorm:"size:45" json:"ip"`
	UserAgent   string      `gorm:"size:255" json:"user_agent"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`

	// Associations
	Actor User `gorm:"foreignKey:ActorUserID" json:"actor,omitempty"`
}

// TableName specifies the table name for SolicitudHistorial
func (SolicitudHistorial) TableName() string {
	return "solicitud_historial"
}

// HistorialResponse is the JSON response format for historial rows
type HistorialResponse struct {
	ID          uint        `json:"id"`
	Accion      AuditAction `json:"accion"`
	Resumen     string      `json:"resumen"`
	CambiosJSON string      `json:"cambios_json"`
	ActorNombre string      `json:"actor_nombre"`
	ActorRol    Role        `json:"actor_rol"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ToResponse converts SolicitudHistorial to HistorialResponse
func (h *SolicitudHistorial) ToResponse() HistorialResponse {
	return HistorialResponse{
		ID:          h.ID,
		Accion:      h.Accion,
		Resumen:     h.Resumen,
		CambiosJSON: h.CambiosJSON,
		ActorNombre: h.Actor.Nombre,
		ActorRol:    h.Actor.Rol,
		CreatedAt:   h.CreatedAt,
	}
}

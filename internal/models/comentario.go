package models

import (
	"time"
)

// MaxComentarioLen bounds comment and justification bodies.
const MaxComentarioLen = 4000

// SolicitudComentario is an append-only comment on a solicitud. Every
// insert pairs with a historial row in the same transaction: COMMENT for
// direct comments, CHANGE_STATUS for justifications.
type SolicitudComentario struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SolicitudID uint      `gorm:"not null;index" json:"solicitud_id"`
	ActorUserID uint      `gorm:"not null" json:"actor_user_id"`
	Comentario  string    `gorm:"type:text;not null" json:"comentario"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	// Associations
	Actor User `gorm:"foreignKey:ActorUserID" json:"actor,omitempty"`
}

// TableName specifies the table name for SolicitudComentario
func (SolicitudComentario) TableName() string {
	return "solicitud_comentarios"
}

// ComentarioResponse is the JSON response format for comment rows
type ComentarioResponse struct {
	ID          uint      `json:"id"`
	Comentario  string    `json:"comentario"`
	ActorNombre string    `json:"actor_nombre"`
	ActorRol    Role      `json:"actor_rol"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts SolicitudComentario to ComentarioResponse
func (c *SolicitudComentario) ToResponse() ComentarioResponse {
	return ComentarioResponse{
		ID:          c.ID,
		Comentario:  c.Comentario,
		ActorNombre: c.Actor.Nombre,
		ActorRol:    c.Actor.Rol,
		CreatedAt:   c.CreatedAt,
	}
}

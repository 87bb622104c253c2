package models

// SolicitudEstado is a named lifecycle stage. Exactly one active estado is
// flagged as default and seeds every new solicitud.
type SolicitudEstado struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Nombre    string `gorm:"size:80;not null;uniqueIndex" json:"nombre"`
	Activo    bool   `gorm:"default:true" json:"activo"`
	EsDefault bool   `gorm:"default:false" json:"es_default"`
}

// TableName specifies the table name for SolicitudEstado
func (SolicitudEstado) TableName() string {
	return "solicitud_estados"
}

package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Estado       EstadoRepository
	Solicitud    SolicitudRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Estado:       NewEstadoRepository(db),
		Solicitud:    NewSolicitudRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}

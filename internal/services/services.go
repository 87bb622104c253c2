package services

import (
	"github.com/solvia/solicitudes-api/internal/config"
	"github.com/solvia/solicitudes-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth      *AuthService
	User      *UserService
	Solicitud *SolicitudService
	Audit     *AuditService
	Export    *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)

	return &Services{
		Auth:      NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:      NewUserService(repos.User),
		Solicitud: NewSolicitudService(db, repos.Solicitud, repos.Estado, repos.User, auditSvc),
		Audit:     auditSvc,
		Export:    NewExportService(),
	}
}

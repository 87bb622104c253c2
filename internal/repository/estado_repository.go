package repository

import (
	"context"

	"github.com/solvia/solicitudes-api/internal/models"
	"gorm.io/gorm"
)

// EstadoRepository defines the interface for solicitud estado lookups
type EstadoRepository interface {
	ListActivos(ctx context.Context) ([]models.SolicitudEstado, error)
	FindActivo(ctx context.Context, id uint) (*models.SolicitudEstado, error)
	FindDefault(ctx context.Context) (*models.SolicitudEstado, error)
}

type estadoRepository struct {
	db *gorm.DB
}

// NewEstadoRepository creates a new estado repository
func NewEstadoRepository(db *gorm.DB) EstadoRepository {
	return &estadoRepository{db: db}
}

func (r *estadoRepository) ListActivos(ctx context.Context) ([]models.SolicitudEstado, error) {
	var estados []models.SolicitudEstado
	err := r.db.WithContext(ctx).
		Where("activo = ?", true).
		Order("id ASC").
		Find(&estados).Error
	return estados, err
}

func (r *estadoRepository) FindActivo(ctx context.Context, id uint) (*models.SolicitudEstado, error) {
	var estado models.SolicitudEstado
	err := r.db.WithContext(ctx).
		Where("id = ? AND activo = ?", id, true).
		First(&estado).Error
	if err != nil {
		return nil, err
	}
	return &estado, nil
}

// FindDefault returns the single active estado flagged as default.
func (r *estadoRepository) FindDefault(ctx context.Context) (*models.SolicitudEstado, error) {
	var estado models.SolicitudEstado
	err := r.db.WithContext(ctx).
		Where("es_default = ? AND activo = ?", true, true).
		Order("id ASC").
		First(&estado).Error
	if err != nil {
		return nil, err
	}
	return &estado, nil
}

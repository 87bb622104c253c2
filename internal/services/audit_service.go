package services

import (
	"context"
	"encoding/json"

	"github.com/solvia/solicitudes-api/internal/models"
	"gorm.io/gorm"
)

// Meta carries the request attribution recorded with every audit entry.
type Meta struct {
	IP        string
	UserAgent string
}

// AuditService appends immutable historial rows. Mutating writes go through
// LogTx on the caller's transaction handle so the audit entry and the
// mutation it describes share fate.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// LogTx records one audit entry within the caller's active transaction.
// cambios is marshalled into the historial row; a nil payload records "{}".
func (s *AuditService) LogTx(tx *gorm.DB, solicitudID uint, accion models.AuditAction, resumen string, cambios any, actorID uint, meta Meta) error {
	payload := []byte("{}")
	if cambios != nil {
		var err error
		payload, err = json.Marshal(cambios)
		if err != nil {
			return err
		}
	}

	entry := &models.SolicitudHistorial{
		SolicitudID: solicitudID,
		Accion:      accion,
		Resumen:     resumen,
		CambiosJSON: string(payload),
		ActorUserID: actorID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
	}
	return tx.Create(entry).Error
}

// List retrieves audit entries across all solicitudes, newest first.
func (s *AuditService) List(ctx context.Context, query *ListOptions) ([]models.SolicitudHistorial, int64, error) {
	var entries []models.SolicitudHistorial
	var total int64

	query.Normalize()

	db := s.db.WithContext(ctx).Model(&models.SolicitudHistorial{})
	if query.SolicitudID > 0 {
		db = db.Where("solicitud_id = ?", query.SolicitudID)
	}
	if query.Accion != "" {
		db = db.Where("accion = ?", query.Accion)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC, id DESC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Preload("Actor").
		Find(&entries).Error
	return entries, total, err
}

// ListOptions filters the admin audit listing.
type ListOptions struct {
	Page        int
	PerPage     int
	SolicitudID uint
	Accion      models.AuditAction
}

// Normalize applies paging defaults.
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 || o.PerPage > 100 {
		o.PerPage = 20
	}
}

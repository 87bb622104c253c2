package repository

import (
	"context"

	"github.com/solvia/solicitudes-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScopeMode enumerates the visibility filters applied before any
// permission check.
type ScopeMode string

const (
	ScopeOwner    ScopeMode = "OWNER"
	ScopeAssigned ScopeMode = "ASSIGNED"
	ScopeAll      ScopeMode = "ALL"
)

// Scope restricts queries to the subset of solicitudes an actor may see.
// UserID is the subject for OWNER/ASSIGNED modes.
type Scope struct {
	Mode   ScopeMode
	UserID uint
}

// SolicitudQuery extends ListQuery with solicitud-specific filters
type SolicitudQuery struct {
	*ListQuery
	Cliente        string
	Asunto         string
	EstadoID       uint
	AssignedUserID uint
	OnlyAssigned   bool
}

// DetailPaging controls the independent historial/comentario pages of a
// detail view.
type DetailPaging struct {
	HistPage int
	HistSize int
	ComPage  int
	ComSize  int
}

// Normalize clamps detail paging (minimum page size 5, default 10).
func (p *DetailPaging) Normalize() {
	if p.HistPage < 1 {
		p.HistPage = 1
	}
	if p.ComPage < 1 {
		p.ComPage = 1
	}
	if p.HistSize == 0 {
		p.HistSize = 10
	}
	if p.HistSize < 5 {
		p.HistSize = 5
	}
	if p.ComSize == 0 {
		p.ComSize = 10
	}
	if p.ComSize < 5 {
		p.ComSize = 5
	}
}

// SolicitudDetail combines a solicitud with one page of historial and one
// page of comentarios, both newest first.
type SolicitudDetail struct {
	Solicitud   models.Solicitud
	Historial   []models.SolicitudHistorial
	Comentarios []models.SolicitudComentario
	HistTotal   int64
	ComTotal    int64
}

// SolicitudRepository defines the interface for solicitud data access.
// Methods taking a tx handle participate in the caller's transaction.
type SolicitudRepository interface {
	List(ctx context.Context, scope Scope, query *SolicitudQuery) ([]models.Solicitud, int64, error)
	ListAll(ctx context.Context, scope Scope, query *SolicitudQuery) ([]models.Solicitud, error)
	GetDetail(ctx context.Context, scope Scope, id uint, paging DetailPaging) (*SolicitudDetail, error)
	LockForUpdate(tx *gorm.DB, id uint) (*models.Solicitud, error)
}

type solicitudRepository struct {
	db *gorm.DB
}

// NewSolicitudRepository creates a new solicitud repository
func NewSolicitudRepository(db *gorm.DB) SolicitudRepository {
	return &solicitudRepository{db: db}
}

func applyScope(db *gorm.DB, scope Scope) *gorm.DB {
	switch scope.Mode {
	case ScopeOwner:
		return db.Where("solicitudes.owner_user_id = ?", scope.UserID)
	case ScopeAssigned:
		return db.Where("solicitudes.assigned_user_id = ?", scope.UserID)
	case ScopeAll:
		return db
	}
	// Unknown scope leaks nothing.
	return db.Where("1 = 0")
}

func applyFilters(db *gorm.DB, query *SolicitudQuery) *gorm.DB {
	if query.Cliente != "" {
		db = db.Where("solicitudes.cliente LIKE ?", "%"+query.Cliente+"%")
	}
	if query.Asunto != "" {
		db = db.Where("solicitudes.asunto LIKE ?", "%"+query.Asunto+"%")
	}
	if query.EstadoID > 0 {
		db = db.Where("solicitudes.estado_id = ?", query.EstadoID)
	}
	if query.AssignedUserID > 0 {
		db = db.Where("solicitudes.assigned_user_id = ?", query.AssignedUserID)
	}
	if query.OnlyAssigned {
		db = db.Where("solicitudes.assigned_user_id IS NOT NULL")
	}
	return db
}

func (r *solicitudRepository) List(ctx context.Context, scope Scope, query *SolicitudQuery) ([]models.Solicitud, int64, error) {
	var rows []models.Solicitud
	var total int64

	query.Normalize()

	db := r.db.WithContext(ctx).Model(&models.Solicitud{})
	db = applyScope(db, scope)
	db = applyFilters(db, query)

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("solicitudes.created_at DESC").
		Offset((query.Page - 1) * query.PerPage).
		Limit(query.PerPage).
		Preload("Estado").
		Preload("Owner").
		Preload("AssignedUser").
		Find(&rows).Error
	return rows, total, err
}

// ListAll returns every matching row; used by the export surface.
func (r *solicitudRepository) ListAll(ctx context.Context, scope Scope, query *SolicitudQuery) ([]models.Solicitud, error) {
	var rows []models.Solicitud

	db := r.db.WithContext(ctx).Model(&models.Solicitud{})
	db = applyScope(db, scope)
	db = applyFilters(db, query)

	err := db.Order("solicitudes.created_at DESC").
		Preload("Estado").
		Preload("Owner").
		Preload("AssignedUser").
		Find(&rows).Error
	return rows, err
}

// GetDetail loads the scoped solicitud plus one page of historial and one
// of comentarios. Returns gorm.ErrRecordNotFound both for missing ids and
// ids outside the scope, so callers cannot tell the two apart.
func (r *solicitudRepository) GetDetail(ctx context.Context, scope Scope, id uint, paging DetailPaging) (*SolicitudDetail, error) {
	paging.Normalize()

	detail := &SolicitudDetail{}

	db := r.db.WithContext(ctx).Model(&models.Solicitud{}).Where("solicitudes.id = ?", id)
	db = applyScope(db, scope)

	err := db.Preload("Estado").
		Preload("Owner").
		Preload("AssignedUser").
		First(&detail.Solicitud).Error
	if err != nil {
		return nil, err
	}

	histDB := r.db.WithContext(ctx).Model(&models.SolicitudHistorial{}).Where("solicitud_id = ?", id)
	if err := histDB.Count(&detail.HistTotal).Error; err != nil {
		return nil, err
	}
	err = histDB.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset((paging.HistPage - 1) * paging.HistSize).
		Limit(paging.HistSize).
		Preload("Actor").
		Find(&detail.Historial).Error
	if err != nil {
		return nil, err
	}

	comDB := r.db.WithContext(ctx).Model(&models.SolicitudComentario{}).Where("solicitud_id = ?", id)
	if err := comDB.Count(&detail.ComTotal).Error; err != nil {
		return nil, err
	}
	err = comDB.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset((paging.ComPage - 1) * paging.ComSize).
		Limit(paging.ComSize).
		Preload("Actor").
		Find(&detail.Comentarios).Error
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// LockForUpdate reads the current row under a write lock so concurrent
// mutations on the same solicitud serialize at the store. The estado and
// user associations are loaded on the same tx for diffing.
func (r *solicitudRepository) LockForUpdate(tx *gorm.DB, id uint) (*models.Solicitud, error) {
	var solicitud models.Solicitud

	db := tx
	// sqlite has no FOR UPDATE; its single writer already serializes.
	if tx.Dialector.Name() != "sqlite" {
		db = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.First(&solicitud, id).Error; err != nil {
		return nil, err
	}

	if err := tx.First(&solicitud.Estado, solicitud.EstadoID).Error; err != nil {
		return nil, err
	}
	if err := tx.First(&solicitud.Owner, solicitud.OwnerUserID).Error; err != nil {
		return nil, err
	}
	if solicitud.AssignedUserID != nil {
		var assigned models.User
		if err := tx.First(&assigned, *solicitud.AssignedUserID).Error; err != nil {
			return nil, err
		}
		solicitud.AssignedUser = &assigned
	}

	return &solicitud, nil
}

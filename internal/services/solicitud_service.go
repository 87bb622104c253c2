package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
	"github.com/solvia/solicitudes-api/internal/statemachine"
	"github.com/solvia/solicitudes-api/pkg/logger"
	"gorm.io/gorm"
)

// SolicitudService is the transactional core of the workflow. Every
// mutation runs as one transaction: read the current row under a write
// lock, validate, mutate, diff, append exactly one historial row, commit.
// On any failure the whole unit rolls back; a mutation without its audit
// entry is never observable.
type SolicitudService struct {
	db         *gorm.DB
	repo       repository.SolicitudRepository
	estadoRepo repository.EstadoRepository
	userRepo   repository.UserRepository
	auditSvc   *AuditService
}

func NewSolicitudService(
	db *gorm.DB,
	repo repository.SolicitudRepository,
	estadoRepo repository.EstadoRepository,
	userRepo repository.UserRepository,
	auditSvc *AuditService,
) *SolicitudService {
	return &SolicitudService{
		db:         db,
		repo:       repo,
		estadoRepo: estadoRepo,
		userRepo:   userRepo,
		auditSvc:   auditSvc,
	}
}

// ListFilters carries the listing inputs from the web layer.
type ListFilters struct {
	Tab            string
	Cliente        string
	Asunto         string
	EstadoID       uint
	AssignedUserID uint
	Page           int
	PerPage        int
}

// TabInfo describes one listing tab for the caller.
type TabInfo struct {
	Key    Tab    `json:"key"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// ListResult is the listing surface: scoped rows plus the navigation and
// lookup data the caller renders around them.
type ListResult struct {
	Tab       Tab
	Tabs      []TabInfo
	Rows      []models.Solicitud
	Total     int64
	Estados   []models.SolicitudEstado
	Analistas []models.User
}

// List returns the solicitudes visible to the actor under the resolved tab.
func (s *SolicitudService) List(ctx context.Context, actor Actor, filters ListFilters) (*ListResult, error) {
	tab, allowed := ResolveTab(actor.Rol, filters.Tab)
	scope, onlyAssigned := TabScope(actor.Rol, tab, actor.ID)

	query := &repository.SolicitudQuery{
		ListQuery:      &repository.ListQuery{Page: filters.Page, PerPage: filters.PerPage},
		Cliente:        strings.TrimSpace(filters.Cliente),
		Asunto:         strings.TrimSpace(filters.Asunto),
		EstadoID:       filters.EstadoID,
		AssignedUserID: filters.AssignedUserID,
		OnlyAssigned:   onlyAssigned,
	}

	rows, total, err := s.repo.List(ctx, scope, query)
	if err != nil {
		return nil, err
	}

	estados, err := s.estadoRepo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Tab:     tab,
		Rows:    rows,
		Total:   total,
		Estados: estados,
	}
	for _, t := range allowed {
		result.Tabs = append(result.Tabs, TabInfo{Key: t, Label: TabLabels[t], Active: t == tab})
	}

	if actor.Rol == models.RoleJefe || actor.Rol == models.RoleAdmin {
		analistas, err := s.userRepo.ListAnalistas(ctx)
		if err != nil {
			return nil, err
		}
		result.Analistas = analistas
	}

	return result, nil
}

// CreatePayload are the caller-supplied fields of a new solicitud.
type CreatePayload struct {
	Cliente     string `json:"cliente"`
	Asunto      string `json:"asunto"`
	Detalle     string `json:"detalle"`
	DeadlineISO string `json:"deadline_utc_iso"`
}

// Create inserts a new solicitud seeded with the active default estado and
// its CREATE historial entry, atomically. A missing default estado is an
// operator misconfiguration, not a user error.
func (s *SolicitudService) Create(ctx context.Context, actor Actor, payload CreatePayload, meta Meta) (uint, error) {
	if err := validateClienteAsunto(payload.Cliente, payload.Asunto); err != nil {
		return 0, err
	}

	deadline := parseUTCDeadline(payload.DeadlineISO)
	detalle := optionalText(payload.Detalle)

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var estado models.SolicitudEstado
		err := tx.Where("es_default = ? AND activo = ?", true, true).
			Order("id ASC").
			First(&estado).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoDefaultEstado
			}
			return err
		}

		solicitud := &models.Solicitud{
			Cliente:     payload.Cliente,
			Asunto:      payload.Asunto,
			Detalle:     detalle,
			DeadlineAt:  deadline,
			EstadoID:    estado.ID,
			OwnerUserID: actor.ID,
		}
		if err := tx.Create(solicitud).Error; err != nil {
			return err
		}
		id = solicitud.ID

		after := map[string]any{
			"id":               solicitud.ID,
			"cliente":          solicitud.Cliente,
			"asunto":           solicitud.Asunto,
			"detalle":          anyString(detalle),
			"deadline_at":      anyTime(deadline),
			"owner_user_id":    actor.ID,
			"assigned_user_id": nil,
			"estado_id":        estado.ID,
		}
		return s.auditSvc.LogTx(tx, solicitud.ID, models.ActionCreate, "Solicitud creada",
			map[string]any{"after": after}, actor.ID, meta)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetDetail loads the scoped detail view with its permissions and lookup
// data. Missing and out-of-scope ids are both reported as not found.
func (s *SolicitudService) GetDetail(ctx context.Context, actor Actor, id uint, paging repository.DetailPaging) (*DetailResult, error) {
	scope := DetailScope(actor.Rol, actor.ID)

	detail, err := s.repo.GetDetail(ctx, scope, id, paging)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms := ComputePermissions(actor, &detail.Solicitud)

	estados, err := s.estadoRepo.ListActivos(ctx)
	if err != nil {
		return nil, err
	}

	result := &DetailResult{
		Detail:      detail,
		Permissions: perms,
		Estados:     estados,
	}
	if perms.CanAssign {
		analistas, err := s.userRepo.ListAnalistas(ctx)
		if err != nil {
			return nil, err
		}
		result.Analistas = analistas
	}

	return result, nil
}

// DetailResult combines the detail rows with everything the caller needs
// to render actions: the actor's permissions and the assign/status lookups.
type DetailResult struct {
	Detail      *repository.SolicitudDetail
	Permissions Permissions
	Estados     []models.SolicitudEstado
	Analistas   []models.User
}

// UpdatePayload are the caller-supplied fields of an edit.
type UpdatePayload struct {
	Cliente     string `json:"cliente"`
	Asunto      string `json:"asunto"`
	Detalle     string `json:"detalle"`
	DeadlineISO string `json:"deadline_utc_iso"`
}

var updateDiffKeys = []string{"cliente", "asunto", "detalle", "deadline_at"}

// Update edits the mutable fields the actor's role allows. An edit whose
// allowed field set matches current state exactly fails with ErrNoChanges
// and writes nothing; accidental no-op submissions are surfaced, not
// swallowed.
func (s *SolicitudService) Update(ctx context.Context, actor Actor, id uint, payload UpdatePayload, meta Meta) error {
	detail, err := s.GetDetail(ctx, actor, id, repository.DetailPaging{})
	if err != nil {
		return err
	}
	if !detail.Permissions.CanEdit {
		return ErrUnauthorized
	}

	var fields map[string]any
	switch actor.Rol {
	case models.RoleAdmin, models.RoleJefe, models.RoleVendedor:
		if err := validateClienteAsunto(payload.Cliente, payload.Asunto); err != nil {
			return err
		}
		fields = map[string]any{
			"cliente":     payload.Cliente,
			"asunto":      payload.Asunto,
			"detalle":     optionalText(payload.Detalle),
			"deadline_at": parseUTCDeadline(payload.DeadlineISO),
		}
	case models.RoleAnalista:
		fields = map[string]any{
			"detalle": optionalText(payload.Detalle),
		}
	default:
		return ErrUnauthorized
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return notFoundOr(err)
		}

		err = tx.Model(&models.Solicitud{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return err
		}

		after, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return err
		}

		cambios := diffFields(snapshot(before), snapshot(after), updateDiffKeys)
		if len(cambios) == 0 {
			return ErrNoChanges
		}

		return s.auditSvc.LogTx(tx, id, models.ActionUpdate, "Solicitud editada",
			map[string]any{"cambios": cambios}, actor.ID, meta)
	})
}

// Assign sets or clears the assignee. The target is re-validated inside
// the transaction: an analista deactivated between the caller's check and
// the commit still fails.
func (s *SolicitudService) Assign(ctx context.Context, actor Actor, id uint, assignedUserID *uint, meta Meta) error {
	switch actor.Rol {
	case models.RoleJefe, models.RoleAdmin:
	default:
		return ErrUnauthorized
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return notFoundOr(err)
		}

		if assignedUserID != nil {
			var target models.User
			err := tx.Where("id = ? AND activo = ? AND rol = ?", *assignedUserID, true, models.RoleAnalista).
				First(&target).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInvalidAssignee
				}
				return err
			}
		}

		err = tx.Model(&models.Solicitud{}).
			Where("id = ?", id).
			Update("assigned_user_id", assignedUserID).Error
		if err != nil {
			return err
		}

		after, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return err
		}

		resumen := "Analista asignado"
		if assignedUserID == nil {
			resumen = "Analista desasignado"
		}

		cambios := diffFields(snapshot(before), snapshot(after), []string{"assigned_user_id"})
		return s.auditSvc.LogTx(tx, id, models.ActionAssign, resumen,
			map[string]any{"cambios": cambios}, actor.ID, meta)
	})
}

// ChangeEstado moves the solicitud to another active estado. A status
// change is never silent: the justification is required and stored as a
// comment inside the same transaction. Closed solicitudes can still change
// estado; the gate is the role, not the current state.
func (s *SolicitudService) ChangeEstado(ctx context.Context, actor Actor, id uint, estadoID uint, justificacion string, meta Meta) error {
	switch actor.Rol {
	case models.RoleAnalista, models.RoleJefe, models.RoleAdmin:
	default:
		return ErrUnauthorized
	}

	justificacion = strings.TrimSpace(justificacion)
	if justificacion == "" {
		return Validationf("justificación requerida")
	}
	if len(justificacion) > models.MaxComentarioLen {
		return Validationf("justificación excede %d caracteres", models.MaxComentarioLen)
	}

	// Visibility gate: the actor must be able to see the solicitud.
	if _, err := s.GetDetail(ctx, actor, id, repository.DetailPaging{}); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return notFoundOr(err)
		}

		var activos []models.SolicitudEstado
		if err := tx.Where("activo = ?", true).Order("id ASC").Find(&activos).Error; err != nil {
			return err
		}

		var target *models.SolicitudEstado
		for i := range activos {
			if activos[i].ID == estadoID {
				target = &activos[i]
				break
			}
		}
		if target == nil {
			return ErrInvalidEstado
		}

		machine := statemachine.NewSolicitudFSM(before.Estado, activos)
		if err := machine.Transition(ctx, *target); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEstado, err)
		}

		err = tx.Model(&models.Solicitud{}).
			Where("id = ?", id).
			Update("estado_id", target.ID).Error
		if err != nil {
			return err
		}

		comentario := &models.SolicitudComentario{
			SolicitudID: id,
			ActorUserID: actor.ID,
			Comentario:  justificacion,
		}
		if err := tx.Create(comentario).Error; err != nil {
			return err
		}

		after, err := s.repo.LockForUpdate(tx, id)
		if err != nil {
			return err
		}

		cambios := diffFields(snapshot(before), snapshot(after), []string{"estado_id", "estado"})
		return s.auditSvc.LogTx(tx, id, models.ActionChangeStatus,
			fmt.Sprintf("Estado cambiado a: %s", target.Nombre),
			map[string]any{"cambios": cambios}, actor.ID, meta)
	})
}

// AddComentario appends a comment. Whoever can view the solicitud can
// comment; no edit permission is needed.
func (s *SolicitudService) AddComentario(ctx context.Context, actor Actor, id uint, texto string, meta Meta) error {
	if strings.TrimSpace(texto) == "" {
		return Validationf("comentario vacío")
	}
	if len(texto) > models.MaxComentarioLen {
		return Validationf("comentario excede %d caracteres", models.MaxComentarioLen)
	}

	if _, err := s.GetDetail(ctx, actor, id, repository.DetailPaging{}); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.LockForUpdate(tx, id); err != nil {
			return notFoundOr(err)
		}

		comentario := &models.SolicitudComentario{
			SolicitudID: id,
			ActorUserID: actor.ID,
			Comentario:  texto,
		}
		if err := tx.Create(comentario).Error; err != nil {
			return err
		}

		return s.auditSvc.LogTx(tx, id, models.ActionComment, "Comentario agregado",
			map[string]any{"comentario_id": comentario.ID, "comentario": texto}, actor.ID, meta)
	})
}

// Export returns every row the actor's resolved tab scope matches; the
// export surface reuses the listing filters without pagination.
func (s *SolicitudService) Export(ctx context.Context, actor Actor, filters ListFilters) ([]models.Solicitud, error) {
	tab, _ := ResolveTab(actor.Rol, filters.Tab)
	scope, onlyAssigned := TabScope(actor.Rol, tab, actor.ID)

	query := &repository.SolicitudQuery{
		ListQuery:      repository.NewListQuery(),
		Cliente:        strings.TrimSpace(filters.Cliente),
		Asunto:         strings.TrimSpace(filters.Asunto),
		EstadoID:       filters.EstadoID,
		AssignedUserID: filters.AssignedUserID,
		OnlyAssigned:   onlyAssigned,
	}
	return s.repo.ListAll(ctx, scope, query)
}

// FieldChange is one before/after pair in an audit diff.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// snapshot flattens the diffable fields of a solicitud.
func snapshot(s *models.Solicitud) map[string]any {
	return map[string]any{
		"cliente":          s.Cliente,
		"asunto":           s.Asunto,
		"detalle":          anyString(s.Detalle),
		"deadline_at":      anyTime(s.DeadlineAt),
		"assigned_user_id": anyUint(s.AssignedUserID),
		"estado_id":        s.EstadoID,
		"estado":           s.Estado.Nombre,
	}
}

// diffFields keeps only the keys whose value actually changed.
func diffFields(before, after map[string]any, keys []string) map[string]FieldChange {
	cambios := make(map[string]FieldChange)
	for _, k := range keys {
		if before[k] != after[k] {
			cambios[k] = FieldChange{Before: before[k], After: after[k]}
		}
	}
	return cambios
}

func validateClienteAsunto(cliente, asunto string) error {
	if strings.TrimSpace(cliente) == "" {
		return Validationf("cliente es obligatorio")
	}
	if strings.TrimSpace(asunto) == "" {
		return Validationf("asunto es obligatorio")
	}
	if len(cliente) > 150 {
		return Validationf("cliente excede 150 caracteres")
	}
	if len(asunto) > 200 {
		return Validationf("asunto excede 200 caracteres")
	}
	return nil
}

// parseUTCDeadline parses an ISO-8601 timestamp to UTC. Unparseable input
// yields null rather than an error; the deadline is optional.
func parseUTCDeadline(iso string) *time.Time {
	if strings.TrimSpace(iso) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		logger.Warn("Deadline ignorado: fecha no parseable", "value", iso)
		return nil
	}
	utc := t.UTC()
	return &utc
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func anyString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func anyUint(v *uint) any {
	if v == nil {
		return nil
	}
	return *v
}

func anyTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

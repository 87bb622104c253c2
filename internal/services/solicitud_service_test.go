package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
	"github.com/solvia/solicitudes-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Setup("test")

	// A named shared-cache database so every pooled connection sees the
	// same in-memory store.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.SolicitudEstado{},
		&models.Solicitud{},
		&models.SolicitudHistorial{},
		&models.SolicitudComentario{},
	))
	return db
}

type fixture struct {
	db  *gorm.DB
	svc *SolicitudService

	vendedor  models.User
	vendedor2 models.User
	analista  models.User
	analista2 models.User
	inactivo  models.User
	jefe      models.User
	admin     models.User

	nuevo     models.SolicitudEstado
	enProceso models.SolicitudEstado
	cerrado   models.SolicitudEstado
	archivado models.SolicitudEstado
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db}
	f.svc = NewSolicitudService(
		db,
		repository.NewSolicitudRepository(db),
		repository.NewEstadoRepository(db),
		repository.NewUserRepository(db),
		NewAuditService(db),
	)

	mkUser := func(username string, rol models.Role, activo bool) models.User {
		u := models.User{Username: username, Nombre: username, Rol: rol, Activo: true, EncryptedPassword: "x"}
		require.NoError(t, db.Create(&u).Error)
		if !activo {
			require.NoError(t, db.Model(&u).Update("activo", false).Error)
			u.Activo = false
		}
		return u
	}
	f.vendedor = mkUser("vendedor", models.RoleVendedor, true)
	f.vendedor2 = mkUser("vendedor2", models.RoleVendedor, true)
	f.analista = mkUser("analista", models.RoleAnalista, true)
	f.analista2 = mkUser("analista2", models.RoleAnalista, true)
	f.inactivo = mkUser("inactivo", models.RoleAnalista, false)
	f.jefe = mkUser("jefe", models.RoleJefe, true)
	f.admin = mkUser("admin", models.RoleAdmin, true)

	mkEstado := func(nombre string, esDefault, activo bool) models.SolicitudEstado {
		e := models.SolicitudEstado{Nombre: nombre, Activo: true, EsDefault: esDefault}
		require.NoError(t, db.Create(&e).Error)
		if !activo {
			require.NoError(t, db.Model(&e).Update("activo", false).Error)
			e.Activo = false
		}
		return e
	}
	f.nuevo = mkEstado("Nuevo", true, true)
	f.enProceso = mkEstado("En Proceso", false, true)
	f.cerrado = mkEstado("Cerrado", false, true)
	f.archivado = mkEstado("Archivado", false, false)

	return f
}

func (f *fixture) actor(u models.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Rol: u.Rol}
}

func testMeta() Meta {
	return Meta{IP: "127.0.0.1", UserAgent: "go-test"}
}

func (f *fixture) mustCreate(t *testing.T, owner models.User, cliente, asunto string) uint {
	t.Helper()
	id, err := f.svc.Create(context.Background(), f.actor(owner),
		CreatePayload{Cliente: cliente, Asunto: asunto}, testMeta())
	require.NoError(t, err)
	return id
}

func (f *fixture) mustAssign(t *testing.T, id uint, analista models.User) {
	t.Helper()
	require.NoError(t, f.svc.Assign(context.Background(), f.actor(f.jefe), id, &analista.ID, testMeta()))
}

func (f *fixture) historial(t *testing.T, id uint, accion models.AuditAction) []models.SolicitudHistorial {
	t.Helper()
	var rows []models.SolicitudHistorial
	require.NoError(t, f.db.
		Where("solicitud_id = ? AND accion = ?", id, accion).
		Order("id ASC").
		Find(&rows).Error)
	return rows
}

func (f *fixture) reload(t *testing.T, id uint) models.Solicitud {
	t.Helper()
	var s models.Solicitud
	require.NoError(t, f.db.Preload("Estado").First(&s, id).Error)
	return s
}

func TestSolicitudService_Create_SeedsDefaultEstadoAndAudit(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Create(context.Background(), f.actor(f.vendedor), CreatePayload{
		Cliente:     "ACME",
		Asunto:      "Cotización",
		Detalle:     "detalle inicial",
		DeadlineISO: "2026-09-15T12:00:00Z",
	}, testMeta())
	require.NoError(t, err)

	s := f.reload(t, id)
	assert.Equal(t, f.nuevo.ID, s.EstadoID)
	assert.Equal(t, f.vendedor.ID, s.OwnerUserID)
	assert.Nil(t, s.AssignedUserID)
	require.NotNil(t, s.DeadlineAt)
	assert.Equal(t, "2026-09-15T12:00:00Z", s.DeadlineAt.UTC().Format("2006-01-02T15:04:05Z"))

	entries := f.historial(t, id, models.ActionCreate)
	require.Len(t, entries, 1)
	assert.Equal(t, "Solicitud creada", entries[0].Resumen)
	assert.Equal(t, f.vendedor.ID, entries[0].ActorUserID)
	assert.Equal(t, "127.0.0.1", entries[0].IP)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].CambiosJSON), &payload))
	assert.Equal(t, "ACME", payload["after"]["cliente"])
}

func TestSolicitudService_Create_NoDefaultEstado(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.SolicitudEstado{}).
		Where("1 = 1").Update("es_default", false).Error)

	_, err := f.svc.Create(context.Background(), f.actor(f.vendedor),
		CreatePayload{Cliente: "ACME", Asunto: "X"}, testMeta())
	assert.ErrorIs(t, err, ErrNoDefaultEstado)

	var solicitudes, historial int64
	f.db.Model(&models.Solicitud{}).Count(&solicitudes)
	f.db.Model(&models.SolicitudHistorial{}).Count(&historial)
	assert.Zero(t, solicitudes)
	assert.Zero(t, historial)
}

func TestSolicitudService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.actor(f.vendedor), CreatePayload{Cliente: "  ", Asunto: "X"}, testMeta())
	assert.True(t, IsValidation(err))

	_, err = f.svc.Create(ctx, f.actor(f.vendedor),
		CreatePayload{Cliente: strings.Repeat("a", 151), Asunto: "X"}, testMeta())
	assert.True(t, IsValidation(err))

	_, err = f.svc.Create(ctx, f.actor(f.vendedor),
		CreatePayload{Cliente: "ACME", Asunto: strings.Repeat("a", 201)}, testMeta())
	assert.True(t, IsValidation(err))
}

func TestSolicitudService_Create_UnparseableDeadlineIsNull(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Create(context.Background(), f.actor(f.vendedor), CreatePayload{
		Cliente:     "ACME",
		Asunto:      "X",
		DeadlineISO: "mañana",
	}, testMeta())
	require.NoError(t, err)

	s := f.reload(t, id)
	assert.Nil(t, s.DeadlineAt)
}

func TestSolicitudService_Update_NoChanges(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "Asunto original")

	err := f.svc.Update(context.Background(), f.actor(f.vendedor), id,
		UpdatePayload{Cliente: "ACME", Asunto: "Asunto original"}, testMeta())
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.True(t, IsConflict(err))

	// The rejected no-op leaves no trace.
	assert.Empty(t, f.historial(t, id, models.ActionUpdate))
}

func TestSolicitudService_Update_DiffAndAudit(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "Asunto original")

	err := f.svc.Update(context.Background(), f.actor(f.vendedor), id,
		UpdatePayload{Cliente: "ACME S.A.", Asunto: "Asunto original", Detalle: "algo"}, testMeta())
	require.NoError(t, err)

	s := f.reload(t, id)
	assert.Equal(t, "ACME S.A.", s.Cliente)

	entries := f.historial(t, id, models.ActionUpdate)
	require.Len(t, entries, 1)

	var payload map[string]map[string]FieldChange
	require.NoError(t, json.Unmarshal([]byte(entries[0].CambiosJSON), &payload))
	cambios := payload["cambios"]
	assert.Contains(t, cambios, "cliente")
	assert.Contains(t, cambios, "detalle")
	assert.NotContains(t, cambios, "asunto")
	assert.Equal(t, "ACME", cambios["cliente"].Before)
	assert.Equal(t, "ACME S.A.", cambios["cliente"].After)
}

func TestSolicitudService_Update_AnalistaNotAssignedCannotSee(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	// Unassigned solicitudes are outside the analista's visibility scope.
	err := f.svc.Update(context.Background(), f.actor(f.analista), id,
		UpdatePayload{Detalle: "nuevo detalle"}, testMeta())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSolicitudService_Update_AnalistaEditsDetalleOnly(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	f.mustAssign(t, id, f.analista)

	// The cliente field from the payload is ignored for an analista; only
	// the detalle edit goes through.
	err := f.svc.Update(context.Background(), f.actor(f.analista), id,
		UpdatePayload{Cliente: "HACKED", Detalle: "análisis técnico"}, testMeta())
	require.NoError(t, err)

	s := f.reload(t, id)
	assert.Equal(t, "ACME", s.Cliente)
	require.NotNil(t, s.Detalle)
	assert.Equal(t, "análisis técnico", *s.Detalle)
}

func TestSolicitudService_Update_ClosedBlocked(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	require.NoError(t, f.db.Model(&models.Solicitud{}).
		Where("id = ?", id).Update("estado_id", f.cerrado.ID).Error)

	for _, u := range []models.User{f.vendedor, f.jefe, f.admin} {
		err := f.svc.Update(context.Background(), f.actor(u), id,
			UpdatePayload{Cliente: "Otro", Asunto: "X"}, testMeta())
		assert.ErrorIs(t, err, ErrUnauthorized, "rol %s", u.Rol)
	}
}

func TestSolicitudService_Assign_RoleGate(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	for _, u := range []models.User{f.vendedor, f.analista} {
		err := f.svc.Assign(context.Background(), f.actor(u), id, &f.analista.ID, testMeta())
		assert.ErrorIs(t, err, ErrUnauthorized, "rol %s", u.Rol)
	}
}

func TestSolicitudService_Assign_InvalidTarget(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	ctx := context.Background()

	// Not an analista.
	err := f.svc.Assign(ctx, f.actor(f.jefe), id, &f.vendedor2.ID, testMeta())
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	// An analista deactivated before the commit. The transaction re-checks
	// the target, so the stale pick fails instead of landing.
	err = f.svc.Assign(ctx, f.actor(f.jefe), id, &f.inactivo.ID, testMeta())
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	s := f.reload(t, id)
	assert.Nil(t, s.AssignedUserID)
	assert.Empty(t, f.historial(t, id, models.ActionAssign))
}

func TestSolicitudService_Assign_AndUnassign(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	ctx := context.Background()

	require.NoError(t, f.svc.Assign(ctx, f.actor(f.jefe), id, &f.analista.ID, testMeta()))
	s := f.reload(t, id)
	require.NotNil(t, s.AssignedUserID)
	assert.Equal(t, f.analista.ID, *s.AssignedUserID)

	// Unassigning is always valid, even after the analista is deactivated.
	require.NoError(t, f.db.Model(&f.analista).Update("activo", false).Error)
	require.NoError(t, f.svc.Assign(ctx, f.actor(f.admin), id, nil, testMeta()))
	s = f.reload(t, id)
	assert.Nil(t, s.AssignedUserID)

	entries := f.historial(t, id, models.ActionAssign)
	require.Len(t, entries, 2)
	assert.Equal(t, "Analista asignado", entries[0].Resumen)
	assert.Equal(t, "Analista desasignado", entries[1].Resumen)

	var payload map[string]map[string]FieldChange
	require.NoError(t, json.Unmarshal([]byte(entries[0].CambiosJSON), &payload))
	assert.Contains(t, payload["cambios"], "assigned_user_id")
}

func TestSolicitudService_ChangeEstado_RequiresJustification(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	ctx := context.Background()

	err := f.svc.ChangeEstado(ctx, f.actor(f.jefe), id, f.enProceso.ID, "   ", testMeta())
	assert.True(t, IsValidation(err))

	err = f.svc.ChangeEstado(ctx, f.actor(f.jefe), id, f.enProceso.ID,
		strings.Repeat("a", models.MaxComentarioLen+1), testMeta())
	assert.True(t, IsValidation(err))

	assert.Empty(t, f.historial(t, id, models.ActionChangeStatus))
}

func TestSolicitudService_ChangeEstado_RoleGate(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	err := f.svc.ChangeEstado(context.Background(), f.actor(f.vendedor), id,
		f.enProceso.ID, "porque sí", testMeta())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSolicitudService_ChangeEstado_InactiveTarget(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	err := f.svc.ChangeEstado(context.Background(), f.actor(f.jefe), id,
		f.archivado.ID, "archivar", testMeta())
	assert.ErrorIs(t, err, ErrInvalidEstado)

	s := f.reload(t, id)
	assert.Equal(t, f.nuevo.ID, s.EstadoID)
	assert.Empty(t, f.historial(t, id, models.ActionChangeStatus))

	var comentarios int64
	f.db.Model(&models.SolicitudComentario{}).Where("solicitud_id = ?", id).Count(&comentarios)
	assert.Zero(t, comentarios)
}

func TestSolicitudService_ChangeEstado_Success(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	f.mustAssign(t, id, f.analista)

	err := f.svc.ChangeEstado(context.Background(), f.actor(f.analista), id,
		f.enProceso.ID, "empezando el análisis", testMeta())
	require.NoError(t, err)

	s := f.reload(t, id)
	assert.Equal(t, f.enProceso.ID, s.EstadoID)

	// The justification lands as a comment in the same transaction.
	var comentarios []models.SolicitudComentario
	require.NoError(t, f.db.Where("solicitud_id = ?", id).Find(&comentarios).Error)
	require.Len(t, comentarios, 1)
	assert.Equal(t, "empezando el análisis", comentarios[0].Comentario)
	assert.Equal(t, f.analista.ID, comentarios[0].ActorUserID)

	entries := f.historial(t, id, models.ActionChangeStatus)
	require.Len(t, entries, 1)
	assert.Equal(t, "Estado cambiado a: En Proceso", entries[0].Resumen)

	var payload map[string]map[string]FieldChange
	require.NoError(t, json.Unmarshal([]byte(entries[0].CambiosJSON), &payload))
	assert.Equal(t, "Nuevo", payload["cambios"]["estado"].Before)
	assert.Equal(t, "En Proceso", payload["cambios"]["estado"].After)
}

func TestSolicitudService_ChangeEstado_SameEstadoIsAudited(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	err := f.svc.ChangeEstado(context.Background(), f.actor(f.jefe), id,
		f.nuevo.ID, "confirmando estado", testMeta())
	require.NoError(t, err)

	assert.Len(t, f.historial(t, id, models.ActionChangeStatus), 1)
}

func TestSolicitudService_ChangeEstado_AnalistaOutOfScope(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	f.mustAssign(t, id, f.analista2)

	err := f.svc.ChangeEstado(context.Background(), f.actor(f.analista), id,
		f.enProceso.ID, "no es mía", testMeta())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSolicitudService_AddComentario(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	f.mustAssign(t, id, f.analista)
	ctx := context.Background()

	err := f.svc.AddComentario(ctx, f.actor(f.analista), id, "avance del caso", testMeta())
	require.NoError(t, err)

	var comentarios []models.SolicitudComentario
	require.NoError(t, f.db.Where("solicitud_id = ?", id).Find(&comentarios).Error)
	require.Len(t, comentarios, 1)

	entries := f.historial(t, id, models.ActionComment)
	require.Len(t, entries, 1)
	assert.Equal(t, "Comentario agregado", entries[0].Resumen)

	// Another vendedor cannot see the solicitud, so it cannot comment.
	err = f.svc.AddComentario(ctx, f.actor(f.vendedor2), id, "intruso", testMeta())
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.svc.AddComentario(ctx, f.actor(f.vendedor), id, "   ", testMeta())
	assert.True(t, IsValidation(err))
}

func TestSolicitudService_Assign_RollsBackWhenAuditFails(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	// With the historial table gone, the audit insert fails and the whole
	// transaction rolls back: no assignment without its audit entry.
	require.NoError(t, f.db.Migrator().DropTable(&models.SolicitudHistorial{}))

	err := f.svc.Assign(context.Background(), f.actor(f.jefe), id, &f.analista.ID, testMeta())
	assert.Error(t, err)

	s := f.reload(t, id)
	assert.Nil(t, s.AssignedUserID)
}

func TestSolicitudService_List_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 45; i++ {
		f.mustCreate(t, f.vendedor, "ACME", fmt.Sprintf("Asunto %02d", i))
	}

	result, err := f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 20)
	assert.Equal(t, int64(45), result.Total)

	result, err = f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Page: 3, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 5)

	// A page beyond the range is empty, not an error.
	result, err = f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Page: 4, PerPage: 20})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, int64(45), result.Total)
}

func TestSolicitudService_List_Scopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.mustCreate(t, f.vendedor, "ACME", "mía")
	other := f.mustCreate(t, f.vendedor2, "Beta", "ajena")
	f.mustAssign(t, other, f.analista)

	// Vendedor: only own rows, no tab choice.
	result, err := f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Tab: "all"})
	require.NoError(t, err)
	assert.Equal(t, TabMine, result.Tab)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, mine, result.Rows[0].ID)

	// Analista default tab: assigned to them.
	result, err = f.svc.List(ctx, f.actor(f.analista), ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, TabAssigned, result.Tab)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, other, result.Rows[0].ID)

	// Jefe "all": everything. Jefe "assigned": rows with any assignee.
	result, err = f.svc.List(ctx, f.actor(f.jefe), ListFilters{})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.NotEmpty(t, result.Analistas)

	result, err = f.svc.List(ctx, f.actor(f.jefe), ListFilters{Tab: "assigned"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, other, result.Rows[0].ID)
}

func TestSolicitudService_List_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, f.vendedor, "ACME Corp", "Cotización licencias")
	f.mustCreate(t, f.vendedor, "Beta SA", "Soporte")

	result, err := f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Cliente: "acm"})
	require.NoError(t, err)
	// LIKE is case-insensitive for ASCII in sqlite; the match is partial.
	assert.Len(t, result.Rows, 1)

	result, err = f.svc.List(ctx, f.actor(f.vendedor), ListFilters{Asunto: "Soporte"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Beta SA", result.Rows[0].Cliente)
}

func TestSolicitudService_GetDetail_OutOfScopeIsNotFound(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	_, err := f.svc.GetDetail(context.Background(), f.actor(f.vendedor2), id, repository.DetailPaging{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetDetail(context.Background(), f.actor(f.vendedor), 99999, repository.DetailPaging{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSolicitudService_GetDetail_PagesComentarios(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, f.svc.AddComentario(ctx, f.actor(f.vendedor), id,
			fmt.Sprintf("comentario %02d", i), testMeta()))
	}

	result, err := f.svc.GetDetail(ctx, f.actor(f.vendedor), id, repository.DetailPaging{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.Detail.ComTotal)
	assert.Len(t, result.Detail.Comentarios, 10)

	result, err = f.svc.GetDetail(ctx, f.actor(f.vendedor), id, repository.DetailPaging{ComPage: 2})
	require.NoError(t, err)
	assert.Len(t, result.Detail.Comentarios, 2)

	// Historial grew with every comment plus the create.
	assert.Equal(t, int64(13), result.Detail.HistTotal)
}

func TestSolicitudService_GetDetail_PermissionsAndLookups(t *testing.T) {
	f := newFixture(t)
	id := f.mustCreate(t, f.vendedor, "ACME", "X")

	result, err := f.svc.GetDetail(context.Background(), f.actor(f.jefe), id, repository.DetailPaging{})
	require.NoError(t, err)
	assert.True(t, result.Permissions.CanAssign)
	assert.NotEmpty(t, result.Estados)
	// The analista lookup ships only when the actor can assign.
	assert.NotEmpty(t, result.Analistas)

	result, err = f.svc.GetDetail(context.Background(), f.actor(f.vendedor), id, repository.DetailPaging{})
	require.NoError(t, err)
	assert.False(t, result.Permissions.CanAssign)
	assert.Empty(t, result.Analistas)
}

func TestSolicitudService_Export_UsesTabScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, f.vendedor, "ACME", "mía")
	f.mustCreate(t, f.vendedor2, "Beta", "ajena")

	rows, err := f.svc.Export(ctx, f.actor(f.vendedor), ListFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = f.svc.Export(ctx, f.actor(f.admin), ListFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

package services

import (
	"testing"

	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func solicitudWith(estado string, owner string, assigned *string) *models.Solicitud {
	s := &models.Solicitud{
		Estado: models.SolicitudEstado{Nombre: estado},
		Owner:  models.User{Username: owner},
	}
	if assigned != nil {
		s.AssignedUser = &models.User{Username: *assigned}
	}
	return s
}

func TestComputePermissions_VendedorOwner(t *testing.T) {
	actor := Actor{ID: 1, Username: "vend", Rol: models.RoleVendedor}
	s := solicitudWith("Nuevo", "vend", nil)

	p := ComputePermissions(actor, s)
	assert.True(t, p.IsOwner)
	assert.True(t, p.CanEdit)
	assert.False(t, p.CanAssign)
	assert.False(t, p.CanChangeStatus)
	assert.Equal(t, EditPolicy{Cliente: true, Asunto: true, Deadline: true, Detalle: true}, p.EditPolicy)
}

func TestComputePermissions_VendedorNotOwner(t *testing.T) {
	actor := Actor{ID: 1, Username: "vend", Rol: models.RoleVendedor}
	s := solicitudWith("Nuevo", "otro", nil)

	p := ComputePermissions(actor, s)
	assert.False(t, p.IsOwner)
	assert.False(t, p.CanEdit)
	assert.Equal(t, EditPolicy{}, p.EditPolicy)
}

func TestComputePermissions_AnalistaAssigned(t *testing.T) {
	ana := "ana"
	actor := Actor{ID: 2, Username: ana, Rol: models.RoleAnalista}
	s := solicitudWith("En Proceso", "vend", &ana)

	p := ComputePermissions(actor, s)
	assert.True(t, p.IsAssigned)
	assert.True(t, p.CanEdit)
	assert.True(t, p.CanChangeStatus)
	assert.False(t, p.CanAssign)
	// The analista edits only the detalle field.
	assert.Equal(t, EditPolicy{Detalle: true}, p.EditPolicy)
}

func TestComputePermissions_AnalistaNotAssigned(t *testing.T) {
	otra := "otra"
	actor := Actor{ID: 2, Username: "ana", Rol: models.RoleAnalista}
	s := solicitudWith("En Proceso", "vend", &otra)

	p := ComputePermissions(actor, s)
	assert.False(t, p.IsAssigned)
	assert.False(t, p.CanEdit)
	assert.True(t, p.CanChangeStatus)
	assert.Equal(t, EditPolicy{}, p.EditPolicy)
}

func TestComputePermissions_JefeAndAdmin(t *testing.T) {
	for _, rol := range []models.Role{models.RoleJefe, models.RoleAdmin} {
		actor := Actor{ID: 3, Username: "boss", Rol: rol}
		s := solicitudWith("Nuevo", "vend", nil)

		p := ComputePermissions(actor, s)
		assert.True(t, p.CanEdit, "rol %s", rol)
		assert.True(t, p.CanAssign, "rol %s", rol)
		assert.True(t, p.CanChangeStatus, "rol %s", rol)
		assert.Equal(t, EditPolicy{Cliente: true, Asunto: true, Deadline: true, Detalle: true}, p.EditPolicy)
	}
}

func TestComputePermissions_ClosedBlocksEditsForEveryRole(t *testing.T) {
	ana := "ana"
	for _, estado := range []string{"Cerrado", "Cancelado", "CERRADO", "cancelado"} {
		for _, actor := range []Actor{
			{ID: 1, Username: "vend", Rol: models.RoleVendedor},
			{ID: 2, Username: ana, Rol: models.RoleAnalista},
			{ID: 3, Username: "boss", Rol: models.RoleJefe},
			{ID: 4, Username: "root", Rol: models.RoleAdmin},
		} {
			s := solicitudWith(estado, "vend", &ana)
			p := ComputePermissions(actor, s)
			assert.True(t, p.Closed, "estado %s rol %s", estado, actor.Rol)
			assert.False(t, p.CanEdit, "estado %s rol %s", estado, actor.Rol)
			assert.Equal(t, EditPolicy{}, p.EditPolicy, "estado %s rol %s", estado, actor.Rol)
		}
	}
}

func TestComputePermissions_ClosedKeepsRoleGatedActions(t *testing.T) {
	// Closing blocks edits, not the assign/status actions; those stay
	// gated by role alone.
	actor := Actor{ID: 3, Username: "boss", Rol: models.RoleJefe}
	s := solicitudWith("Cerrado", "vend", nil)

	p := ComputePermissions(actor, s)
	assert.True(t, p.CanAssign)
	assert.True(t, p.CanChangeStatus)
}

func TestComputePermissions_UnknownRoleDeniesEverything(t *testing.T) {
	actor := Actor{ID: 9, Username: "x", Rol: models.Role("SUPERVISOR")}
	s := solicitudWith("Nuevo", "x", nil)

	p := ComputePermissions(actor, s)
	assert.False(t, p.CanEdit)
	assert.False(t, p.CanAssign)
	assert.False(t, p.CanChangeStatus)
}

package services

import (
	"github.com/solvia/solicitudes-api/internal/models"
)

// Actor identifies the authenticated user an operation runs as.
type Actor struct {
	ID       uint
	Username string
	Rol      models.Role
}

// EditPolicy lists, per field, what the actor may change.
type EditPolicy struct {
	Cliente  bool `json:"cliente"`
	Asunto   bool `json:"asunto"`
	Deadline bool `json:"deadline"`
	Detalle  bool `json:"detalle"`
}

// Permissions is the capability set derived for one actor against one
// solicitud snapshot. It must be recomputed from freshly loaded state at
// the start of every operation; status and assignment can change between
// requests.
type Permissions struct {
	IsOwner         bool       `json:"is_owner"`
	IsAssigned      bool       `json:"is_assigned"`
	Closed          bool       `json:"closed"`
	CanEdit         bool       `json:"can_edit"`
	CanAssign       bool       `json:"can_assign"`
	CanChangeStatus bool       `json:"can_change_status"`
	EditPolicy      EditPolicy `json:"edit_policy"`
}

// ComputePermissions derives the actor's capabilities over a solicitud.
// Pure; every role is matched explicitly so a new role value cannot fall
// through to an implicit allow.
func ComputePermissions(actor Actor, s *models.Solicitud) Permissions {
	isOwner := s.Owner.Username == actor.Username
	isAssigned := s.AssignedUser != nil && s.AssignedUser.Username == actor.Username
	closed := s.IsClosed()

	p := Permissions{
		IsOwner:    isOwner,
		IsAssigned: isAssigned,
		Closed:     closed,
	}

	switch actor.Rol {
	case models.RoleJefe, models.RoleAdmin:
		p.CanAssign = true
		p.CanChangeStatus = true
		p.CanEdit = !closed
	case models.RoleAnalista:
		p.CanChangeStatus = true
		p.CanEdit = !closed && isAssigned
	case models.RoleVendedor:
		p.CanEdit = !closed && isOwner
	}

	if closed {
		return p
	}

	switch actor.Rol {
	case models.RoleJefe, models.RoleAdmin:
		p.EditPolicy = EditPolicy{Cliente: true, Asunto: true, Deadline: true, Detalle: true}
	case models.RoleVendedor:
		if isOwner {
			p.EditPolicy = EditPolicy{Cliente: true, Asunto: true, Deadline: true, Detalle: true}
		}
	case models.RoleAnalista:
		if isAssigned {
			p.EditPolicy = EditPolicy{Detalle: true}
		}
	}

	return p
}

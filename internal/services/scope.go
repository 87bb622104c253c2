package services

import (
	"strings"

	"github.com/solvia/solicitudes-api/internal/models"
	"github.com/solvia/solicitudes-api/internal/repository"
)

// Tab is a listing tab key.
type Tab string

const (
	TabAll      Tab = "all"
	TabMine     Tab = "mine"
	TabAssigned Tab = "assigned"
)

// TabLabels maps tab keys to their display names.
var TabLabels = map[Tab]string{
	TabAll:      "Todas",
	TabMine:     "Mis solicitudes",
	TabAssigned: "Asignadas",
}

// allowedTabs lists, in order, the tabs each role may open. The first entry
// doubles as the fallback when an invalid tab is requested.
func allowedTabs(rol models.Role) []Tab {
	switch rol {
	case models.RoleVendedor:
		return []Tab{TabMine}
	case models.RoleAnalista:
		return []Tab{TabAssigned, TabMine}
	case models.RoleJefe, models.RoleAdmin:
		return []Tab{TabAll, TabMine, TabAssigned}
	}
	return []Tab{TabMine}
}

// defaultTab is the tab opened when none was requested. It is not the same
// as the invalid-tab fallback: an analista defaults to "assigned" but an
// invalid request also lands on "assigned" because it is first; a jefe
// defaults to "all" while an invalid request still falls back to "all".
func defaultTab(rol models.Role) Tab {
	switch rol {
	case models.RoleAnalista:
		return TabAssigned
	case models.RoleVendedor:
		return TabMine
	case models.RoleJefe, models.RoleAdmin:
		return TabAll
	}
	return TabMine
}

// ResolveTab picks the effective tab for a role. Requested keys are
// case-insensitive; an empty request yields the role default, an unknown
// or disallowed request yields the first allowed tab.
func ResolveTab(rol models.Role, requested string) (Tab, []Tab) {
	allowed := allowedTabs(rol)

	if requested == "" {
		return defaultTab(rol), allowed
	}

	normalized := Tab(strings.ToLower(requested))
	for _, t := range allowed {
		if t == normalized {
			return normalized, allowed
		}
	}
	return allowed[0], allowed
}

// TabScope maps a resolved tab to the query scope. For jefe/admin the
// "assigned" tab means every solicitud that has any assignee, not
// "assigned to me"; that role has no own-assignment concept.
func TabScope(rol models.Role, tab Tab, userID uint) (repository.Scope, bool) {
	switch rol {
	case models.RoleJefe, models.RoleAdmin:
		switch tab {
		case TabMine:
			return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}, false
		case TabAssigned:
			return repository.Scope{Mode: repository.ScopeAll}, true
		default:
			return repository.Scope{Mode: repository.ScopeAll}, false
		}
	case models.RoleAnalista:
		if tab == TabMine {
			return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}, false
		}
		return repository.Scope{Mode: repository.ScopeAssigned, UserID: userID}, false
	case models.RoleVendedor:
		return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}, false
	}
	return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}, false
}

// DetailScope is the visibility scope used for single-solicitud lookups,
// independent of any tab.
func DetailScope(rol models.Role, userID uint) repository.Scope {
	switch rol {
	case models.RoleAdmin, models.RoleJefe:
		return repository.Scope{Mode: repository.ScopeAll}
	case models.RoleAnalista:
		return repository.Scope{Mode: repository.ScopeAssigned, UserID: userID}
	case models.RoleVendedor:
		return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}
	}
	return repository.Scope{Mode: repository.ScopeOwner, UserID: userID}
}

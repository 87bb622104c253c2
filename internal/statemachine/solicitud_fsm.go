package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/solvia/solicitudes-api/internal/models"
)

// SolicitudFSM guards estado transitions for one solicitud. Any active
// estado is reachable from any other; transitions to inactive or unknown
// estados are rejected. Role checks live in the service layer.
type SolicitudFSM struct {
	fsm *fsm.FSM
}

func eventName(estadoID uint) string {
	return fmt.Sprintf("goto_%d", estadoID)
}

// NewSolicitudFSM builds the machine from the currently active estados.
// The current estado may itself be inactive (e.g. retired after the
// solicitud reached it); it is still a valid source.
func NewSolicitudFSM(current models.SolicitudEstado, activos []models.SolicitudEstado) *SolicitudFSM {
	sources := []string{current.Nombre}
	for _, e := range activos {
		if e.ID != current.ID {
			sources = append(sources, e.Nombre)
		}
	}

	var events fsm.Events
	for _, e := range activos {
		events = append(events, fsm.EventDesc{
			Name: eventName(e.ID),
			Src:  sources,
			Dst:  e.Nombre,
		})
	}

	return &SolicitudFSM{
		fsm: fsm.NewFSM(current.Nombre, events, fsm.Callbacks{}),
	}
}

// Transition moves to the target estado, failing when the target is not an
// active estado of the machine.
func (m *SolicitudFSM) Transition(ctx context.Context, target models.SolicitudEstado) error {
	if !m.fsm.Can(eventName(target.ID)) {
		return fmt.Errorf("cannot transition from %q to %q", m.fsm.Current(), target.Nombre)
	}
	if err := m.fsm.Event(ctx, eventName(target.ID)); err != nil {
		// Keeping the current estado is allowed; it still gets audited.
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return nil
		}
		return fmt.Errorf("transition to %q failed: %w", target.Nombre, err)
	}
	return nil
}

// Current returns the current estado name.
func (m *SolicitudFSM) Current() string {
	return m.fsm.Current()
}

// Package cod contiene la máquina de estados de conciliación del cobro contra entrega
// y las reglas de dominio que protegen los invariantes de monto entre registros y remesas.
package cod

import (
	"github.com/jhoicas/cod-remittance-api/internal/domain"
	"github.com/jhoicas/cod-remittance-api/internal/domain/entity"
)

// Event evento que dispara una transición de un registro COD.
type Event string

// Eventos del registro COD.
const (
	EventCollect Event = "collect"
	EventDispute Event = "dispute"
	EventCancel  Event = "cancel"
	EventRemit   Event = "remit" // solo el agregador de remesas
	EventClear   Event = "clear" // solo la operación de limpieza
)

// IsManual indica si el evento puede originarse en una acción de mensajero u operador.
func (e Event) IsManual() bool {
	switch e {
	case EventCollect, EventDispute, EventCancel:
		return true
	}
	return false
}

type transitionKey struct {
	from  entity.CodStatus
	event Event
}

// transitions tabla completa; cualquier par ausente es ilegal.
var transitions = map[transitionKey]entity.CodStatus{
	{entity.CodStatusPendingCollection, EventCollect}: entity.CodStatusCollected,
	{entity.CodStatusPendingCollection, EventDispute}: entity.CodStatusDisputed,
	{entity.CodStatusPendingCollection, EventCancel}:  entity.CodStatusCancelled,
	{entity.CodStatusCollected, EventRemit}:           entity.CodStatusRemitted,
	{entity.CodStatusCollected, EventDispute}:         entity.CodStatusDisputed,
	{entity.CodStatusCollected, EventCancel}:          entity.CodStatusCancelled,
	{entity.CodStatusRemitted, EventClear}:            entity.CodStatusCollected,
}

// Transition devuelve el estado destino o un *domain.IllegalTransitionError.
func Transition(from entity.CodStatus, ev Event) (entity.CodStatus, error) {
	to, ok := transitions[transitionKey{from: from, event: ev}]
	if !ok {
		return from, &domain.IllegalTransitionError{From: string(from), Event: string(ev)}
	}
	return to, nil
}

// CanTransition consulta la tabla sin construir el error.
func CanTransition(from entity.CodStatus, ev Event) bool {
	_, ok := transitions[transitionKey{from: from, event: ev}]
	return ok
}

// IsTerminalForOperator indica si el operador ya no puede mover el registro manualmente.
func IsTerminalForOperator(s entity.CodStatus) bool {
	for _, ev := range []Event{EventCollect, EventDispute, EventCancel} {
		if CanTransition(s, ev) {
			return false
		}
	}
	return true
}

// Package registry es el dueño exclusivo del estado de las señales.
//
// Una señal registrada vive en exactamente UNA de tres colecciones
// (pendiente, activa, cancelada) en todo momento; el índice de textos es
// append-only y sobrevive a las tres (se usa para mostrar la señal original
// aunque ya no esté en ningún estado). Ningún otro paquete muta las
// colecciones: solo existen las operaciones de transición de este tipo.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/frandmz/senalbot/internal/domain"
)

// Registry mantiene las colecciones de señales bajo un único lock. El
// procesamiento de mensajes es de a uno por vez, pero el lock preserva la
// invariante de membresía única si el host entrega eventos concurrentes.
type Registry struct {
	mu        sync.Mutex
	pending   map[int64]*domain.SignalRecord
	active    map[int64]*domain.SignalRecord
	cancelled map[int64]*domain.SignalRecord
	texts     map[int64]string
}

// New crea un Registry vacío.
func New() *Registry {
	return &Registry{
		pending:   make(map[int64]*domain.SignalRecord),
		active:    make(map[int64]*domain.SignalRecord),
		cancelled: make(map[int64]*domain.SignalRecord),
		texts:     make(map[int64]string),
	}
}

// RegisterPending registra una señal recién parseada como pendiente y guarda
// su texto original en el índice.
func (r *Registry) RegisterPending(messageID int64, sig domain.TradeSignal, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending[messageID] = &domain.SignalRecord{
		MessageID:    messageID,
		Signal:       sig,
		ParsedSide:   sig.Side,
		OriginalText: text,
		RegisteredAt: time.Now(),
	}
	r.texts[messageID] = text
}

// StateOf devuelve el estado de la señal con prioridad pendiente → activa →
// cancelada, el mismo orden que usa el resolver de cadenas.
func (r *Registry) StateOf(messageID int64) (domain.SignalState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked(messageID)
}

func (r *Registry) stateLocked(messageID int64) (domain.SignalState, bool) {
	if _, ok := r.pending[messageID]; ok {
		return domain.StatePending, true
	}
	if _, ok := r.active[messageID]; ok {
		return domain.StateActive, true
	}
	if _, ok := r.cancelled[messageID]; ok {
		return domain.StateCancelled, true
	}
	return domain.StateNotFound, false
}

// OriginalText devuelve el texto original del índice. Puede faltar aunque la
// señal exista en alguna colección; eso está permitido.
func (r *Registry) OriginalText(messageID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, ok := r.texts[messageID]
	return text, ok
}

// PrepareEntry valida que la señal pueda entrar a mercado (pendiente o
// cancelada) y aplica el override de dirección de buy_now/sell_now. La
// dirección parseada se retiene en ParsedSide para auditoría. Devuelve una
// copia para armar la orden; el estado no cambia hasta Activate.
func (r *Registry) PrepareEntry(messageID int64, override *domain.Side) (domain.SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.pending[messageID]
	if !ok {
		rec, ok = r.cancelled[messageID]
	}
	if !ok {
		if _, isActive := r.active[messageID]; isActive {
			return domain.SignalRecord{}, domain.ErrInvalidTransition
		}
		return domain.SignalRecord{}, domain.ErrSignalNotFound
	}

	if override != nil {
		rec.Signal.Side = *override
	}
	return *rec, nil
}

// Activate mueve la señal de pendiente/cancelada a activa con el ticket
// devuelto por el broker. Se llama solo tras una ejecución exitosa; si el
// bridge falló, la señal queda donde estaba y la acción puede reintentarse.
func (r *Registry) Activate(messageID int64, ticket int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.pending[messageID]
	if ok {
		delete(r.pending, messageID)
	} else if rec, ok = r.cancelled[messageID]; ok {
		delete(r.cancelled, messageID)
	} else {
		if _, isActive := r.active[messageID]; isActive {
			return domain.ErrInvalidTransition
		}
		return domain.ErrSignalNotFound
	}

	rec.Ticket = ticket
	r.active[messageID] = rec
	return nil
}

// Cancel copia la señal a canceladas desde pendiente o activa y devuelve el
// estado previo junto con el registro (el orquestador cierra la orden en el
// broker si estaba activa). Cancelar una cancelada no es una transición.
func (r *Registry) Cancel(messageID int64) (domain.SignalRecord, domain.SignalState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.pending[messageID]; ok {
		delete(r.pending, messageID)
		r.cancelled[messageID] = rec
		return *rec, domain.StatePending, nil
	}
	if rec, ok := r.active[messageID]; ok {
		delete(r.active, messageID)
		r.cancelled[messageID] = rec
		return *rec, domain.StateActive, nil
	}
	if _, ok := r.cancelled[messageID]; ok {
		return domain.SignalRecord{}, domain.StateCancelled, domain.ErrInvalidTransition
	}
	return domain.SignalRecord{}, domain.StateNotFound, domain.ErrSignalNotFound
}

// Reactivate (round) mueve la señal a pendiente desde cualquier estado.
// Sobre una pendiente es no-op. El ticket queda en el registro solo como
// historia; una señal pendiente no tiene orden viva.
func (r *Registry) Reactivate(messageID int64) (domain.SignalState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[messageID]; ok {
		return domain.StatePending, nil
	}
	if rec, ok := r.cancelled[messageID]; ok {
		delete(r.cancelled, messageID)
		r.pending[messageID] = rec
		return domain.StateCancelled, nil
	}
	if rec, ok := r.active[messageID]; ok {
		delete(r.active, messageID)
		r.pending[messageID] = rec
		return domain.StateActive, nil
	}
	return domain.StateNotFound, domain.ErrSignalNotFound
}

// ActiveRecord devuelve una copia de la señal activa, para cerrar o mover el
// SL. Si la señal existe pero no está activa, la acción no aplica.
func (r *Registry) ActiveRecord(messageID int64) (domain.SignalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.active[messageID]; ok {
		return *rec, nil
	}
	if _, ok := r.stateLocked(messageID); ok {
		return domain.SignalRecord{}, domain.ErrInvalidTransition
	}
	return domain.SignalRecord{}, domain.ErrSignalNotFound
}

// Drop elimina una señal activa tras un cierre exitoso ("cerrar"). A
// diferencia de Cancel no deja copia: la operación terminó, no hay nada que
// reactivar. El texto queda en el índice para auditoría.
func (r *Registry) Drop(messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[messageID]; !ok {
		if _, exists := r.stateLocked(messageID); exists {
			return domain.ErrInvalidTransition
		}
		return domain.ErrSignalNotFound
	}
	delete(r.active, messageID)
	return nil
}

// PendingSnapshot devuelve las señales pendientes ordenadas por id.
func (r *Registry) PendingSnapshot() []domain.SignalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.pending)
}

// ActiveSnapshot devuelve las señales activas ordenadas por id.
func (r *Registry) ActiveSnapshot() []domain.SignalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.active)
}

// CancelledSnapshot devuelve las señales canceladas ordenadas por id.
func (r *Registry) CancelledSnapshot() []domain.SignalRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.cancelled)
}

func snapshot(m map[int64]*domain.SignalRecord) []domain.SignalRecord {
	out := make([]domain.SignalRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	return out
}

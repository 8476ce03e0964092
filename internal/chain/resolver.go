// Package chain sigue cadenas de respuestas del canal hacia arriba hasta dar
// con la señal que origina una acción.
package chain

import (
	"context"
	"log/slog"

	"github.com/frandmz/senalbot/internal/domain"
	"github.com/frandmz/senalbot/internal/ports"
)

// Index es la vista de solo lectura del registro que necesita el resolver.
type Index interface {
	StateOf(messageID int64) (domain.SignalState, bool)
	OriginalText(messageID int64) (string, bool)
}

// Resolver camina la cadena de respuestas consultando el historial del canal.
type Resolver struct {
	messages ports.MessageProvider
}

// NewResolver crea un Resolver sobre el historial dado.
func NewResolver(messages ports.MessageProvider) *Resolver {
	return &Resolver{messages: messages}
}

// Resolve busca, partiendo del mensaje al que msg responde, la señal
// registrada que origina la acción. En cada paso consulta la membresía con
// prioridad pendiente → activa → cancelada; si no hay match sube al padre.
//
// La profundidad es ilimitada a propósito (las cadenas reales pueden ser
// largas), pero un set de visitados corta ciclos: la cadena viene de afuera
// y puede estar corrupta o ser circular. Cualquier fallo del historial
// aborta la caminata y reporta no-encontrada, sin reintentos.
//
// El texto devuelto puede ser vacío aunque la señal exista: el índice de
// textos es independiente de las colecciones de estado.
func (r *Resolver) Resolve(ctx context.Context, msg domain.Message, idx Index) (int64, domain.SignalState, string) {
	current := msg.ReplyTo
	visited := make(map[int64]struct{})

	for current != 0 {
		if _, seen := visited[current]; seen {
			slog.Warn("chain: reply loop detected, aborting walk",
				"message_id", msg.ID, "repeated_id", current)
			break
		}
		visited[current] = struct{}{}

		if state, ok := idx.StateOf(current); ok {
			text, _ := idx.OriginalText(current)
			slog.Debug("chain: signal found",
				"signal_id", current, "state", string(state), "hops", len(visited))
			return current, state, text
		}

		parent, err := r.messages.GetMessage(ctx, msg.ChatID, current)
		if err != nil {
			slog.Warn("chain: history fetch failed, aborting walk",
				"message_id", current, "err", err)
			break
		}
		if parent == nil || parent.ReplyTo == 0 {
			break
		}
		current = parent.ReplyTo
	}

	return 0, domain.StateNotFound, ""
}

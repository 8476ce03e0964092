package ports

import (
	"context"

	"github.com/frandmz/senalbot/internal/domain"
)

// MessageProvider da acceso al historial del canal, usado por el resolver
// para seguir cadenas de respuestas hacia arriba.
type MessageProvider interface {
	// GetMessage devuelve el mensaje con ese id dentro del chat, o nil si no
	// se conoce.
	GetMessage(ctx context.Context, chatID, messageID int64) (*domain.Message, error)
}

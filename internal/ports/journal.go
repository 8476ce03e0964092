package ports

import (
	"context"

	"github.com/frandmz/senalbot/internal/domain"
)

// ActionJournal persiste la bitácora de señales y acciones.
type ActionJournal interface {
	// RecordAction agrega una entrada a la bitácora.
	RecordAction(ctx context.Context, entry domain.JournalEntry) error

	// Stats resume la bitácora acumulada.
	Stats(ctx context.Context) (domain.DailyStats, error)

	// Close cierra la conexión limpiamente.
	Close() error
}

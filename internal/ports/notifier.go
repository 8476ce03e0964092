package ports

import (
	"context"

	"github.com/frandmz/senalbot/internal/domain"
)

// Notifier presenta el estado de las señales al usuario.
type Notifier interface {
	// ListSignals muestra las señales pendientes y activas junto con el
	// resumen de la bitácora.
	ListSignals(ctx context.Context, pending, active []domain.SignalRecord, stats domain.DailyStats) error
}

package ports

import (
	"context"

	"github.com/frandmz/senalbot/internal/domain"
)

// MarketOrderRequest es lo que el core le pide al bridge de ejecución.
// ReferenceEntry es el precio de entrada derivado de la señal: el bridge lo
// usa para recalcular las distancias de SL/TP contra el precio de mercado
// actual al momento de ejecutar.
type MarketOrderRequest struct {
	Symbol         domain.Symbol
	Side           domain.Side
	Volume         float64
	StopLoss       *float64
	TakeProfit     *float64
	ReferenceEntry float64
	ClientRef      string // id propio para correlacionar con la bitácora
}

// OrderExecutor es el bridge hacia el broker. Todas las operaciones son
// sincrónicas desde el punto de vista del core: este espera un resultado
// definitivo antes de transicionar estado. Un error o un ticket cero se
// tratan igual, como fallo.
type OrderExecutor interface {
	// PlaceMarketOrder ejecuta una orden a mercado y devuelve el ticket.
	PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (int64, error)

	// CloseOrder cierra la posición identificada por el ticket.
	CloseOrder(ctx context.Context, ticket int64) error

	// MoveStopToEntry mueve el stop loss al precio de entrada (break even).
	MoveStopToEntry(ctx context.Context, ticket int64) error
}

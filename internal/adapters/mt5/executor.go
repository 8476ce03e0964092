package mt5

// executor.go — implementación de ports.OrderExecutor sobre el gateway.
//
// El gateway responde siempre 200 con un retcode de la terminal en el body;
// los retcodes distintos de "done" se convierten en error aquí para que el
// resto del sistema no conozca la tabla de códigos de MT5.

import (
	"context"
	"fmt"

	"github.com/frandmz/senalbot/internal/ports"
)

// retcode "done" de la terminal (TRADE_RETCODE_DONE).
const retcodeDone = 10009

type marketOrderBody struct {
	Symbol         string   `json:"symbol"`
	Side           string   `json:"side"`
	Volume         float64  `json:"volume"`
	StopLoss       *float64 `json:"sl,omitempty"`
	TakeProfit     *float64 `json:"tp,omitempty"`
	ReferenceEntry float64  `json:"reference_entry"`
	ClientRef      string   `json:"client_ref"`
}

type ticketBody struct {
	Ticket int64 `json:"ticket"`
}

type tradeResponse struct {
	Ticket  int64  `json:"ticket"`
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
}

// PlaceMarketOrder abre una posición a mercado y devuelve el ticket asignado.
func (c *Client) PlaceMarketOrder(ctx context.Context, req ports.MarketOrderRequest) (int64, error) {
	var resp tradeResponse
	if err := c.post(ctx, "/orders/market", marketOrderBody{
		Symbol:         string(req.Symbol),
		Side:           string(req.Side),
		Volume:         req.Volume,
		StopLoss:       req.StopLoss,
		TakeProfit:     req.TakeProfit,
		ReferenceEntry: req.ReferenceEntry,
		ClientRef:      req.ClientRef,
	}, &resp); err != nil {
		return 0, fmt.Errorf("mt5.PlaceMarketOrder: %s %s: %w", req.Symbol, req.Side, err)
	}
	if resp.Retcode != retcodeDone || resp.Ticket == 0 {
		return 0, fmt.Errorf("mt5.PlaceMarketOrder: terminal retcode %d: %s", resp.Retcode, resp.Message)
	}
	return resp.Ticket, nil
}

// CloseOrder cierra la posición identificada por ticket.
func (c *Client) CloseOrder(ctx context.Context, ticket int64) error {
	var resp tradeResponse
	if err := c.post(ctx, "/orders/close", ticketBody{Ticket: ticket}, &resp); err != nil {
		return fmt.Errorf("mt5.CloseOrder: ticket %d: %w", ticket, err)
	}
	if resp.Retcode != retcodeDone {
		return fmt.Errorf("mt5.CloseOrder: terminal retcode %d: %s", resp.Retcode, resp.Message)
	}
	return nil
}

// MoveStopToEntry mueve el stop loss de la posición a su precio de entrada.
func (c *Client) MoveStopToEntry(ctx context.Context, ticket int64) error {
	var resp tradeResponse
	if err := c.post(ctx, "/orders/breakeven", ticketBody{Ticket: ticket}, &resp); err != nil {
		return fmt.Errorf("mt5.MoveStopToEntry: ticket %d: %w", ticket, err)
	}
	if resp.Retcode != retcodeDone {
		return fmt.Errorf("mt5.MoveStopToEntry: terminal retcode %d: %s", resp.Retcode, resp.Message)
	}
	return nil
}

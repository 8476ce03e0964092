// Package assistant orquesta el flujo mensaje → señal/acción → transición.
// Procesa estrictamente un mensaje a la vez: cada evento se completa antes de
// tomar el siguiente, así las colecciones nunca ven mutaciones entrelazadas.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frandmz/senalbot/internal/chain"
	"github.com/frandmz/senalbot/internal/domain"
	"github.com/frandmz/senalbot/internal/ports"
	"github.com/frandmz/senalbot/internal/registry"
	"github.com/frandmz/senalbot/internal/signal"
)

// Config controla la ejecución de órdenes.
type Config struct {
	Volume          float64       // lotes por orden
	CloseRetries    int           // intentos de cierre antes de rendirse
	CloseRetryDelay time.Duration // espera fija entre intentos
}

// DefaultConfig devuelve los valores de producción.
func DefaultConfig() Config {
	return Config{
		Volume:          0.1,
		CloseRetries:    3,
		CloseRetryDelay: 100 * time.Millisecond,
	}
}

// Assistant recibe los mensajes del canal y aplica las transiciones del
// ciclo de vida, delegando los efectos en el bridge de ejecución.
type Assistant struct {
	cfg      Config
	reg      *registry.Registry
	resolver *chain.Resolver
	exec     ports.OrderExecutor
	journal  ports.ActionJournal // puede ser nil en dry-run
	notifier ports.Notifier
}

// New crea un Assistant con todas las dependencias inyectadas.
func New(
	cfg Config,
	reg *registry.Registry,
	resolver *chain.Resolver,
	exec ports.OrderExecutor,
	journal ports.ActionJournal,
	notifier ports.Notifier,
) *Assistant {
	if cfg.CloseRetries <= 0 {
		cfg.CloseRetries = 3
	}
	if cfg.Volume <= 0 {
		cfg.Volume = 0.1
	}
	return &Assistant{
		cfg:      cfg,
		reg:      reg,
		resolver: resolver,
		exec:     exec,
		journal:  journal,
		notifier: notifier,
	}
}

// Run consume mensajes hasta que el contexto se cancele o el canal se cierre.
func (a *Assistant) Run(ctx context.Context, messages <-chan domain.Message) error {
	slog.Info("assistant starting", "volume", a.cfg.Volume)
	for {
		select {
		case <-ctx.Done():
			slog.Info("assistant stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				slog.Info("message stream closed")
				return nil
			}
			a.HandleMessage(ctx, msg)
		}
	}
}

// HandleMessage procesa un mensaje del canal. Todos los fallos son no
// fatales: se loguean y el procesamiento continúa con el próximo mensaje.
func (a *Assistant) HandleMessage(ctx context.Context, msg domain.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if sig, ok := signal.Parse(text); ok {
		a.reg.RegisterPending(msg.ID, sig, text)
		slog.Info("signal detected",
			"message_id", msg.ID,
			"symbol", string(sig.Symbol),
			"side", string(sig.Side),
			"entry", sig.Entry,
		)
		a.record(ctx, "entrada", "nueva_senal", msg.ID, 0, text, "")
		return
	}

	action := signal.Classify(text)
	if action.None() {
		return
	}
	slog.Info("action detected", "message_id", msg.ID, "action", action.Kind.String())

	if action.Kind == domain.ActionList {
		a.listSignals(ctx)
		return
	}

	signalID, state, origText := a.resolver.Resolve(ctx, msg, a.reg)
	if signalID == 0 {
		slog.Warn("original signal not found", "message_id", msg.ID, "action", action.Kind.String())
		return
	}
	slog.Info("original signal resolved",
		"signal_id", signalID, "state", string(state))

	switch action.Kind {
	case domain.ActionHitEntry, domain.ActionBuyNow, domain.ActionSellNow:
		a.handleEntry(ctx, action, signalID, origText)
	case domain.ActionRound:
		a.handleRound(ctx, signalID, origText)
	case domain.ActionCancel, domain.ActionStopHit:
		a.handleCancel(ctx, action, signalID, origText)
	case domain.ActionClose:
		a.handleClose(ctx, signalID, origText)
	case domain.ActionBreakEven:
		a.handleBreakEven(ctx, signalID, origText)
	case domain.ActionTakeProfit:
		// Marcador de resultado: sin mutación de estado, solo bitácora.
		a.record(ctx, "tp", action.Raw, signalID, 0, origText, text)
		slog.Info("take profit registered", "signal_id", signalID, "detail", action.Raw)
	}
}

// handleEntry ejecuta hit_entry/buy_now/sell_now: orden a mercado y pase a
// activa. Si el bridge falla, la señal queda en su estado de origen para que
// un mensaje posterior pueda reintentar.
func (a *Assistant) handleEntry(ctx context.Context, action domain.Action, signalID int64, origText string) {
	var override *domain.Side
	switch action.Kind {
	case domain.ActionBuyNow:
		side := domain.SideBuy
		override = &side
	case domain.ActionSellNow:
		side := domain.SideSell
		override = &side
	}

	rec, err := a.reg.PrepareEntry(signalID, override)
	if err != nil {
		slog.Warn("entry not applicable", "signal_id", signalID, "err", err)
		return
	}

	ticket, err := a.exec.PlaceMarketOrder(ctx, ports.MarketOrderRequest{
		Symbol:         rec.Signal.Symbol,
		Side:           rec.Signal.Side,
		Volume:         a.cfg.Volume,
		StopLoss:       rec.Signal.StopLoss,
		TakeProfit:     rec.Signal.TakeProfit,
		ReferenceEntry: rec.Signal.Entry,
		ClientRef:      uuid.NewString(),
	})
	if err != nil || ticket == 0 {
		if err == nil {
			err = domain.ErrBridgeFailure
		}
		slog.Error("market order failed", "signal_id", signalID, "err", err)
		return
	}

	if err := a.reg.Activate(signalID, ticket); err != nil {
		// Solo alcanzable si otra transición se coló entre Prepare y Activate.
		slog.Error("activate failed after fill", "signal_id", signalID, "ticket", ticket, "err", err)
		return
	}

	slog.Info("order executed at market",
		"signal_id", signalID, "ticket", ticket, "action", action.Kind.String())
	a.record(ctx, "entrada", action.Kind.String(), signalID, ticket, origText, "ejecucion a mercado")
}

// handleRound reactiva la señal moviéndola a pendiente desde cualquier estado.
func (a *Assistant) handleRound(ctx context.Context, signalID int64, origText string) {
	prev, err := a.reg.Reactivate(signalID)
	if err != nil {
		slog.Warn("reactivation failed", "signal_id", signalID, "err", err)
		return
	}
	slog.Info("signal reactivated", "signal_id", signalID, "previous_state", string(prev))
	a.record(ctx, "reactivacion", "round", signalID, 0, origText, fmt.Sprintf("estado anterior: %s", prev))
	a.listSignals(ctx)
}

// handleCancel cancela desde pendiente o activa. Si estaba activa, además
// pide el cierre al broker; un fallo de cierre no revierte la cancelación,
// solo se reporta.
func (a *Assistant) handleCancel(ctx context.Context, action domain.Action, signalID int64, origText string) {
	rec, prev, err := a.reg.Cancel(signalID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) && action.Kind == domain.ActionStopHit {
			// Stop reportado sobre una señal ya cancelada: marcador de
			// resultado, no transición.
			a.record(ctx, "perdida", action.Kind.String(), signalID, 0, origText, "")
			return
		}
		slog.Warn("cancel not applicable", "signal_id", signalID, "err", err)
		return
	}

	if prev == domain.StateActive && rec.Ticket != 0 {
		if err := a.closeWithRetries(ctx, rec.Ticket); err != nil {
			slog.Error("close after cancel failed", "signal_id", signalID, "ticket", rec.Ticket, "err", err)
		}
	}

	slog.Info("signal cancelled",
		"signal_id", signalID, "previous_state", string(prev), "reason", action.Kind.String())
	a.record(ctx, "cancelacion", action.Kind.String(), signalID, rec.Ticket, origText, fmt.Sprintf("motivo: %s", action.Kind))
	if prev == domain.StateActive {
		a.listSignals(ctx)
	}
}

// handleClose cierra una señal activa y la elimina del todo (sin copia en
// canceladas). Si el cierre falla tras los reintentos, la señal sigue activa.
func (a *Assistant) handleClose(ctx context.Context, signalID int64, origText string) {
	rec, err := a.reg.ActiveRecord(signalID)
	if err != nil {
		slog.Warn("close not applicable", "signal_id", signalID, "err", err)
		return
	}
	if rec.Ticket == 0 {
		slog.Error("active signal without ticket", "signal_id", signalID, "err", domain.ErrNoTicket)
		return
	}

	if err := a.closeWithRetries(ctx, rec.Ticket); err != nil {
		slog.Error("close failed, signal remains active",
			"signal_id", signalID, "ticket", rec.Ticket, "err", err)
		a.record(ctx, "actualizacion", "cerrar", signalID, rec.Ticket, origText, "cierre fallido")
		return
	}

	if err := a.reg.Drop(signalID); err != nil {
		slog.Error("drop after close failed", "signal_id", signalID, "err", err)
	}
	slog.Info("order closed", "signal_id", signalID, "ticket", rec.Ticket)
	a.record(ctx, "actualizacion", "cerrar", signalID, rec.Ticket, origText, "")
	a.listSignals(ctx)
}

// handleBreakEven mueve el SL a la entrada. Un solo intento, sin reintentos:
// si el mercado ya pasó por la entrada el reintento no tiene sentido.
// El estado de la señal no cambia pase lo que pase.
func (a *Assistant) handleBreakEven(ctx context.Context, signalID int64, origText string) {
	rec, err := a.reg.ActiveRecord(signalID)
	if err != nil {
		slog.Warn("break even not applicable", "signal_id", signalID, "err", err)
		return
	}
	if rec.Ticket == 0 {
		slog.Error("active signal without ticket", "signal_id", signalID, "err", domain.ErrNoTicket)
		return
	}

	if err := a.exec.MoveStopToEntry(ctx, rec.Ticket); err != nil {
		slog.Error("break even failed", "signal_id", signalID, "ticket", rec.Ticket, "err", err)
	} else {
		slog.Info("break even executed", "signal_id", signalID, "ticket", rec.Ticket)
	}
	a.record(ctx, "actualizacion", "be", signalID, rec.Ticket, origText, "")
	a.listSignals(ctx)
}

// closeWithRetries intenta cerrar la orden con reintentos acotados y espera
// fija. Los reintentos son locales a esta operación: no bloquean al resto
// más allá del presupuesto.
func (a *Assistant) closeWithRetries(ctx context.Context, ticket int64) error {
	var lastErr error
	for attempt := 1; attempt <= a.cfg.CloseRetries; attempt++ {
		err := a.exec.CloseOrder(ctx, ticket)
		if err == nil {
			if attempt > 1 {
				slog.Info("order closed after retry", "ticket", ticket, "attempt", attempt)
			}
			return nil
		}
		lastErr = err
		slog.Warn("close attempt failed",
			"ticket", ticket, "attempt", attempt, "max", a.cfg.CloseRetries, "err", err)

		if attempt < a.cfg.CloseRetries {
			select {
			case <-time.After(a.cfg.CloseRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("assistant.closeWithRetries: %d intentos agotados: %w", a.cfg.CloseRetries, lastErr)
}

// listSignals muestra pendientes y activas con el resumen de la bitácora.
func (a *Assistant) listSignals(ctx context.Context) {
	if a.notifier == nil {
		return
	}
	var stats domain.DailyStats
	if a.journal != nil {
		s, err := a.journal.Stats(ctx)
		if err != nil {
			slog.Warn("journal stats error", "err", err)
		} else {
			stats = s
		}
	}
	if err := a.notifier.ListSignals(ctx, a.reg.PendingSnapshot(), a.reg.ActiveSnapshot(), stats); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}

// record agrega una entrada a la bitácora; los errores de persistencia no
// interrumpen el procesamiento.
func (a *Assistant) record(ctx context.Context, kind, action string, signalID, ticket int64, origText, detail string) {
	if a.journal == nil {
		return
	}
	entry := domain.JournalEntry{
		ID:           uuid.NewString(),
		Kind:         kind,
		Action:       action,
		MessageID:    signalID,
		Ticket:       ticket,
		OriginalText: origText,
		Detail:       detail,
		At:           time.Now().UTC(),
	}
	if err := a.journal.RecordAction(ctx, entry); err != nil {
		slog.Warn("journal write error", "err", err, "action", action)
	}
}

package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frandmz/senalbot/internal/chain"
	"github.com/frandmz/senalbot/internal/domain"
	"github.com/frandmz/senalbot/internal/ports"
	"github.com/frandmz/senalbot/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeExecutor struct {
	ticket     int64
	placeErr   error
	placed     []ports.MarketOrderRequest
	closeFails int // cantidad de intentos de cierre que fallan antes de funcionar
	closeCalls int
	beCalls    int
	beErr      error
}

func (f *fakeExecutor) PlaceMarketOrder(_ context.Context, req ports.MarketOrderRequest) (int64, error) {
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return 0, f.placeErr
	}
	return f.ticket, nil
}

func (f *fakeExecutor) CloseOrder(context.Context, int64) error {
	f.closeCalls++
	if f.closeCalls <= f.closeFails {
		return errors.New("requote")
	}
	return nil
}

func (f *fakeExecutor) MoveStopToEntry(context.Context, int64) error {
	f.beCalls++
	return f.beErr
}

type fakeHistory struct {
	messages map[int64]*domain.Message
}

func (f *fakeHistory) GetMessage(_ context.Context, _, id int64) (*domain.Message, error) {
	return f.messages[id], nil
}

type fakeJournal struct {
	entries []domain.JournalEntry
}

func (f *fakeJournal) RecordAction(_ context.Context, e domain.JournalEntry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *fakeJournal) Stats(context.Context) (domain.DailyStats, error) {
	return domain.DailyStats{}, nil
}
func (f *fakeJournal) Close() error { return nil }

func (f *fakeJournal) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Kind+"/"+e.Action)
	}
	return out
}

type fakeNotifier struct{ calls int }

func (f *fakeNotifier) ListSignals(context.Context, []domain.SignalRecord, []domain.SignalRecord, domain.DailyStats) error {
	f.calls++
	return nil
}

// --- helpers ---

const signalText = "EURUSD SELL ZONE 1.0500-1.0520 SL 1.0450 TP 1.0550-1.0600"

type fixture struct {
	assistant *Assistant
	reg       *registry.Registry
	exec      *fakeExecutor
	journal   *fakeJournal
	notifier  *fakeNotifier
	history   *fakeHistory
}

func newFixture(exec *fakeExecutor) *fixture {
	reg := registry.New()
	history := &fakeHistory{messages: make(map[int64]*domain.Message)}
	journal := &fakeJournal{}
	notifier := &fakeNotifier{}

	cfg := DefaultConfig()
	cfg.CloseRetryDelay = time.Millisecond

	return &fixture{
		assistant: New(cfg, reg, chain.NewResolver(history), exec, journal, notifier),
		reg:       reg,
		exec:      exec,
		journal:   journal,
		notifier:  notifier,
		history:   history,
	}
}

// handle procesa un mensaje y lo deja disponible en el historial para que
// las respuestas posteriores puedan encadenarse a él.
func (fx *fixture) handle(id, replyTo int64, text string) {
	msg := domain.Message{ID: id, ChatID: 1, ReplyTo: replyTo, Text: text}
	fx.history.messages[id] = &msg
	fx.assistant.HandleMessage(context.Background(), msg)
}

// --- tests ---

func TestHandleMessage_SignalRegisteredAsPending(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 1})

	fx.handle(100, 0, signalText)

	pending := fx.reg.PendingSnapshot()
	require.Len(t, pending, 1)
	assert.Equal(t, int64(100), pending[0].MessageID)
	assert.Equal(t, domain.SideSell, pending[0].Signal.Side)
	assert.Equal(t, []string{"entrada/nueva_senal"}, fx.journal.actions())
	assert.Empty(t, fx.exec.placed, "registrar una señal no toca el bridge")
}

// El ciclo completo del spec: pendiente → activa (ticket 42) → cancelada
// (con cierre en el broker) → pendiente otra vez vía round.
func TestHandleMessage_FullLifecycle(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})

	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	state, _ := fx.reg.StateOf(100)
	require.Equal(t, domain.StateActive, state)
	rec, err := fx.reg.ActiveRecord(100)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.Ticket)
	assert.Empty(t, fx.reg.PendingSnapshot())

	// Cancelar respondiendo más abajo en la cadena: 102 → 101 → 100.
	fx.handle(102, 101, "cancel")

	state, _ = fx.reg.StateOf(100)
	assert.Equal(t, domain.StateCancelled, state)
	assert.Empty(t, fx.reg.ActiveSnapshot())
	assert.Equal(t, 1, fx.exec.closeCalls, "cancelar una activa cierra la orden")

	// Round la devuelve a pendiente.
	fx.handle(103, 102, "round")

	state, _ = fx.reg.StateOf(100)
	assert.Equal(t, domain.StatePending, state)
	assert.Empty(t, fx.reg.CancelledSnapshot())
}

func TestHandleMessage_BreakEvenOnPendingIsRejected(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})
	fx.handle(100, 0, signalText)

	fx.handle(101, 100, "move to be")

	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StatePending, state, "el estado no cambia")
	assert.Zero(t, fx.exec.beCalls, "no debe llamarse al bridge")
}

func TestHandleMessage_BridgeFailureLeavesSourceState(t *testing.T) {
	fx := newFixture(&fakeExecutor{placeErr: errors.New("gateway timeout")})
	fx.handle(100, 0, signalText)

	fx.handle(101, 100, "hit entry")

	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StatePending, state, "el fallo del bridge no transiciona")
	assert.Len(t, fx.exec.placed, 1)
}

func TestHandleMessage_ZeroTicketTreatedAsFailure(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 0})
	fx.handle(100, 0, signalText)

	fx.handle(101, 100, "hit entry")

	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StatePending, state)
}

func TestHandleMessage_BuyNowOverridesSide(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 7})
	fx.handle(100, 0, signalText) // la señal original es SELL

	fx.handle(101, 100, "buy now")

	require.Len(t, fx.exec.placed, 1)
	assert.Equal(t, domain.SideBuy, fx.exec.placed[0].Side)
	assert.NotEmpty(t, fx.exec.placed[0].ClientRef)

	rec, err := fx.reg.ActiveRecord(100)
	require.NoError(t, err)
	assert.Equal(t, domain.SideBuy, rec.Signal.Side)
	assert.Equal(t, domain.SideSell, rec.ParsedSide, "la dirección parseada queda para auditoría")
}

func TestHandleMessage_CloseRetriesUntilSuccess(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42, closeFails: 2})
	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	fx.handle(102, 101, "cerrar esta... closed")

	assert.Equal(t, 3, fx.exec.closeCalls)
	_, ok := fx.reg.StateOf(100)
	assert.False(t, ok, "cerrar elimina la señal sin copia en canceladas")
	assert.Empty(t, fx.reg.CancelledSnapshot())
}

func TestHandleMessage_CloseExhaustedKeepsActive(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42, closeFails: 99})
	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	fx.handle(102, 101, "closed")

	assert.Equal(t, 3, fx.exec.closeCalls, "presupuesto de reintentos acotado")
	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StateActive, state, "el cierre fallido no muta estado")
}

func TestHandleMessage_BreakEvenOnActive(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})
	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	fx.handle(102, 101, "break even")

	assert.Equal(t, 1, fx.exec.beCalls)
	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StateActive, state, "be no cambia el estado")
}

func TestHandleMessage_BreakEvenFailureReportedWithoutStateChange(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42, beErr: errors.New("modify rejected")})
	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	fx.handle(102, 101, "move stop")

	assert.Equal(t, 1, fx.exec.beCalls, "un solo intento, sin reintentos")
	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StateActive, state)
}

func TestHandleMessage_TakeProfitIsInformational(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})
	fx.handle(100, 0, signalText)
	fx.handle(101, 100, "hit entry")

	fx.handle(102, 101, "tp1 hit")

	state, _ := fx.reg.StateOf(100)
	assert.Equal(t, domain.StateActive, state, "tp* no muta colecciones")
	assert.Contains(t, fx.journal.actions(), "tp/tp1 hit")
	assert.Zero(t, fx.exec.closeCalls)
	assert.Zero(t, fx.exec.beCalls)
}

func TestHandleMessage_ActionWithoutSignalIsDropped(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})

	fx.handle(200, 0, "cancel")

	assert.Empty(t, fx.journal.entries)
	assert.Zero(t, fx.exec.closeCalls)
}

func TestHandleMessage_ListRendersSnapshot(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})
	fx.handle(100, 0, signalText)

	fx.handle(101, 0, "list")

	assert.Equal(t, 1, fx.notifier.calls)
}

func TestHandleMessage_NoiseIsIgnored(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})

	fx.handle(300, 0, "gm traders, volatile day ahead")
	fx.handle(301, 0, "   ")

	assert.Empty(t, fx.reg.PendingSnapshot())
	assert.Empty(t, fx.journal.entries)
}

func TestRun_StopsWhenStreamCloses(t *testing.T) {
	fx := newFixture(&fakeExecutor{ticket: 42})
	msgs := make(chan domain.Message, 2)
	msgs <- domain.Message{ID: 100, ChatID: 1, Text: signalText}
	close(msgs)

	err := fx.assistant.Run(context.Background(), msgs)
	require.NoError(t, err)
	assert.Len(t, fx.reg.PendingSnapshot(), 1)
}

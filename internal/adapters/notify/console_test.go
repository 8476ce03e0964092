package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/frandmz/senalbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func sampleRecords() (pending, active []domain.SignalRecord) {
	pending = []domain.SignalRecord{{
		MessageID: 100,
		Signal: domain.TradeSignal{
			Symbol:     domain.SymbolXAUUSD,
			Side:       domain.SideBuy,
			Entry:      1909,
			StopLoss:   ptr(1895),
			TakeProfit: ptr(1925),
		},
		RegisteredAt: time.Now(),
	}}
	active = []domain.SignalRecord{{
		MessageID: 200,
		Signal: domain.TradeSignal{
			Symbol: domain.SymbolEURUSD,
			Side:   domain.SideSell,
			Entry:  1.0505,
		},
		Ticket:       42,
		RegisteredAt: time.Now(),
	}}
	return pending, active
}

func TestListSignals_FullMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)
	pending, active := sampleRecords()

	err := c.ListSignals(context.Background(), pending, active, domain.DailyStats{
		TotalOperations: 3,
		TakeProfits:     2,
		StopLosses:      1,
		WinRate:         66.7,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "PENDIENTES")
	assert.Contains(t, out, "ACTIVAS")
	assert.Contains(t, out, "XAUUSD")
	assert.Contains(t, out, "EURUSD")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "win rate 66.7%")
	// La señal sin SL/TP se muestra con guiones, no con ceros.
	assert.Contains(t, out, "-")
}

func TestListSignals_CompactMode(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)
	pending, active := sampleRecords()

	err := c.ListSignals(context.Background(), pending, active, domain.DailyStats{TakeProfits: 1})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "pend:1 act:1")
	assert.Contains(t, out, "tp:1")
	assert.NotContains(t, out, "PENDIENTES", "el modo compacto no imprime tablas")
}

func TestListSignals_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	err := c.ListSignals(context.Background(), nil, nil, domain.DailyStats{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "sin señales registradas")
}

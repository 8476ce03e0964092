package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/frandmz/senalbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func entry(id, kind, action string, at time.Time) domain.JournalEntry {
	return domain.JournalEntry{
		ID:        id,
		Kind:      kind,
		Action:    action,
		MessageID: 100,
		At:        at,
	}
}

func TestRecordAction_RoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	err := j.RecordAction(ctx, domain.JournalEntry{
		ID:           "a1",
		Kind:         "entrada",
		Action:       "hit_entry",
		MessageID:    100,
		Ticket:       42,
		OriginalText: "XAUUSD BUY ZONE 1900-1910",
		Detail:       "ejecucion a mercado",
		At:           time.Now().UTC(),
	})
	require.NoError(t, err)

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOperations)
}

func TestRecordAction_DuplicateIDRejected(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, j.RecordAction(ctx, entry("dup", "tp", "tp1 hit", now)))
	err := j.RecordAction(ctx, entry("dup", "tp", "tp1 hit", now))
	assert.Error(t, err)
}

func TestStats_AggregatesToday(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Detección de señal: no cuenta como operación.
	require.NoError(t, j.RecordAction(ctx, entry("e0", "entrada", "nueva_senal", now)))
	// Dos ejecuciones a mercado.
	require.NoError(t, j.RecordAction(ctx, entry("e1", "entrada", "hit_entry", now)))
	require.NoError(t, j.RecordAction(ctx, entry("e2", "entrada", "buy_now", now)))
	// Resultados: dos tp, un stop vía cancelación, un stop informativo.
	require.NoError(t, j.RecordAction(ctx, entry("t1", "tp", "tp1 hit", now)))
	require.NoError(t, j.RecordAction(ctx, entry("t2", "tp", "tp2 hit", now)))
	require.NoError(t, j.RecordAction(ctx, entry("s1", "cancelacion", "perdida", now)))
	require.NoError(t, j.RecordAction(ctx, entry("s2", "perdida", "perdida", now)))
	// Cancelación manual.
	require.NoError(t, j.RecordAction(ctx, entry("c1", "cancelacion", "cancel", now)))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalOperations)
	assert.Equal(t, 2, stats.TakeProfits)
	assert.Equal(t, 2, stats.StopLosses)
	assert.Equal(t, 1, stats.Cancellations)
	assert.InDelta(t, 50.0, stats.WinRate, 0.001)
}

func TestStats_IgnoresPreviousDays(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	yesterday := time.Now().UTC().Add(-36 * time.Hour)
	require.NoError(t, j.RecordAction(ctx, entry("old", "entrada", "hit_entry", yesterday)))

	stats, err := j.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOperations)
	assert.Zero(t, stats.WinRate)
}

func TestStats_EmptyJournal(t *testing.T) {
	j := newTestJournal(t)

	stats, err := j.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DailyStats{}, stats)
}

package storage

// sqlite.go — bitácora de acciones persistente.
//
// Estrategia:
//   - `journal`: una fila por acción procesada (entradas, cancelaciones,
//     cierres, marcadores de tp/perdida). Append-only.
//   - Las estadísticas del día se agregan con una sola query sobre el rango
//     UTC de hoy; no hay caché porque el volumen es bajo (decenas de filas/día).
//   - Prune automático al arrancar: entradas > 90d no aportan al resumen.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/frandmz/senalbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Una fila por acción procesada
CREATE TABLE IF NOT EXISTS journal (
    id            TEXT PRIMARY KEY,
    kind          TEXT     NOT NULL,
    action        TEXT     NOT NULL,
    message_id    INTEGER  NOT NULL DEFAULT 0,
    ticket        INTEGER  NOT NULL DEFAULT 0,
    original_text TEXT,
    detail        TEXT,
    at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_at   ON journal(at DESC);
CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal(kind);
`

const retentionJournal = 90 * 24 * time.Hour

// SQLiteJournal implementa ports.ActionJournal usando SQLite (pure Go, sin CGo).
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	j := &SQLiteJournal{db: db}
	j.pruneOld(context.Background())
	return j, nil
}

// RecordAction agrega una entrada a la bitácora.
func (j *SQLiteJournal) RecordAction(ctx context.Context, e domain.JournalEntry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if _, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (id, kind, action, message_id, ticket, original_text, detail, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Action, e.MessageID, e.Ticket, e.OriginalText, e.Detail, at.UTC(),
	); err != nil {
		return fmt.Errorf("storage.RecordAction: insert %s/%s: %w", e.Kind, e.Action, err)
	}
	return nil
}

// Stats agrega el resumen del día UTC en curso.
//
// Operaciones = entradas ejecutadas a mercado (la detección de una señal
// nueva no cuenta como operación). Un stop reportado cuenta como pérdida
// tanto si canceló la señal como si llegó sobre una ya cancelada.
func (j *SQLiteJournal) Stats(ctx context.Context) (domain.DailyStats, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	row := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN kind = 'entrada' AND action <> 'nueva_senal' THEN 1 END),
			COUNT(CASE WHEN kind = 'tp' THEN 1 END),
			COUNT(CASE WHEN kind = 'perdida' OR (kind = 'cancelacion' AND action = 'perdida') THEN 1 END),
			COUNT(CASE WHEN kind = 'cancelacion' AND action = 'cancel' THEN 1 END)
		FROM journal
		WHERE at >= ?
	`, from)

	var stats domain.DailyStats
	if err := row.Scan(
		&stats.TotalOperations,
		&stats.TakeProfits,
		&stats.StopLosses,
		&stats.Cancellations,
	); err != nil {
		return domain.DailyStats{}, fmt.Errorf("storage.Stats: scan: %w", err)
	}

	if closed := stats.TakeProfits + stats.StopLosses; closed > 0 {
		stats.WinRate = float64(stats.TakeProfits) / float64(closed) * 100
	}
	return stats, nil
}

// Close cierra la conexión a la base de datos.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// pruneOld elimina entradas antiguas para mantener la DB ligera.
func (j *SQLiteJournal) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionJournal)
	j.db.ExecContext(ctx, `DELETE FROM journal WHERE at < ?`, cutoff)
}

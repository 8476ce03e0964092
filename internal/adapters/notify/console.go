package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frandmz/senalbot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier escribiendo el estado a un writer.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// ListSignals imprime las señales pendientes y activas junto con el resumen
// del día en el modo configurado.
func (c *Console) ListSignals(_ context.Context, pending, active []domain.SignalRecord, stats domain.DailyStats) error {
	if c.table {
		c.printFull(pending, active, stats)
	} else {
		c.printCompact(pending, active, stats)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(pending, active []domain.SignalRecord, stats domain.DailyStats) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] señales — pend:%d act:%d | hoy: ops:%d tp:%d sl:%d wr:%.1f%%\n",
		now, len(pending), len(active),
		stats.TotalOperations, stats.TakeProfits, stats.StopLosses, stats.WinRate)
}

// printFull imprime las tablas completas con el resumen del día.
func (c *Console) printFull(pending, active []domain.SignalRecord, stats domain.DailyStats) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d pendientes, %d activas\n", now, len(pending), len(active))

	if len(pending) > 0 {
		fmt.Fprintln(c.out, "\n  PENDIENTES:")
		c.printPendingTable(pending)
	}
	if len(active) > 0 {
		fmt.Fprintln(c.out, "\n  ACTIVAS:")
		c.printActiveTable(active)
	}
	if len(pending) == 0 && len(active) == 0 {
		fmt.Fprintln(c.out, "  (sin señales registradas)")
	}

	fmt.Fprintf(c.out, "\n  HOY: %d ops | %d tp | %d sl | %d cancel | win rate %.1f%%\n\n",
		stats.TotalOperations, stats.TakeProfits, stats.StopLosses,
		stats.Cancellations, stats.WinRate)
}

func (c *Console) printPendingTable(records []domain.SignalRecord) {
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Symbol", "Side", "Entry", "SL", "TP", "Registered")

	for _, r := range records {
		table.Append(
			fmt.Sprintf("%d", r.MessageID),
			string(r.Signal.Symbol),
			string(r.Signal.Side),
			fmt.Sprintf("%.5g", r.Signal.Entry),
			levelLabel(r.Signal.StopLoss),
			levelLabel(r.Signal.TakeProfit),
			r.RegisteredAt.Format("15:04"),
		)
	}
	table.Render()
}

func (c *Console) printActiveTable(records []domain.SignalRecord) {
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Symbol", "Side", "Entry", "SL", "TP", "Ticket", "Registered")

	for _, r := range records {
		table.Append(
			fmt.Sprintf("%d", r.MessageID),
			string(r.Signal.Symbol),
			string(r.Signal.Side),
			fmt.Sprintf("%.5g", r.Signal.Entry),
			levelLabel(r.Signal.StopLoss),
			levelLabel(r.Signal.TakeProfit),
			fmt.Sprintf("%d", r.Ticket),
			r.RegisteredAt.Format("15:04"),
		)
	}
	table.Render()
}

// levelLabel formatea un nivel opcional; "-" cuando la señal no lo trae.
func levelLabel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.5g", *v)
}

package domain

import "time"

// JournalEntry es una acción registrada en la bitácora de auditoría. Reemplaza
// los logs JSON del sistema anterior con filas consultables.
type JournalEntry struct {
	ID           string // uuid asignado al registrar
	Kind         string // entrada | cancelacion | actualizacion | reactivacion | tp | perdida
	Action       string // acción específica: hit_entry, be, cerrar, tp1 hit, ...
	MessageID    int64
	Ticket       int64
	OriginalText string
	Detail       string
	At           time.Time
}

// DailyStats resume la bitácora para el reporte de estado.
type DailyStats struct {
	TotalOperations int
	TakeProfits     int
	StopLosses      int
	Cancellations   int
	WinRate         float64 // tp / (tp + sl), 0 si no hay cerradas
}

package domain

import "errors"

// Errores del ciclo de vida. Ninguno es fatal: el orquestador los reporta y
// sigue procesando mensajes.
var (
	// ErrSignalNotFound: el resolver no halló señal en la cadena de respuestas.
	ErrSignalNotFound = errors.New("señal original no encontrada")

	// ErrInvalidTransition: la acción no aplica al estado actual de la señal.
	ErrInvalidTransition = errors.New("acción no aplicable al estado actual")

	// ErrNoTicket: la señal activa no tiene ticket asociado.
	ErrNoTicket = errors.New("señal activa sin ticket")

	// ErrBridgeFailure: el bridge de ejecución falló o no devolvió ticket.
	// El estado de la señal queda intacto para permitir reintentos.
	ErrBridgeFailure = errors.New("fallo del bridge de ejecución")
)

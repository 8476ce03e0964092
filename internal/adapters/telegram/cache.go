package telegram

import (
	"context"
	"sync"

	"github.com/frandmz/senalbot/internal/domain"
)

// Capacidad por defecto: un canal de señales publica unas decenas de
// mensajes al día, 4096 cubre semanas de cadenas.
const cacheCapacity = 4096

// MessageCache guarda los últimos mensajes vistos, indexados por id, con
// desalojo FIFO. Implementa ports.MessageProvider: pedir un mensaje que no
// pasó por el stream devuelve (nil, nil), que el resolver trata como fin de
// cadena.
type MessageCache struct {
	mu       sync.Mutex
	capacity int
	byID     map[int64]domain.Message
	order    []int64
}

// NewMessageCache crea una caché con la capacidad dada.
func NewMessageCache(capacity int) *MessageCache {
	if capacity <= 0 {
		capacity = cacheCapacity
	}
	return &MessageCache{
		capacity: capacity,
		byID:     make(map[int64]domain.Message, capacity),
	}
}

// Put guarda un mensaje, desalojando el más antiguo si la caché está llena.
// Volver a ver un id ya cacheado no lo duplica ni renueva su posición.
func (mc *MessageCache) Put(msg domain.Message) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.byID[msg.ID]; ok {
		mc.byID[msg.ID] = msg
		return
	}
	if len(mc.order) >= mc.capacity {
		oldest := mc.order[0]
		mc.order = mc.order[1:]
		delete(mc.byID, oldest)
	}
	mc.byID[msg.ID] = msg
	mc.order = append(mc.order, msg.ID)
}

// GetMessage devuelve el mensaje cacheado o (nil, nil) si no se conoce.
func (mc *MessageCache) GetMessage(_ context.Context, _ int64, messageID int64) (*domain.Message, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	msg, ok := mc.byID[messageID]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

// Len devuelve la cantidad de mensajes cacheados.
func (mc *MessageCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.byID)
}

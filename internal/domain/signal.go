package domain

import "time"

// Symbol es uno de los pares que el canal publica.
type Symbol string

const (
	SymbolXAUUSD Symbol = "XAUUSD"
	SymbolEURUSD Symbol = "EURUSD"
	SymbolGBPUSD Symbol = "GBPUSD"
	SymbolUSDJPY Symbol = "USDJPY"
)

// KnownSymbols lista los símbolos reconocidos por el parser, en orden de
// declaración. Si un mensaje no menciona ninguno, se asume XAUUSD.
var KnownSymbols = []Symbol{SymbolXAUUSD, SymbolEURUSD, SymbolGBPUSD, SymbolUSDJPY}

// Side es la dirección de la orden.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeSignal es una señal de trading ya parseada. Inmutable tras el parseo,
// salvo que una acción buy_now/sell_now fuerce la dirección.
//
// Entry no es el borde de la zona citada: se deriva con un offset asimétrico
// (SELL: min+0.5, BUY: max-1) para aproximar un fill realista dentro de la zona.
type TradeSignal struct {
	Symbol     Symbol
	Side       Side
	Entry      float64
	StopLoss   *float64 // nil si la señal no trae SL
	TakeProfit *float64 // nil si la señal no trae TP
}

// SignalState es el estado de vida de una señal registrada.
type SignalState string

const (
	StatePending   SignalState = "pendiente"
	StateActive    SignalState = "activa"
	StateCancelled SignalState = "cancelada"
	StateNotFound  SignalState = "no_encontrada"
)

// SignalRecord es una señal registrada, viviendo en exactamente una de las
// colecciones pendiente/activa/cancelada.
type SignalRecord struct {
	MessageID    int64
	Signal       TradeSignal
	ParsedSide   Side   // dirección original del parseo, retenida para auditoría
	OriginalText string // texto completo del mensaje que originó la señal
	Ticket       int64  // id de orden del broker; 0 mientras no esté activa
	RegisteredAt time.Time
}

// Message es un mensaje del canal tal como lo entrega el cliente de chat.
// ReplyTo es 0 cuando el mensaje no responde a nadie.
type Message struct {
	ID      int64
	ChatID  int64
	ReplyTo int64
	Text    string
	Date    time.Time
}

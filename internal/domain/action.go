package domain

// ActionKind clasifica un mensaje de seguimiento sobre una señal previa.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionHitEntry
	ActionBuyNow
	ActionSellNow
	ActionClose     // "cerrar": cerrar la posición activa
	ActionBreakEven // "be": mover el SL al precio de entrada
	ActionCancel
	ActionStopHit // "perdida": el stop fue alcanzado
	ActionRound   // reactivar una señal cancelada
	ActionTakeProfit
	ActionList
)

// Action es el resultado del clasificador. Para ActionTakeProfit, Raw
// conserva el texto completo ("tp1 hit", "tp3 done") porque los niveles de
// TP son variables y no ameritan un enum por nivel.
type Action struct {
	Kind ActionKind
	Raw  string
}

// None indica que el mensaje no es un comando reconocido.
func (a Action) None() bool { return a.Kind == ActionNone }

func (k ActionKind) String() string {
	switch k {
	case ActionHitEntry:
		return "hit_entry"
	case ActionBuyNow:
		return "buy_now"
	case ActionSellNow:
		return "sell_now"
	case ActionClose:
		return "cerrar"
	case ActionBreakEven:
		return "be"
	case ActionCancel:
		return "cancel"
	case ActionStopHit:
		return "perdida"
	case ActionRound:
		return "round"
	case ActionTakeProfit:
		return "tp"
	case ActionList:
		return "list"
	default:
		return "none"
	}
}

package signal

import (
	"strings"

	"github.com/frandmz/senalbot/internal/domain"
)

// roundBlockers invalida un "round" cuando aparece dentro de comentario no
// relacionado ("round 2, don't forget sl" no debe reactivar nada).
var roundBlockers = []string{"don't", "dont", "sl", "tp", "vip"}

// category agrupa las frases gatillo de una acción. El orden de declaración
// importa: la primera categoría con cualquier frase presente gana.
type category struct {
	kind    domain.ActionKind
	phrases []string
}

var categories = []category{
	{domain.ActionClose, []string{"close", "closing", "closed", "exit now", "exit trade"}},
	{domain.ActionBreakEven, []string{
		"break even", "move to be", "move stop", "stop to entry",
		"stop loss to entry", "set breakeven now move", "locked",
	}},
	{domain.ActionCancel, []string{"cancel", "cancelar", "cancelled"}},
	{domain.ActionStopHit, []string{"hit risk", "stop hit", "sl hit"}},
	{domain.ActionHitEntry, []string{
		"hit entry", "entry now", "enter now", "execute now",
		"take entry", "now:",
	}},
}

// listPhrases se compara por igualdad exacta, no por substring: "lista de
// espera" no debe disparar el listado.
var listPhrases = []string{"list", "lista", "estado"}

// Classify detecta el comando contenido en un mensaje de respuesta.
// Case-insensitive, sin efectos secundarios. Devuelve Kind=ActionNone cuando
// el texto no es un comando reconocido.
func Classify(text string) domain.Action {
	lower := strings.ToLower(strings.TrimSpace(text))

	// Guardia anti falso positivo de reactivación: "round"/"ronda" dentro de
	// comentario con SL/TP/etc no es un comando.
	if strings.Contains(lower, "round") || strings.Contains(lower, "ronda") {
		for _, blocker := range roundBlockers {
			if strings.Contains(lower, blocker) {
				return domain.Action{Kind: domain.ActionNone}
			}
		}
	}

	if strings.Contains(lower, "buy now") {
		return domain.Action{Kind: domain.ActionBuyNow}
	}
	if strings.Contains(lower, "sell now") {
		return domain.Action{Kind: domain.ActionSellNow}
	}
	if strings.Contains(lower, "round") || strings.Contains(lower, "ronda") {
		return domain.Action{Kind: domain.ActionRound}
	}

	for _, cat := range categories {
		for _, phrase := range cat.phrases {
			if strings.Contains(lower, phrase) {
				return domain.Action{Kind: cat.kind}
			}
		}
	}

	for _, phrase := range listPhrases {
		if lower == phrase {
			return domain.Action{Kind: domain.ActionList}
		}
	}

	// "tp1 hit", "tp3 done": el texto completo viaja en Raw para registrar
	// el nivel alcanzado sin un enum por nivel.
	if strings.HasPrefix(lower, "tp") {
		return domain.Action{Kind: domain.ActionTakeProfit, Raw: lower}
	}

	return domain.Action{Kind: domain.ActionNone}
}

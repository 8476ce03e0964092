package signal

import (
	"testing"

	"github.com/frandmz/senalbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify_BasicCommands(t *testing.T) {
	cases := []struct {
		text string
		want domain.ActionKind
	}{
		{"buy now", domain.ActionBuyNow},
		{"BUY NOW!!", domain.ActionBuyNow},
		{"sell now", domain.ActionSellNow},
		{"round", domain.ActionRound},
		{"ronda 2", domain.ActionRound},
		{"close this trade", domain.ActionClose},
		{"position closed", domain.ActionClose},
		{"exit now", domain.ActionClose},
		{"move to be", domain.ActionBreakEven},
		{"break even", domain.ActionBreakEven},
		{"stop loss to entry", domain.ActionBreakEven},
		{"locked", domain.ActionBreakEven},
		{"cancel", domain.ActionCancel},
		{"cancelar esta", domain.ActionCancel},
		{"hit risk", domain.ActionStopHit},
		{"sl hit", domain.ActionStopHit},
		{"hit entry", domain.ActionHitEntry},
		{"take entry", domain.ActionHitEntry},
		{"update now: watch the news", domain.ActionHitEntry},
		{"list", domain.ActionList},
		{"estado", domain.ActionList},
		{"gm everyone", domain.ActionNone},
		{"", domain.ActionNone},
	}
	for _, tc := range cases {
		got := Classify(tc.text)
		assert.Equal(t, tc.want, got.Kind, "texto: %q", tc.text)
	}
}

func TestClassify_RoundGuard(t *testing.T) {
	// "round" junto a palabras de comentario no debe reactivar nada.
	assert.True(t, Classify("round 2, don't forget sl").None())
	assert.True(t, Classify("round con tp ajustado").None())
	assert.True(t, Classify("vip round starting").None())
	assert.True(t, Classify("ronda nueva, dont miss").None())

	// Un round limpio sí clasifica.
	assert.Equal(t, domain.ActionRound, Classify("round 2").Kind)
}

func TestClassify_TakeProfitCarriesRawText(t *testing.T) {
	got := Classify("TP1 Hit")
	assert.Equal(t, domain.ActionTakeProfit, got.Kind)
	assert.Equal(t, "tp1 hit", got.Raw)

	got = Classify("tp3 done")
	assert.Equal(t, domain.ActionTakeProfit, got.Kind)
	assert.Equal(t, "tp3 done", got.Raw)
}

func TestClassify_PriorityOrder(t *testing.T) {
	// buy now gana sobre round si ambos aparecen.
	assert.Equal(t, domain.ActionBuyNow, Classify("buy now and round").Kind)

	// La primera categoría declarada gana cuando hay frases de dos categorías.
	assert.Equal(t, domain.ActionClose, Classify("closed, cancel the rest").Kind)
}

func TestClassify_ListRequiresExactMatch(t *testing.T) {
	assert.Equal(t, domain.ActionList, Classify("  LIST  ").Kind)
	assert.True(t, Classify("lista de espera").None())
}

func TestClassify_Pure(t *testing.T) {
	// Mismo input, mismo output: sin estado entre llamadas.
	for i := 0; i < 3; i++ {
		assert.Equal(t, domain.ActionBreakEven, Classify("move stop").Kind)
		assert.True(t, Classify("round, don't").None())
	}
}

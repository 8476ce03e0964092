// Package signal convierte texto libre del canal en señales y acciones
// estructuradas. Todo es puro: sin I/O, sin estado.
package signal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/frandmz/senalbot/internal/domain"
)

var (
	symbolRe = symbolPattern()
	zoneRe   = regexp.MustCompile(`\b(BUY|SELL)\b.*?ZONE\s*(\d+\.?\d*)\s*-\s*(\d+\.?\d*)`)
	slRe     = regexp.MustCompile(`SL[:\s]+(\d+\.?\d*)`)
	tpRe     = regexp.MustCompile(`TP[:\s]+([\d\-.]+)`)
)

// symbolPattern arma la alternación de símbolos desde domain.KnownSymbols,
// así agregar un par nuevo no requiere tocar el parser.
func symbolPattern() *regexp.Regexp {
	parts := make([]string, len(domain.KnownSymbols))
	for i, s := range domain.KnownSymbols {
		parts[i] = string(s)
	}
	return regexp.MustCompile(`\b(` + strings.Join(parts, "|") + `)\b`)
}

// Offsets de entrada dentro de la zona citada. Son una heurística deliberada
// para elegir un precio de fill realista; no cambiar sin confirmar con el
// proveedor de señales.
const (
	sellEntryOffset = 0.5 // entrada = mínimo de zona + 0.5
	buyEntryOffset  = 1.0 // entrada = máximo de zona - 1
)

// Parse intenta extraer una señal estructurada del texto. El patrón
// "BUY/SELL ... ZONE min-max" es la prueba autoritativa de que el texto es
// una señal: sin él devuelve ok=false aunque haya símbolo, SL o TP sueltos.
//
// El símbolo por defecto es XAUUSD incluso en texto no relacionado, así que
// los llamadores deben filtrar por ok, nunca por el símbolo.
func Parse(text string) (domain.TradeSignal, bool) {
	upper := strings.ToUpper(text)

	zone := zoneRe.FindStringSubmatch(upper)
	if zone == nil {
		return domain.TradeSignal{}, false
	}

	side := domain.Side(zone[1])
	zoneMin, err := strconv.ParseFloat(zone[2], 64)
	if err != nil {
		return domain.TradeSignal{}, false
	}
	zoneMax, err := strconv.ParseFloat(zone[3], 64)
	if err != nil {
		return domain.TradeSignal{}, false
	}

	var entry float64
	if side == domain.SideSell {
		entry = zoneMin + sellEntryOffset
	} else {
		entry = zoneMax - buyEntryOffset
	}

	sig := domain.TradeSignal{
		Symbol: extractSymbol(upper),
		Side:   side,
		Entry:  entry,
	}

	if m := slRe.FindStringSubmatch(upper); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			sig.StopLoss = &v
		}
	}
	sig.TakeProfit = extractTakeProfit(upper)

	return sig, true
}

// extractSymbol devuelve el primer símbolo conocido mencionado en el texto,
// o XAUUSD si no hay ninguno.
func extractSymbol(upper string) domain.Symbol {
	if m := symbolRe.FindStringSubmatch(upper); m != nil {
		return domain.Symbol(m[1])
	}
	return domain.SymbolXAUUSD
}

// extractTakeProfit parsea la lista "TP a-b-c" y devuelve el SEGUNDO nivel.
// Sí, el segundo: el proveedor publica el primer TP como objetivo parcial y
// la operación se gestiona contra el siguiente. Con menos de dos niveles no
// hay TP. Ver DESIGN.md antes de "corregir" esto.
func extractTakeProfit(upper string) *float64 {
	m := tpRe.FindStringSubmatch(upper)
	if m == nil {
		return nil
	}

	var levels []float64
	for _, part := range strings.Split(m[1], "-") {
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			continue
		}
		levels = append(levels, v)
	}

	if len(levels) < 2 {
		return nil
	}
	return &levels[1]
}

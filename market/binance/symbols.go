package binance

import (
	"strings"

	"github.com/Lqz13Th/extrema-infra/market"
)

var quoteCurrencies = []string{"USDT", "USDC", "USD"}

// InstToCanonical normalizes a Binance symbol to the canonical form:
// BTCUSDT → BTC_USDT_PERP, BTCUSDT_250926 → BTC_USDT_FUT_250926. Symbols
// with an unrecognized quote pass through uppercased.
func InstToCanonical(symbol string) string {
	upper := strings.ToUpper(symbol)

	body, expiry, dated := strings.Cut(upper, "_")
	if dated {
		for _, c := range expiry {
			if c < '0' || c > '9' {
				dated = false
				break
			}
		}
	}
	if !dated {
		body = upper
	}

	for _, quote := range quoteCurrencies {
		base, ok := strings.CutSuffix(body, quote)
		if !ok || base == "" {
			continue
		}
		if dated {
			return market.FutSymbol(base, quote, expiry)
		}
		return market.PerpSymbol(base, quote)
	}

	return upper
}

// CanonicalToLower renders a canonical perp symbol in Binance stream
// form: BTC_USDT_PERP → btcusdt.
func CanonicalToLower(inst string) string {
	return strings.ToLower(strings.ReplaceAll(market.StripPerp(inst), "_", ""))
}

// CanonicalToUpper renders a canonical perp symbol in Binance REST form:
// BTC_USDT_PERP → BTCUSDT.
func CanonicalToUpper(inst string) string {
	return strings.ToUpper(strings.ReplaceAll(market.StripPerp(inst), "_", ""))
}

package okx

import (
	"strings"

	"github.com/Lqz13Th/extrema-infra/market"
)

// InstToCanonical normalizes an OKX instrument id: BTC-USDT-SWAP →
// BTC_USDT_PERP, BTC-USDT-250926 → BTC_USDT_FUT_250926, BTC-USDT →
// BTC_USDT.
func InstToCanonical(instID string) string {
	parts := strings.Split(instID, "-")
	switch len(parts) {
	case 3:
		if parts[2] == "SWAP" {
			return market.PerpSymbol(parts[0], parts[1])
		}
		return market.FutSymbol(parts[0], parts[1], parts[2])
	case 2:
		return strings.ToUpper(parts[0] + "_" + parts[1])
	default:
		return instID
	}
}

// CanonicalToInst renders a canonical perp symbol as an OKX swap id:
// BTC_USDT_PERP → BTC-USDT-SWAP. Non-perp symbols map dash-for-dash.
func CanonicalToInst(inst string) string {
	if market.IsPerp(inst) {
		return strings.ReplaceAll(market.StripPerp(inst), "_", "-") + "-SWAP"
	}
	return strings.ReplaceAll(inst, "_", "-")
}

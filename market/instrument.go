package market

import "strings"

// Canonical instrument symbols take the form BASE_QUOTE_KIND where KIND is
// PERP, FUT_<EXPIRY>, or absent for spot: BTC_USDT_PERP,
// BTC_USDT_FUT_250926, BTC_USDT. Venue adapters translate to and from
// their native symbols.

const perpSuffix = "_PERP"

// PerpSymbol builds a canonical perpetual symbol from base and quote.
func PerpSymbol(base, quote string) string {
	return strings.ToUpper(base) + "_" + strings.ToUpper(quote) + perpSuffix
}

// FutSymbol builds a canonical dated-future symbol.
func FutSymbol(base, quote, expiry string) string {
	return strings.ToUpper(base) + "_" + strings.ToUpper(quote) + "_FUT_" + expiry
}

// IsPerp reports whether the canonical symbol names a perpetual.
func IsPerp(inst string) bool {
	return strings.HasSuffix(inst, perpSuffix)
}

// StripPerp removes the perpetual suffix, leaving BASE_QUOTE.
func StripPerp(inst string) string {
	return strings.TrimSuffix(inst, perpSuffix)
}

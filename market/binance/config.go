// Package binance is the Binance venue adapter: USDⓈ-margined futures
// REST client, WebSocket payload builders, and frame decoders.
package binance

// Spot API.
const (
	SpotBaseURL      = "https://api1.binance.com"
	SpotExchangeInfo = "/api/v3/exchangeInfo"
	SpotAccountInfo  = "/api/v3/account"
	SpotListenKey    = "/api/v3/userDataStream"
)

// USDⓈ-M futures API.
const (
	UmFuturesWs           = "wss://fstream.binance.com/ws"
	UmFuturesBaseURL      = "https://fapi.binance.com"
	UmFuturesExchangeInfo = "/fapi/v1/exchangeInfo"
	UmFuturesAccountInfo  = "/fapi/v3/account"
	UmFuturesBalanceInfo  = "/fapi/v3/balance"
	UmFuturesOrder        = "/fapi/v1/order"
	UmFuturesListenKey    = "/fapi/v1/listenKey"
)

// COIN-M futures API.
const (
	CmFuturesWs      = "wss://dstream.binance.com/ws"
	CmFuturesBaseURL = "https://dapi.binance.com"
)

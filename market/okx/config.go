// Package okx is the OKX venue adapter: v5 REST client, WebSocket
// payload builders with in-band login, and frame decoders.
package okx

const (
	WsPublicURL   = "wss://ws.okx.com:8443/ws/v5/public"
	WsPrivateURL  = "wss://ws.okx.com:8443/ws/v5/private"
	WsBusinessURL = "wss://ws.okx.com:8443/ws/v5/business"
	BaseURL       = "https://www.okx.com"
)

const (
	AccountBalancePath    = "/api/v5/account/balance"
	AccountPositionsPath  = "/api/v5/account/positions"
	TradeOrderPath        = "/api/v5/trade/order"
	TradeCancelOrderPath  = "/api/v5/trade/cancel-order"
	PublicInstrumentsPath = "/api/v5/public/instruments"
	MarketTickerPath      = "/api/v5/market/ticker"
)

// wsLoginPath is the raw string signed for WebSocket login.
const wsLoginPath = "GET/users/self/verify"

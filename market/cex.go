package market

import "context"

// CexWebsocket is the venue adapter contract consumed by strategies when
// driving WebSocket tasks: it yields connect URLs and subscription
// payloads for a channel. Methods a venue does not support return
// ErrUnimplemented.
type CexWebsocket interface {
	// PublicConnectURL returns the dial URL for a public channel.
	PublicConnectURL(channel WsChannel) (string, error)
	// PrivateConnectURL returns the dial URL for a private channel. It
	// may perform REST setup (e.g. obtain a listen key).
	PrivateConnectURL(ctx context.Context, channel WsChannel) (string, error)
	// PublicSubscribeMsg builds the subscription payload for a public
	// channel, optionally scoped to canonical instruments.
	PublicSubscribeMsg(channel WsChannel, insts []string) (string, error)
	// PrivateSubscribeMsg builds the subscription payload for a private
	// channel.
	PrivateSubscribeMsg(channel WsChannel) (string, error)
}

// WsLogin is implemented by venues whose private stream requires an
// in-band login frame after connect.
type WsLogin interface {
	WsLoginMsg() (string, error)
}

// BalanceData is a REST balance row.
type BalanceData struct {
	Ccy     string
	Balance float64
}

// PositionData is a REST position row.
type PositionData struct {
	Inst         string
	InstType     InstrumentType
	AvgPrice     float64
	Size         float64
	PositionSide PositionSide
	MarginMode   MarginMode
}

// CexPrivateRest is the minimal signed-REST surface strategies use.
type CexPrivateRest interface {
	// InitAPIKey loads credentials from the environment. The client is
	// unusable for signed calls until it succeeds.
	InitAPIKey() error
	PlaceOrder(ctx context.Context, params OrderParams) (OrderAck, error)
	CancelOrder(ctx context.Context, inst, orderID, clientOrderID string) (OrderAck, error)
	Balance(ctx context.Context) ([]BalanceData, error)
}

// Package market holds the venue-independent data model: venue and
// instrument identifiers, order enums, order parameters, timestamp
// normalization, and the adapter contracts venue packages implement.
package market

// Venue identifies a supported trading venue. The set is closed; adding a
// venue means adding an adapter package that registers frame decoders for
// it.
type Venue string

const (
	HyperLiquid      Venue = "hyperliquid"
	BinanceCmFutures Venue = "binance_cm_futures"
	BinanceUmFutures Venue = "binance_um_futures"
	BinanceSpot      Venue = "binance_spot"
	Coinbase         Venue = "coinbase"
	GateDelivery     Venue = "gate_delivery"
	GateFutures      Venue = "gate_futures"
	GateSpot         Venue = "gate_spot"
	GateUni          Venue = "gate_uni"
	Okx              Venue = "okx"
)

// ChannelKind discriminates WebSocket channel families. Parameterized
// channels (candle interval, trade flavor) carry their parameter in
// WsChannel.
type ChannelKind string

const (
	ChannelAccountOrders    ChannelKind = "account_orders"
	ChannelAccountPositions ChannelKind = "account_positions"
	ChannelAccountBalAndPos ChannelKind = "account_bal_and_pos"
	ChannelCandles          ChannelKind = "candles"
	ChannelTrades           ChannelKind = "trades"
	ChannelTick             ChannelKind = "tick"
	ChannelLob              ChannelKind = "lob"
	ChannelOther            ChannelKind = "other"
)

// TradesKind selects the trade stream flavor on venues that offer both.
type TradesKind string

const (
	AggTrades TradesKind = "agg_trades"
	AllTrades TradesKind = "all_trades"
)

// WsChannel is a channel family plus its parameter. The zero value of the
// unused parameter fields keeps the struct comparable, so channels can be
// matched with == and used as registry keys.
type WsChannel struct {
	Kind   ChannelKind
	Candle CandleInterval // set when Kind == ChannelCandles
	Trades TradesKind     // set when Kind == ChannelTrades
	Other  string         // set when Kind == ChannelOther
}

func Candles(interval CandleInterval) WsChannel {
	return WsChannel{Kind: ChannelCandles, Candle: interval}
}

func Trades(kind TradesKind) WsChannel {
	return WsChannel{Kind: ChannelTrades, Trades: kind}
}

func AccountOrders() WsChannel    { return WsChannel{Kind: ChannelAccountOrders} }
func AccountPositions() WsChannel { return WsChannel{Kind: ChannelAccountPositions} }
func AccountBalAndPos() WsChannel { return WsChannel{Kind: ChannelAccountBalAndPos} }
func Lob() WsChannel              { return WsChannel{Kind: ChannelLob} }
func Tick() WsChannel             { return WsChannel{Kind: ChannelTick} }
func Other(name string) WsChannel { return WsChannel{Kind: ChannelOther, Other: name} }

func (c WsChannel) String() string {
	switch c.Kind {
	case ChannelCandles:
		return string(ChannelCandles) + "_" + string(c.Candle)
	case ChannelTrades:
		return string(ChannelTrades) + "_" + string(c.Trades)
	case ChannelOther:
		return string(ChannelOther) + "_" + c.Other
	default:
		return string(c.Kind)
	}
}

// CandleInterval is the venue-agnostic interval tag ("1m", "1h", ...).
type CandleInterval string

const (
	Candle1s  CandleInterval = "1s"
	Candle1m  CandleInterval = "1m"
	Candle5m  CandleInterval = "5m"
	Candle15m CandleInterval = "15m"
	Candle1h  CandleInterval = "1h"
	Candle4h  CandleInterval = "4h"
	Candle1d  CandleInterval = "1d"
	Candle1w  CandleInterval = "1w"
)

// ParseCandleInterval maps a venue interval string onto the known set.
// Unknown strings are passed through unchanged as custom intervals.
func ParseCandleInterval(s string) CandleInterval {
	return CandleInterval(s)
}

// Package event is the closed catalog of payload types carried by the
// topic bus. Events are immutable after publication; producers hand the
// same slice or pointer to every subscriber.
package event

import (
	"time"

	"github.com/Lqz13Th/extrema-infra/market"
)

// Trade is one normalized trade print.
type Trade struct {
	Timestamp uint64 // microseconds
	Venue     market.Venue
	Inst      string
	Price     float64
	Size      float64
	Side      market.OrderSide
	TradeID   uint64
}

// BookLevel is one price level of an order-book ladder.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a normalized order-book snapshot or delta.
type OrderBook struct {
	Timestamp uint64
	Venue     market.Venue
	Inst      string
	Bids      []BookLevel
	Asks      []BookLevel
}

// Candle is a normalized OHLCV bar. Confirm marks a closed bar.
type Candle struct {
	Timestamp uint64
	Venue     market.Venue
	Inst      string
	Interval  market.CandleInterval
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Confirm   bool
}

// AccountOrder is an account-stream order update.
type AccountOrder struct {
	Timestamp     uint64
	Venue         market.Venue
	Inst          string
	InstType      market.InstrumentType
	Price         float64
	Size          float64
	FilledSize    float64
	Side          market.OrderSide
	Status        market.OrderStatus
	OrderType     market.OrderType
	ClientOrderID string // empty when the venue did not echo one
}

// AccountBalance is one balance row of an account update.
type AccountBalance struct {
	Inst    string
	Balance float64
}

// AccountPosition is one position row of an account update.
type AccountPosition struct {
	Inst         string
	InstType     market.InstrumentType
	AvgPrice     float64
	Size         float64
	PositionSide market.PositionSide
	MarginMode   market.MarginMode
}

// AccountBalPos is an account-stream balance/position update. Event names
// the venue's update reason verbatim.
type AccountBalPos struct {
	Timestamp uint64
	Venue     market.Venue
	Event     string
	Balances  []AccountBalance
	Positions []AccountPosition
}

// ScheduleTick is one firing of a TimeScheduler task.
type ScheduleTick struct {
	Timestamp uint64 // microseconds
	Period    time.Duration
}

// Tensor is a flat N-dimensional float buffer exchanged with the model
// inference endpoint. The msgpack tags pin the wire field names; Shape
// has one entry per dimension, Metadata carries model, instrument,
// threshold and similar free-form keys.
type Tensor struct {
	Timestamp uint64            `msgpack:"timestamp"`
	Data      []float32         `msgpack:"data"`
	Shape     []int             `msgpack:"shape"`
	Metadata  map[string]string `msgpack:"metadata"`
}

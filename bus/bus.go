package bus

import (
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/task"
)

// Bus is the frozen set of topics assembled by the environment builder.
// Topic discovery is by kind via the typed accessors; an accessor returns
// nil when that kind was never registered, and producers treat a nil
// topic for a kind they need as a configuration error (logged at the
// first publish attempt).
type Bus struct {
	cexEvent  *Topic[*task.WsTask]
	altEvent  *Topic[*task.AltTask]
	scheduler *Topic[event.ScheduleTick]
	orderExec *Topic[[]market.OrderParams]
	preds     *Topic[*event.Tensor]
	trade     *Topic[[]event.Trade]
	lob       *Topic[[]event.OrderBook]
	candle    *Topic[[]event.Candle]
	accOrder  *Topic[[]event.AccountOrder]
	accBalPos *Topic[[]event.AccountBalPos]

	order []Kind // registration order
}

// New returns an empty bus. Production code goes through the builder,
// which registers topics and freezes the set; tests may drive this
// directly.
func New() *Bus {
	return &Bus{}
}

// Register creates the topic for kind with the given capacity. It
// reports false without side effects when the kind is already present —
// re-declaring a default topic is normal upstream configuration, so the
// duplicate is skipped, not rejected.
func (b *Bus) Register(kind Kind, capacity int) bool {
	if b.Has(kind) {
		return false
	}
	switch kind {
	case KindCexEvent:
		b.cexEvent = NewTopic[*task.WsTask](kind, capacity)
	case KindAltEvent:
		b.altEvent = NewTopic[*task.AltTask](kind, capacity)
	case KindScheduler:
		b.scheduler = NewTopic[event.ScheduleTick](kind, capacity)
	case KindOrderExecution:
		b.orderExec = NewTopic[[]market.OrderParams](kind, capacity)
	case KindPreds:
		b.preds = NewTopic[*event.Tensor](kind, capacity)
	case KindTrade:
		b.trade = NewTopic[[]event.Trade](kind, capacity)
	case KindLob:
		b.lob = NewTopic[[]event.OrderBook](kind, capacity)
	case KindCandle:
		b.candle = NewTopic[[]event.Candle](kind, capacity)
	case KindAccountOrder:
		b.accOrder = NewTopic[[]event.AccountOrder](kind, capacity)
	case KindAccountBalPos:
		b.accBalPos = NewTopic[[]event.AccountBalPos](kind, capacity)
	default:
		return false
	}
	b.order = append(b.order, kind)
	return true
}

// Has reports whether a topic of the given kind is registered.
func (b *Bus) Has(kind Kind) bool {
	switch kind {
	case KindCexEvent:
		return b.cexEvent != nil
	case KindAltEvent:
		return b.altEvent != nil
	case KindScheduler:
		return b.scheduler != nil
	case KindOrderExecution:
		return b.orderExec != nil
	case KindPreds:
		return b.preds != nil
	case KindTrade:
		return b.trade != nil
	case KindLob:
		return b.lob != nil
	case KindCandle:
		return b.candle != nil
	case KindAccountOrder:
		return b.accOrder != nil
	case KindAccountBalPos:
		return b.accBalPos != nil
	default:
		return false
	}
}

// Kinds returns the registered kinds in registration order.
func (b *Bus) Kinds() []Kind {
	out := make([]Kind, len(b.order))
	copy(out, b.order)
	return out
}

// CexEvent is the WebSocket task ready-notice topic, nil if absent.
func (b *Bus) CexEvent() *Topic[*task.WsTask] { return b.cexEvent }

// AltEvent is the auxiliary task ready-notice topic, nil if absent.
func (b *Bus) AltEvent() *Topic[*task.AltTask] { return b.altEvent }

// Scheduler is the periodic tick topic, nil if absent.
func (b *Bus) Scheduler() *Topic[event.ScheduleTick] { return b.scheduler }

// OrderExecution is the order batch relay topic, nil if absent.
func (b *Bus) OrderExecution() *Topic[[]market.OrderParams] { return b.orderExec }

// Preds is the model prediction topic, nil if absent.
func (b *Bus) Preds() *Topic[*event.Tensor] { return b.preds }

// Trade is the trade batch topic, nil if absent.
func (b *Bus) Trade() *Topic[[]event.Trade] { return b.trade }

// Lob is the order-book batch topic, nil if absent.
func (b *Bus) Lob() *Topic[[]event.OrderBook] { return b.lob }

// Candle is the candle batch topic, nil if absent.
func (b *Bus) Candle() *Topic[[]event.Candle] { return b.candle }

// AccountOrder is the account order-update topic, nil if absent.
func (b *Bus) AccountOrder() *Topic[[]event.AccountOrder] { return b.accOrder }

// AccountBalPos is the account balance/position topic, nil if absent.
func (b *Bus) AccountBalPos() *Topic[[]event.AccountBalPos] { return b.accBalPos }

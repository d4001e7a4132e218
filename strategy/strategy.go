// Package strategy defines the user-facing strategy contract and the
// per-strategy dispatch loop that drives it from the topic bus.
package strategy

import (
	"context"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/task"
)

// Strategy is any value implementing the full callback set plus command
// plumbing. Embed Base to inherit no-op callbacks and the registry, and
// override only what the strategy consumes.
//
// Within one strategy, callbacks are invoked sequentially by its own
// dispatch loop; across strategies dispatch is concurrent. A strategy
// must contain its own failures — the runtime never observes callback
// errors.
type Strategy interface {
	// Initialize runs once, before any task handle is registered and
	// before dispatch starts.
	Initialize(ctx context.Context)
	// Name tags the strategy in logs.
	Name() string

	CommandEmitter
	EventHandler
}

// CommandEmitter wires task handles into a strategy. CommandInit is
// called once per task instance handle, for every strategy, before any
// dispatch loop starts consuming.
type CommandEmitter interface {
	CommandInit(h *command.Handle)
	CommandRegistry() []*command.Handle
}

// EventHandler is one callback per topic kind.
type EventHandler interface {
	OnAltEvent(ctx context.Context, msg bus.Envelope[*task.AltTask])
	OnWsEvent(ctx context.Context, msg bus.Envelope[*task.WsTask])
	OnSchedule(ctx context.Context, msg bus.Envelope[event.ScheduleTick])
	OnPreds(ctx context.Context, msg bus.Envelope[*event.Tensor])
	OnOrderExecution(ctx context.Context, msg bus.Envelope[[]market.OrderParams])
	OnTrade(ctx context.Context, msg bus.Envelope[[]event.Trade])
	OnLob(ctx context.Context, msg bus.Envelope[[]event.OrderBook])
	OnCandle(ctx context.Context, msg bus.Envelope[[]event.Candle])
	OnAccOrder(ctx context.Context, msg bus.Envelope[[]event.AccountOrder])
	OnAccBalPos(ctx context.Context, msg bus.Envelope[[]event.AccountBalPos])
}

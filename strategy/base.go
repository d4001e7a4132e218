package strategy

import (
	"context"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/task"
)

// Base supplies the command registry and no-op implementations of every
// callback. Concrete strategies embed it and override the callbacks they
// care about.
type Base struct {
	handles []*command.Handle
}

// CommandInit appends a task handle to the registry. The mediator calls
// it before dispatch starts; it is not synchronized for later use.
func (b *Base) CommandInit(h *command.Handle) {
	b.handles = append(b.handles, h)
}

// CommandRegistry returns all registered handles in registration order.
func (b *Base) CommandRegistry() []*command.Handle {
	return b.handles
}

// FindAltHandle returns the first registered handle of an auxiliary task
// matching kind and task id, or nil.
func (b *Base) FindAltHandle(kind task.AltKind, taskID uint64) *command.Handle {
	for _, h := range b.handles {
		if alt, ok := h.Desc.(*task.AltTask); ok && alt.Kind == kind && h.TaskID == taskID {
			return h
		}
	}
	return nil
}

// FindWsHandle returns the first registered handle of a WebSocket task
// matching channel and task id, or nil.
func (b *Base) FindWsHandle(channel market.WsChannel, taskID uint64) *command.Handle {
	for _, h := range b.handles {
		if ws, ok := h.Desc.(*task.WsTask); ok && ws.Channel == channel && h.TaskID == taskID {
			return h
		}
	}
	return nil
}

func (b *Base) Initialize(context.Context) {}

func (b *Base) Name() string { return "strategy" }

func (b *Base) OnAltEvent(context.Context, bus.Envelope[*task.AltTask])            {}
func (b *Base) OnWsEvent(context.Context, bus.Envelope[*task.WsTask])              {}
func (b *Base) OnSchedule(context.Context, bus.Envelope[event.ScheduleTick])       {}
func (b *Base) OnPreds(context.Context, bus.Envelope[*event.Tensor])               {}
func (b *Base) OnOrderExecution(context.Context, bus.Envelope[[]market.OrderParams]) {}
func (b *Base) OnTrade(context.Context, bus.Envelope[[]event.Trade])               {}
func (b *Base) OnLob(context.Context, bus.Envelope[[]event.OrderBook])             {}
func (b *Base) OnCandle(context.Context, bus.Envelope[[]event.Candle])             {}
func (b *Base) OnAccOrder(context.Context, bus.Envelope[[]event.AccountOrder])     {}
func (b *Base) OnAccBalPos(context.Context, bus.Envelope[[]event.AccountBalPos])   {}

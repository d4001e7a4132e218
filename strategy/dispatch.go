package strategy

import (
	"context"
	"log/slog"

	"github.com/Lqz13Th/extrema-infra/bus"
)

// sub tracks one topic subscription of a dispatch loop. topic re-resolves
// the sender so a closed receiver can re-subscribe; a kind that was never
// registered yields a nil delivery channel, which blocks forever in the
// select — the callback simply never fires.
type sub[T any] struct {
	topic func() *bus.Topic[T]
	r     *bus.Receiver[T]
}

func open[T any](topic func() *bus.Topic[T]) *sub[T] {
	s := &sub[T]{topic: topic}
	s.resubscribe()
	return s
}

func (s *sub[T]) resubscribe() {
	if t := s.topic(); t != nil {
		s.r = t.Subscribe()
	} else {
		s.r = nil
	}
}

func (s *sub[T]) c() <-chan bus.Envelope[T] {
	if s.r == nil {
		return nil
	}
	return s.r.C()
}

func (s *sub[T]) lagged() uint64 {
	if s.r == nil {
		return 0
	}
	return s.r.Lagged()
}

// Run drives one strategy from the bus until ctx is done. It subscribes
// to every registered topic, selects across the receivers, and invokes
// the matching callback synchronously — so no two callbacks ever run
// concurrently on the same strategy. A closed receiver is re-resolved; a
// lagged receiver is logged and delivery continues from the drop point.
func Run(ctx context.Context, s Strategy, b *bus.Bus, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("strategy", s.Name())

	cexEvent := open(b.CexEvent)
	altEvent := open(b.AltEvent)
	scheduler := open(b.Scheduler)
	orderExec := open(b.OrderExecution)
	preds := open(b.Preds)
	trade := open(b.Trade)
	lob := open(b.Lob)
	candle := open(b.Candle)
	accOrder := open(b.AccountOrder)
	accBalPos := open(b.AccountBalPos)

	logger.Info("dispatch loop started", "topics", len(b.Kinds()))

	reopen := func(name string, re func()) {
		logger.Error("receiver closed, resubscribing", "topic", name)
		re()
	}
	lag := func(name string, n uint64) {
		if n > 0 {
			logger.Warn("receiver lagged", "topic", name, "dropped", n)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatch loop stopped")
			return

		case env, ok := <-trade.c():
			if !ok {
				reopen("trade", trade.resubscribe)
				continue
			}
			lag("trade", trade.lagged())
			s.OnTrade(ctx, env)

		case env, ok := <-lob.c():
			if !ok {
				reopen("lob", lob.resubscribe)
				continue
			}
			lag("lob", lob.lagged())
			s.OnLob(ctx, env)

		case env, ok := <-candle.c():
			if !ok {
				reopen("candle", candle.resubscribe)
				continue
			}
			lag("candle", candle.lagged())
			s.OnCandle(ctx, env)

		case env, ok := <-accOrder.c():
			if !ok {
				reopen("account_order", accOrder.resubscribe)
				continue
			}
			lag("account_order", accOrder.lagged())
			s.OnAccOrder(ctx, env)

		case env, ok := <-accBalPos.c():
			if !ok {
				reopen("account_bal_pos", accBalPos.resubscribe)
				continue
			}
			lag("account_bal_pos", accBalPos.lagged())
			s.OnAccBalPos(ctx, env)

		case env, ok := <-scheduler.c():
			if !ok {
				reopen("scheduler", scheduler.resubscribe)
				continue
			}
			lag("scheduler", scheduler.lagged())
			s.OnSchedule(ctx, env)

		case env, ok := <-preds.c():
			if !ok {
				reopen("preds", preds.resubscribe)
				continue
			}
			lag("preds", preds.lagged())
			s.OnPreds(ctx, env)

		case env, ok := <-orderExec.c():
			if !ok {
				reopen("order_execution", orderExec.resubscribe)
				continue
			}
			lag("order_execution", orderExec.lagged())
			s.OnOrderExecution(ctx, env)

		case env, ok := <-cexEvent.c():
			if !ok {
				reopen("cex_event", cexEvent.resubscribe)
				continue
			}
			lag("cex_event", cexEvent.lagged())
			s.OnWsEvent(ctx, env)

		case env, ok := <-altEvent.c():
			if !ok {
				reopen("alt_event", altEvent.resubscribe)
				continue
			}
			lag("alt_event", altEvent.lagged())
			s.OnAltEvent(ctx, env)
		}
	}
}

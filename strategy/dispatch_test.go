package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/event"
)

// recorder collects candle and trade callbacks on channels so tests can
// assert delivery order.
type recorder struct {
	Base
	name    string
	candles chan bus.Envelope[[]event.Candle]
	trades  chan bus.Envelope[[]event.Trade]
	gate    chan struct{} // when non-nil, OnTrade waits on it once
}

func newRecorder(name string) *recorder {
	return &recorder{
		name:    name,
		candles: make(chan bus.Envelope[[]event.Candle], 64),
		trades:  make(chan bus.Envelope[[]event.Trade], 64),
	}
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnCandle(_ context.Context, msg bus.Envelope[[]event.Candle]) {
	r.candles <- msg
}

func (r *recorder) OnTrade(_ context.Context, msg bus.Envelope[[]event.Trade]) {
	if r.gate != nil {
		<-r.gate
		r.gate = nil
	}
	r.trades <- msg
}

func waitCandle(t *testing.T, r *recorder) bus.Envelope[[]event.Candle] {
	t.Helper()
	select {
	case env := <-r.candles:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for candle callback")
		return bus.Envelope[[]event.Candle]{}
	}
}

// TestFanOutTwoStrategies publishes three candle batches and checks both
// strategies observe all three, in order, with the producing task id.
func TestFanOutTwoStrategies(t *testing.T) {
	b := bus.New()
	b.Register(bus.KindCandle, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newRecorder("a")
	c := newRecorder("b")
	go Run(ctx, a, b, nil)
	go Run(ctx, c, b, nil)

	// Both loops must be subscribed before publishing; poll the topic.
	deadline := time.Now().Add(2 * time.Second)
	for b.Candle().Subscribers() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("dispatch loops never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	for ts := uint64(1); ts <= 3; ts++ {
		b.Candle().Publish(bus.Envelope[[]event.Candle]{
			TaskID: 1,
			Data:   []event.Candle{{Timestamp: ts * 1_000_000}},
		})
	}

	for _, r := range []*recorder{a, c} {
		for want := uint64(1); want <= 3; want++ {
			env := waitCandle(t, r)
			if env.TaskID != 1 {
				t.Errorf("%s: task id = %d, want 1", r.name, env.TaskID)
			}
			if got := env.Data[0].Timestamp; got != want*1_000_000 {
				t.Errorf("%s: candle %d timestamp = %d, want %d", r.name, want, got, want*1_000_000)
			}
		}
	}
}

// TestMissingTopicNeverFires runs a strategy on a bus without a trade
// topic: the trade callback must simply never fire while other topics
// flow normally.
func TestMissingTopicNeverFires(t *testing.T) {
	b := bus.New()
	b.Register(bus.KindCandle, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRecorder("solo")
	go Run(ctx, r, b, nil)

	deadline := time.Now().Add(2 * time.Second)
	for b.Candle().Subscribers() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("dispatch loop never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	b.Candle().Publish(bus.Envelope[[]event.Candle]{Data: []event.Candle{{}}})
	waitCandle(t, r)

	select {
	case <-r.trades:
		t.Error("trade callback fired without a trade topic")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestLagTolerated floods a topic past a blocked consumer:
// the loop must survive the lag, then deliver the surviving envelopes in
// strictly increasing order.
func TestLagTolerated(t *testing.T) {
	b := bus.New()
	b.Register(bus.KindTrade, 0)
	b.Register(bus.KindCandle, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRecorder("laggy")
	r.gate = make(chan struct{})
	gate := r.gate
	go Run(ctx, r, b, nil)

	deadline := time.Now().Add(2 * time.Second)
	for b.Trade().Subscribers() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("dispatch loop never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	// First publish is consumed and parks in the gated callback; the
	// rest overflow the receiver while it is stuck.
	const total = 4096
	for i := uint64(1); i <= total; i++ {
		b.Trade().Publish(bus.Envelope[[]event.Trade]{
			Data: []event.Trade{{TradeID: i}},
		})
	}
	close(gate)

	var last uint64
	received := 0
	for {
		select {
		case env := <-r.trades:
			id := env.Data[0].TradeID
			if id <= last {
				t.Fatalf("trade ids not strictly increasing: %d after %d", id, last)
			}
			last = id
			received++
		case <-time.After(300 * time.Millisecond):
			if received == 0 {
				t.Fatal("no trades delivered after lag")
			}
			if received >= total {
				t.Errorf("received all %d trades, expected drops under lag", received)
			}
			return
		}
	}
}

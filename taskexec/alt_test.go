package taskexec

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/task"
)

func shrinkAltTimers(t *testing.T) {
	t.Helper()
	oldRestart, oldTimeout := altRestartDelay, inferenceTimeout
	altRestartDelay = 10 * time.Millisecond
	inferenceTimeout = 100 * time.Millisecond
	t.Cleanup(func() {
		altRestartDelay, inferenceTimeout = oldRestart, oldTimeout
	})
}

func altBus() *bus.Bus {
	b := bus.New()
	b.Register(bus.KindAltEvent, 0)
	b.Register(bus.KindScheduler, 0)
	b.Register(bus.KindOrderExecution, 0)
	b.Register(bus.KindPreds, 0)
	return b
}

func TestSchedulerTicks(t *testing.T) {
	shrinkAltTimers(t)

	b := altBus()
	ticks := b.Scheduler().Subscribe()

	info := &task.AltTask{Kind: task.TimeScheduler(20 * time.Millisecond), Chunk: 1}
	_, inbox := command.NewHandle(info, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunAlt(ctx, info, 1, inbox, b, nil)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	var last uint64
	for i := 0; i < 3; i++ {
		env, err := ticks.Recv(recvCtx)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if env.TaskID != 1 {
			t.Errorf("tick task id = %d, want 1", env.TaskID)
		}
		if env.Data.Period != 20*time.Millisecond {
			t.Errorf("tick period = %s, want 20ms", env.Data.Period)
		}
		if env.Data.Timestamp <= last {
			t.Errorf("tick timestamps not increasing: %d after %d", env.Data.Timestamp, last)
		}
		last = env.Data.Timestamp
	}
}

func TestSchedulerPeriodFloor(t *testing.T) {
	shrinkAltTimers(t)

	b := altBus()
	ticks := b.Scheduler().Subscribe()

	info := &task.AltTask{Kind: task.TimeScheduler(0), Chunk: 1}
	_, inbox := command.NewHandle(info, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunAlt(ctx, info, 1, inbox, b, nil)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	env, err := ticks.Recv(recvCtx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if env.Data.Period != time.Millisecond {
		t.Errorf("zero period floored to %s, want 1ms", env.Data.Period)
	}
}

func TestSchedulerAutoAcksCommands(t *testing.T) {
	shrinkAltTimers(t)

	b := altBus()
	info := &task.AltTask{Kind: task.TimeScheduler(time.Hour), Chunk: 1}
	h, inbox := command.NewHandle(info, 1, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunAlt(ctx, info, 1, inbox, b, nil)

	ack, rx := command.NewAck()
	if err := h.Send(ctx, command.WsMessage{Msg: "noise", Ack: ack}); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case got := <-rx:
		if got != command.AckAltTask {
			t.Errorf("auto-ack = %s, want alt_task", got)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler never auto-acked")
	}
}

func TestOrderExecutionRelay(t *testing.T) {
	shrinkAltTimers(t)

	b := altBus()
	notices := b.AltEvent().Subscribe()
	batches := b.OrderExecution().Subscribe()

	info := &task.AltTask{Kind: task.OrderExecution(), Chunk: 1, BaseID: 42}
	h, inbox := command.NewHandle(info, 42, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunAlt(ctx, info, 42, inbox, b, nil)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	notice, err := notices.Recv(recvCtx)
	if err != nil {
		t.Fatalf("notice: %v", err)
	}
	if notice.TaskID != 42 || notice.Data != info {
		t.Fatalf("notice = task %d, want 42 with declaring descriptor", notice.TaskID)
	}

	orders := []market.OrderParams{
		{Inst: "BTC_USDT_PERP", Side: market.Buy, Size: "1", OrderType: market.Market},
		{Inst: "ETH_USDT_PERP", Side: market.Sell, Size: "2", OrderType: market.Limit, Price: "2000"},
	}
	if err := h.Send(ctx, command.OrderExecute{Orders: orders}); err != nil {
		t.Fatalf("send: %v", err)
	}

	env, err := batches.Recv(recvCtx)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if env.TaskID != 42 {
		t.Errorf("batch task id = %d, want 42", env.TaskID)
	}
	if len(env.Data) != 2 || env.Data[0].Inst != "BTC_USDT_PERP" || env.Data[1].Inst != "ETH_USDT_PERP" {
		t.Errorf("batch = %+v, want the submitted order pair in order", env.Data)
	}
}

// TestAltReannounceAfterLoopExit closes the inbox of an order-execution
// instance: the inner loop ends and the restart cycle must publish a
// fresh ready notice.
func TestAltReannounceAfterLoopExit(t *testing.T) {
	shrinkAltTimers(t)

	b := altBus()
	notices := b.AltEvent().Subscribe()

	info := &task.AltTask{Kind: task.OrderExecution(), Chunk: 1}
	inbox := make(chan command.Command)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunAlt(ctx, info, 1, inbox, b, nil)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	if _, err := notices.Recv(recvCtx); err != nil {
		t.Fatalf("first notice: %v", err)
	}

	close(inbox)

	if _, err := notices.Recv(recvCtx); err != nil {
		t.Fatalf("re-announce after loop exit: %v", err)
	}
}

// repServer answers every request with reply built by fn, or never
// answers when fn is nil. Returns the bound port.
func repServer(ctx context.Context, t *testing.T, fn func(req event.Tensor) event.Tensor) uint64 {
	t.Helper()
	rep := zmq4.NewRep(ctx)
	if err := rep.Listen("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("rep listen: %v", err)
	}
	t.Cleanup(func() { rep.Close() })

	_, portStr, err := net.SplitHostPort(rep.Addr().String())
	if err != nil {
		t.Fatalf("rep addr: %v", err)
	}
	port, _ := strconv.ParseUint(portStr, 10, 64)

	go func() {
		for {
			msg, err := rep.Recv()
			if err != nil {
				return
			}
			if fn == nil {
				continue
			}
			var req event.Tensor
			if err := msgpack.Unmarshal(msg.Frames[0], &req); err != nil {
				return
			}
			out, err := msgpack.Marshal(fn(req))
			if err != nil {
				return
			}
			if err := rep.Send(zmq4.NewMsg(out)); err != nil {
				return
			}
		}
	}()
	return port
}

func TestModelPredsRoundTrip(t *testing.T) {
	shrinkAltTimers(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := repServer(ctx, t, func(req event.Tensor) event.Tensor {
		return event.Tensor{
			Timestamp: req.Timestamp,
			Data:      []float32{0.75},
			Shape:     []int{1},
			Metadata:  map[string]string{"model": "echo"},
		}
	})

	b := altBus()
	preds := b.Preds().Subscribe()

	info := &task.AltTask{Kind: task.ModelPreds(port), Chunk: 1}
	h, inbox := command.NewHandle(info, 1, 0)
	go RunAlt(ctx, info, 1, inbox, b, nil)

	feat := &event.Tensor{
		Timestamp: 123,
		Data:      []float32{1, 2, 3},
		Shape:     []int{3},
		Metadata:  map[string]string{"inst": "BTC_USDT_PERP"},
	}
	if err := h.Send(ctx, command.FeatInput{Tensor: feat}); err != nil {
		t.Fatalf("send: %v", err)
	}

	recvCtx, recvCancel := context.WithTimeout(ctx, 5*time.Second)
	defer recvCancel()
	env, err := preds.Recv(recvCtx)
	if err != nil {
		t.Fatalf("preds: %v", err)
	}
	if env.TaskID != 1 {
		t.Errorf("preds task id = %d, want 1", env.TaskID)
	}
	if env.Data.Timestamp != 123 || len(env.Data.Data) != 1 || env.Data.Data[0] != 0.75 {
		t.Errorf("preds tensor = %+v, want echo reply", env.Data)
	}
	if env.Data.Metadata["model"] != "echo" {
		t.Errorf("preds metadata = %v, want model=echo", env.Data.Metadata)
	}
}

func TestModelPredsTimeoutDropsTick(t *testing.T) {
	shrinkAltTimers(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := repServer(ctx, t, nil) // never replies

	b := altBus()
	preds := b.Preds().Subscribe()

	info := &task.AltTask{Kind: task.ModelPreds(port), Chunk: 1}
	h, inbox := command.NewHandle(info, 1, 0)
	go RunAlt(ctx, info, 1, inbox, b, nil)

	feat := &event.Tensor{Timestamp: 1, Data: []float32{1}, Shape: []int{1}}
	if err := h.Send(ctx, command.FeatInput{Tensor: feat}); err != nil {
		t.Fatalf("send: %v", err)
	}

	// The deadline elapses, the tick is dropped, nothing is published
	// and nothing crashes.
	select {
	case env := <-preds.C():
		t.Errorf("timed-out tick published %+v", env)
	case <-time.After(4 * inferenceTimeout):
	}
}

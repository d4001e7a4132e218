package taskexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/event"
	"github.com/Lqz13Th/extrema-infra/market"
	"github.com/Lqz13Th/extrema-infra/task"
)

var (
	altRestartDelay  = 5 * time.Second
	inferenceTimeout = 20 * time.Second
)

// minSchedulerPeriod floors the tick period so a zero or sub-millisecond
// configuration cannot busy-spin the worker pool.
const minSchedulerPeriod = time.Millisecond

// RunAlt drives one auxiliary task instance until ctx is done. Every
// (re)start publishes a ready notice before the kind-specific loop; the
// restart delay applies whenever that loop returns.
func RunAlt(
	ctx context.Context,
	info *task.AltTask,
	taskID uint64,
	cmds <-chan command.Command,
	b *bus.Bus,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &altRunner{
		info: info,
		id:   taskID,
		cmds: cmds,
		bus:  b,
		log:  logger.With("task", info.Label(), "id", taskID),
	}
	a.run(ctx)
}

type altRunner struct {
	info *task.AltTask
	id   uint64
	cmds <-chan command.Command
	bus  *bus.Bus
	log  *slog.Logger
}

func (a *altRunner) run(ctx context.Context) {
	a.log.Info("spawned alt task")
	for {
		if !sleepCtx(ctx, altRestartDelay) {
			return
		}
		a.announce()
		a.log.Info("initiated")

		switch a.info.Kind.Tag {
		case task.KindTimeScheduler:
			a.timeScheduler(ctx)
		case task.KindOrderExecution:
			a.orderExecution(ctx)
		case task.KindModelPreds:
			a.modelPreds(ctx)
		default:
			a.log.Error("unknown alt task kind", "kind", a.info.Kind)
			<-ctx.Done()
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (a *altRunner) announce() {
	t := a.bus.AltEvent()
	if t == nil {
		a.log.Warn("no topic registered for alt ready notice")
		return
	}
	if n := t.Publish(bus.Envelope[*task.AltTask]{TaskID: a.id, Data: a.info}); n == 0 {
		a.log.Warn("ready notice published with no subscribers")
	}
}

// handleUnexpected logs a command the task has no use for and auto-acks
// it with the auxiliary tag so the issuer is not left waiting.
func (a *altRunner) handleUnexpected(cmd command.Command) {
	a.log.Warn("unexpected command, auto-ack")
	if ack, ok := command.AckOf(cmd); ok {
		ack.Respond(command.AckAltTask)
	}
}

// timeScheduler publishes a tick every period. A closed inbox is not
// fatal: ticks keep flowing, only command handling stops.
func (a *altRunner) timeScheduler(ctx context.Context) {
	t := a.bus.Scheduler()
	if t == nil {
		a.log.Error("no topic registered for scheduler ticks")
		<-ctx.Done()
		return
	}

	period := a.info.Kind.Period
	if period < minSchedulerPeriod {
		period = minSchedulerPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	cmds := a.cmds
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Publish(bus.Envelope[event.ScheduleTick]{
				TaskID: a.id,
				Data:   event.ScheduleTick{Timestamp: market.NowMicros(), Period: period},
			})
		case cmd, ok := <-cmds:
			if !ok {
				a.log.Error("command inbox closed, scheduler keeps ticking")
				cmds = nil
				continue
			}
			a.handleUnexpected(cmd)
		}
	}
}

// orderExecution republishes order batches from the inbox onto the
// order-execution topic, decoupling strategies from the exchange-facing
// executor that subscribes to it.
func (a *altRunner) orderExecution(ctx context.Context) {
	t := a.bus.OrderExecution()
	if t == nil {
		a.log.Error("no topic registered for order execution")
		<-ctx.Done()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-a.cmds:
			if !ok {
				a.log.Error("command inbox closed")
				return
			}
			exec, isExec := cmd.(command.OrderExecute)
			if !isExec {
				a.handleUnexpected(cmd)
				continue
			}
			t.Publish(bus.Envelope[[]market.OrderParams]{TaskID: a.id, Data: exec.Orders})
		}
	}
}

type zmqReply struct {
	msg zmq4.Msg
	err error
}

// modelPreds relays feature tensors to the inference endpoint over a
// REQ socket and publishes the replies. A reply missing its deadline
// drops that tick; the socket stays out of lockstep until the late reply
// arrives and is discarded. Connect and transport failures end the loop
// and the outer restart reconnects.
func (a *altRunner) modelPreds(ctx context.Context) {
	t := a.bus.Preds()
	if t == nil {
		a.log.Error("no topic registered for model preds")
		<-ctx.Done()
		return
	}

	addr := fmt.Sprintf("tcp://127.0.0.1:%d", a.info.Kind.Port)
	socket := zmq4.NewReq(ctx)
	defer socket.Close()

	a.log.Info("connecting to model socket", "addr", addr)
	if err := socket.Dial(addr); err != nil {
		a.log.Error("model socket connect failed", "addr", addr, "err", err)
		return
	}
	a.log.Info("connected to model socket", "addr", addr)

	var pending chan zmqReply
	for {
		var tensor *event.Tensor
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-a.cmds:
			if !ok {
				a.log.Error("command inbox closed")
				return
			}
			feat, isFeat := cmd.(command.FeatInput)
			if !isFeat {
				a.handleUnexpected(cmd)
				continue
			}
			tensor = feat.Tensor
		}

		if pending != nil {
			// A reply from a timed-out request may still be in flight.
			// The REQ socket cannot send again until it lands; discard
			// it if it has, otherwise drop this tick too.
			select {
			case <-pending:
				pending = nil
			default:
				a.log.Warn("previous reply still outstanding, dropping tick")
				continue
			}
		}

		buf, err := msgpack.Marshal(tensor)
		if err != nil {
			a.log.Error("failed to serialize tensor", "err", err)
			return
		}
		if err := socket.Send(zmq4.NewMsg(buf)); err != nil {
			a.log.Error("model socket send failed", "err", err)
			return
		}

		pending = make(chan zmqReply, 1)
		go func(replies chan<- zmqReply) {
			msg, err := socket.Recv()
			replies <- zmqReply{msg: msg, err: err}
		}(pending)

		deadline := time.NewTimer(inferenceTimeout)
		select {
		case <-ctx.Done():
			deadline.Stop()
			return
		case <-deadline.C:
			a.log.Warn("model prediction timed out, dropping tick")
			continue
		case reply := <-pending:
			deadline.Stop()
			pending = nil
			if reply.err != nil {
				a.log.Error("model socket recv failed", "err", reply.err)
				return
			}
			if len(reply.msg.Frames) == 0 {
				a.log.Error("model reply had no frame")
				continue
			}
			var preds event.Tensor
			if err := msgpack.Unmarshal(reply.msg.Frames[0], &preds); err != nil {
				a.log.Error("failed to deserialize model reply", "err", err)
				continue
			}
			t.Publish(bus.Envelope[*event.Tensor]{TaskID: a.id, Data: &preds})
		}
	}
}

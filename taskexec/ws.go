package taskexec

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/task"
)

// Timing knobs. Package-level so tests can shrink them; production code
// never touches these.
var (
	startupDelayBase = 5 * time.Second
	startupDelayStep = 3 * time.Second
	reconnectDelay   = 5 * time.Second
	frameIdleTimeout = 10 * time.Second
)

var pingPayload = []byte("ping")

const controlWriteWait = 5 * time.Second

// RunWs drives one WebSocket task instance until ctx is done. The
// instance cycles idle → announce → await-connect → running forever; the
// staggered startup delay applies only to the first cycle, reconnects
// wait a flat delay.
func RunWs(
	ctx context.Context,
	info *task.WsTask,
	taskID uint64,
	cmds <-chan command.Command,
	b *bus.Bus,
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &wsRunner{
		info: info,
		id:   taskID,
		cmds: cmds,
		bus:  b,
		log:  logger.With("task", info.Label(), "id", taskID),
		dialer: &websocket.Dialer{
			ReadBufferSize:   1024 * 1024,
			WriteBufferSize:  64 * 1024,
			HandshakeTimeout: 10 * time.Second,
		},
	}
	w.run(ctx)
}

type wsRunner struct {
	info   *task.WsTask
	id     uint64
	cmds   <-chan command.Command
	bus    *bus.Bus
	log    *slog.Logger
	dialer *websocket.Dialer
}

func (w *wsRunner) run(ctx context.Context) {
	w.log.Info("spawned ws task")

	delay := startupDelayBase + time.Duration(w.id)*startupDelayStep
	for {
		if !sleepCtx(ctx, delay) {
			return
		}
		delay = reconnectDelay

		w.announce()
		w.log.Info("initiated")

		conn := w.awaitConnect(ctx)
		if conn == nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		fn, ok := lookupFrame(w.info.Venue, w.info.Channel.Kind)
		if !ok {
			// The (venue, channel) set must be covered by registered
			// decoders; a miss is a wiring bug, not a transient.
			w.log.Error("no frame decoder for channel, task stalled",
				"venue", w.info.Venue, "channel", w.info.Channel)
			conn.Close()
			w.stall(ctx)
			return
		}

		w.running(ctx, conn, fn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
	}
}

// announce publishes the ready notice. Emitted on every (re)start, before
// any data frames from the new cycle.
func (w *wsRunner) announce() {
	t := w.bus.CexEvent()
	if t == nil {
		w.log.Warn("no topic registered for ws ready notice")
		return
	}
	if n := t.Publish(bus.Envelope[*task.WsTask]{TaskID: w.id, Data: w.info}); n == 0 {
		w.log.Warn("ready notice published with no subscribers")
	}
}

// awaitConnect consumes commands until a WsConnect dials successfully.
// Non-connect commands are logged and auto-acked; a failed dial drops the
// caller's ack, waits, and stays in this state. Returns nil when ctx is
// done or the inbox is gone.
func (w *wsRunner) awaitConnect(ctx context.Context) *websocket.Conn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd, ok := <-w.cmds:
			if !ok {
				w.log.Warn("command inbox closed during init")
				return nil
			}
			connect, isConnect := cmd.(command.WsConnect)
			if !isConnect {
				w.log.Warn("unexpected command before connect, auto-ack")
				w.autoAck(cmd)
				continue
			}

			conn, _, err := w.dialer.DialContext(ctx, connect.Msg, nil)
			if err != nil {
				w.log.Error("websocket connect failed", "url", connect.Msg, "err", err)
				connect.Ack.Drop()
				if !sleepCtx(ctx, reconnectDelay) {
					return nil
				}
				continue
			}
			w.log.Info("websocket connected", "url", connect.Msg)
			connect.Ack.Respond(command.AckWsConnect)
			return conn
		}
	}
}

type wsFrame struct {
	messageType int
	data        []byte
}

// running pumps frames and commands concurrently until the connection
// dies, a shutdown arrives, or the idle timeout cannot be kept alive.
func (w *wsRunner) running(ctx context.Context, conn *websocket.Conn, fn FrameFunc) {
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlWriteWait))
	})

	frames := make(chan wsFrame, 16)
	done := make(chan struct{})
	defer close(done)
	go readPump(conn, frames, done)

	idle := time.NewTimer(frameIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case fr, ok := <-frames:
			if !ok {
				w.log.Error("websocket stream ended")
				return
			}
			resetTimer(idle, frameIdleTimeout)
			if fr.messageType != websocket.TextMessage && fr.messageType != websocket.BinaryMessage {
				continue
			}
			if err := fn(w.id, w.bus, fr.data); err != nil {
				w.log.Warn("failed to decode ws frame", "err", err)
			}

		case cmd, ok := <-w.cmds:
			if !ok {
				w.log.Error("command inbox closed")
				return
			}
			if w.handleCommand(conn, cmd) {
				return
			}

		case <-idle.C:
			if err := conn.WriteControl(websocket.PingMessage, pingPayload, time.Now().Add(controlWriteWait)); err != nil {
				w.log.Error("failed to send ping", "err", err)
				return
			}
			idle.Reset(frameIdleTimeout)
		}
	}
}

// handleCommand processes one inbox command while running. Returns true
// when the task must exit the running state.
func (w *wsRunner) handleCommand(conn *websocket.Conn, cmd command.Command) bool {
	switch c := cmd.(type) {
	case command.WsMessage:
		w.writeText(conn, c.Msg, "ws_message")
		c.Ack.Respond(command.AckWsMessage)
		return false
	case command.WsShutdown:
		w.writeText(conn, c.Msg, "ws_shutdown")
		c.Ack.Respond(command.AckWsShutdown)
		return true
	default:
		w.log.Warn("unexpected command while running, auto-ack")
		w.autoAck(cmd)
		return false
	}
}

func (w *wsRunner) writeText(conn *websocket.Conn, msg, what string) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		w.log.Error("failed to send "+what, "err", err)
		return
	}
	w.log.Info("sent "+what, "msg", msg)
}

func (w *wsRunner) autoAck(cmd command.Command) {
	if ack, ok := command.AckOf(cmd); ok {
		ack.Respond(command.SelfAck(cmd))
	}
}

// stall parks a misconfigured instance: commands are drained and
// auto-acked so callers do not hang, nothing is ever published.
func (w *wsRunner) stall(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-w.cmds:
			if !ok {
				<-ctx.Done()
				return
			}
			w.log.Warn("command received by stalled task, auto-ack")
			w.autoAck(cmd)
		}
	}
}

// readPump forwards frames from the connection until it errors. The
// websocket close handshake and transport failures both surface here as
// a read error, closing the frames channel.
func readPump(conn *websocket.Conn, frames chan<- wsFrame, done <-chan struct{}) {
	defer close(frames)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case frames <- wsFrame{messageType: messageType, data: data}:
		case <-done:
			return
		}
	}
}

// sleepCtx sleeps for d, returning false if ctx expired first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// resetTimer restarts a timer whose channel may hold a stale tick.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

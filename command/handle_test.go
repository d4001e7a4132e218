package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lqz13Th/extrema-infra/task"
)

func testDesc() task.Descriptor {
	return &task.AltTask{Kind: task.OrderExecution(), Chunk: 1}
}

// respondAll drains the inbox, acking Ws commands with their own tag.
func respondAll(inbox <-chan Command) {
	for cmd := range inbox {
		if ack, ok := AckOf(cmd); ok {
			ack.Respond(SelfAck(cmd))
		}
	}
}

func TestSendWaitAckMatch(t *testing.T) {
	h, inbox := NewHandle(testDesc(), 1, 8)
	go respondAll(inbox)

	ack, rx := NewAck()
	err := h.SendWait(context.Background(), WsConnect{Msg: "wss://x", Ack: ack}, AckWsConnect, rx)
	if err != nil {
		t.Fatalf("SendWait = %v, want nil", err)
	}
}

func TestSendWaitAckMismatch(t *testing.T) {
	h, inbox := NewHandle(testDesc(), 1, 8)
	go func() {
		cmd := <-inbox
		ack, _ := AckOf(cmd)
		ack.Respond(AckAltTask) // wrong tag on purpose
	}()

	ack, rx := NewAck()
	err := h.SendWait(context.Background(), WsMessage{Msg: "sub", Ack: ack}, AckWsMessage, rx)
	var mismatch *AckMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("SendWait = %v, want *AckMismatchError", err)
	}
	if mismatch.Want != AckWsMessage || mismatch.Got != AckAltTask {
		t.Errorf("mismatch = got %s want %s", mismatch.Got, mismatch.Want)
	}
}

func TestSendWaitAckDropped(t *testing.T) {
	h, inbox := NewHandle(testDesc(), 1, 8)
	go func() {
		cmd := <-inbox
		ack, _ := AckOf(cmd)
		ack.Drop()
	}()

	ack, rx := NewAck()
	err := h.SendWait(context.Background(), WsConnect{Msg: "wss://x", Ack: ack}, AckWsConnect, rx)
	if !errors.Is(err, ErrAckDropped) {
		t.Fatalf("SendWait = %v, want ErrAckDropped", err)
	}
}

func TestSendBackpressure(t *testing.T) {
	h, _ := NewHandle(testDesc(), 1, 1)

	if err := h.Send(context.Background(), OrderExecute{}); err != nil {
		t.Fatalf("first Send: %v", err)
	}

	// Inbox full and nobody consuming: Send must block until ctx expires.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := h.Send(ctx, OrderExecute{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Send on full inbox = %v, want deadline exceeded", err)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Error("Send returned before ctx deadline, want blocking backpressure")
	}
}

func TestAckRespondExactlyOnce(t *testing.T) {
	ack, rx := NewAck()
	ack.Respond(AckWsConnect)
	ack.Respond(AckWsShutdown) // must be ignored

	if got := <-rx; got != AckWsConnect {
		t.Errorf("first recv = %s, want ws_connect", got)
	}
	if _, ok := <-rx; ok {
		t.Error("second recv delivered a value, want closed channel")
	}
}

func TestNoAckRespondNoop(t *testing.T) {
	// Must not panic.
	NoAck().Respond(AckWsMessage)
	NoAck().Drop()
}

// TestAckSequence drives the canonical connect → login → subscribe →
// shutdown exchange and checks the caller observes the tags in order.
func TestAckSequence(t *testing.T) {
	h, inbox := NewHandle(testDesc(), 1002, 8)
	go respondAll(inbox)

	ctx := context.Background()

	ack, rx := NewAck()
	if err := h.SendWait(ctx, WsConnect{Msg: "wss://private", Ack: ack}, AckWsConnect, rx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	ack, rx = NewAck()
	if err := h.SendWait(ctx, WsMessage{Msg: "login", Ack: ack}, AckWsMessage, rx); err != nil {
		t.Fatalf("login: %v", err)
	}
	ack, rx = NewAck()
	if err := h.SendWait(ctx, WsMessage{Msg: "subscribe", Ack: ack}, AckWsMessage, rx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ack, rx = NewAck()
	if err := h.SendWait(ctx, WsShutdown{Msg: "bye", Ack: ack}, AckWsShutdown, rx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

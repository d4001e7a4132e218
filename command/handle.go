package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lqz13Th/extrema-infra/task"
)

// DefaultInboxCapacity bounds a task instance's command inbox. A full
// inbox blocks senders, coupling strategy progress to task health.
const DefaultInboxCapacity = 2048

var (
	// ErrAckDropped means the ack channel was abandoned before a reply
	// arrived.
	ErrAckDropped = errors.New("ack channel dropped before reply")
	// ErrInboxClosed means the task instance is gone for good.
	ErrInboxClosed = errors.New("command inbox closed")
)

// AckMismatchError is the protocol error for a reply whose tag differs
// from the declared expectation.
type AckMismatchError struct {
	Want AckStatus
	Got  AckStatus
}

func (e *AckMismatchError) Error() string {
	return fmt.Sprintf("unexpected ack: got %s, expected %s", e.Got, e.Want)
}

// Handle is the addressable inbox of one task instance. Handles are
// registered into every strategy before dispatch starts, and are safe for
// concurrent senders.
type Handle struct {
	Desc   task.Descriptor
	TaskID uint64

	inbox chan Command
}

// NewHandle builds a handle and the receive side of its inbox.
// capacity <= 0 selects DefaultInboxCapacity.
func NewHandle(desc task.Descriptor, taskID uint64, capacity int) (*Handle, <-chan Command) {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	ch := make(chan Command, capacity)
	return &Handle{Desc: desc, TaskID: taskID, inbox: ch}, ch
}

// Send enqueues cmd, blocking while the inbox is full. It returns the
// context error if ctx expires first.
func (h *Handle) Send(ctx context.Context, cmd Command) error {
	select {
	case h.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send command to %s[%d]: %w", h.Desc.Label(), h.TaskID, ctx.Err())
	}
}

// SendWait enqueues cmd and then waits for its one-shot ack. The caller
// passes the receiver obtained from NewAck together with the tag it
// expects; a different tag yields *AckMismatchError, a dropped channel
// yields ErrAckDropped.
func (h *Handle) SendWait(ctx context.Context, cmd Command, want AckStatus, ack <-chan AckStatus) error {
	if err := h.Send(ctx, cmd); err != nil {
		return err
	}
	select {
	case got, ok := <-ack:
		if !ok {
			return ErrAckDropped
		}
		if got != want {
			return &AckMismatchError{Want: want, Got: got}
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("await %s ack from %s[%d]: %w", want, h.Desc.Label(), h.TaskID, ctx.Err())
	}
}

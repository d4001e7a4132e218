// Package command is the strategy→task control plane: an addressable
// bounded inbox per task instance, a closed command set, and a one-shot
// ack protocol with expected-tag matching.
package command

import "sync"

// AckStatus tags the reply to a command. The issuer declares the tag it
// expects; observing a different one is a protocol error.
type AckStatus int

const (
	AckUnknown AckStatus = iota
	AckWsConnect
	AckWsMessage
	AckWsShutdown
	AckAltTask
)

var ackNames = map[AckStatus]string{
	AckUnknown:    "unknown",
	AckWsConnect:  "ws_connect",
	AckWsMessage:  "ws_message",
	AckWsShutdown: "ws_shutdown",
	AckAltTask:    "alt_task",
}

func (s AckStatus) String() string {
	if n, ok := ackNames[s]; ok {
		return n
	}
	return "unknown"
}

// AckHandle is the task-side end of a one-shot reply. The zero value is a
// valid "no ack requested" handle; Respond on it is a no-op. Respond
// delivers at most once no matter how often it is called.
type AckHandle struct {
	ch   chan<- AckStatus
	once *sync.Once
}

// NewAck creates a linked ack handle and receiver channel. The channel is
// buffered so the responding task never blocks on a departed caller.
func NewAck() (AckHandle, <-chan AckStatus) {
	ch := make(chan AckStatus, 1)
	return AckHandle{ch: ch, once: new(sync.Once)}, ch
}

// NoAck returns a handle that discards the response.
func NoAck() AckHandle { return AckHandle{} }

// Respond sends the status to the waiting caller, exactly once.
func (a AckHandle) Respond(status AckStatus) {
	if a.ch == nil {
		return
	}
	a.once.Do(func() {
		a.ch <- status
		close(a.ch)
	})
}

// Drop abandons the reply without a status. The waiting caller observes a
// dropped ack rather than blocking forever.
func (a AckHandle) Drop() {
	if a.ch == nil {
		return
	}
	a.once.Do(func() {
		close(a.ch)
	})
}

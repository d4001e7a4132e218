// Package taskexec runs task instances: the per-connection WebSocket
// state machine and the auxiliary scheduler / order-relay / inference
// tasks. Instances are spawned by the mediator, one goroutine each, and
// restart themselves forever.
package taskexec

import (
	"sync"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/market"
)

// FrameFunc deserializes one raw WebSocket frame from a given venue
// channel and publishes the decoded events on the bus, tagged with the
// producing task id. Frames that decode to housekeeping (subscription
// confirms, heartbeats) publish nothing and return nil.
type FrameFunc func(taskID uint64, b *bus.Bus, payload []byte) error

type frameKey struct {
	venue   market.Venue
	channel market.ChannelKind
}

var (
	framesMu sync.RWMutex
	frames   = make(map[frameKey]FrameFunc)
)

// RegisterFrame binds the decoder for a (venue, channel family) pair.
// Venue adapter packages call this from init; the last registration
// wins. The declared pair set must be total — a task whose pair has no
// decoder logs an error and stalls instead of entering its read loop.
func RegisterFrame(v market.Venue, k market.ChannelKind, fn FrameFunc) {
	framesMu.Lock()
	defer framesMu.Unlock()
	frames[frameKey{venue: v, channel: k}] = fn
}

func lookupFrame(v market.Venue, k market.ChannelKind) (FrameFunc, bool) {
	framesMu.RLock()
	defer framesMu.RUnlock()
	fn, ok := frames[frameKey{venue: v, channel: k}]
	return fn, ok
}

// Package task defines the descriptors of the long-lived units the
// mediator spawns: WebSocket feed tasks and auxiliary tasks. A descriptor
// with chunk k yields k runtime instances sharing the descriptor, each
// with its own id and command inbox.
package task

import (
	"fmt"
	"time"

	"github.com/Lqz13Th/extrema-infra/market"
)

// Descriptor is either *WsTask or *AltTask. Descriptors are shared
// immutably between the mediator, the command handles, and the ready
// notices published on the bus.
type Descriptor interface {
	// Label is a short human tag used in logs.
	Label() string
	// Chunks is the declared instance count.
	Chunks() uint32
	// Base returns the declared base id, 0 when absent (ids then start
	// at 1).
	Base() uint64
}

// InstanceID derives the id of instance n (0-based) of a descriptor.
func InstanceID(d Descriptor, n uint32) uint64 {
	if base := d.Base(); base != 0 {
		return base + uint64(n)
	}
	return uint64(n) + 1
}

// WsTask declares a set of WebSocket connection instances to one venue
// channel.
type WsTask struct {
	Venue   market.Venue
	Channel market.WsChannel
	// FilterChannels is advisory metadata: strategies that gate private
	// streams key off it. The task loop itself does not consume it.
	FilterChannels bool
	Chunk          uint32
	// BaseID offsets instance ids; 0 means ids run 1..Chunk.
	BaseID uint64
}

func (t *WsTask) Label() string {
	return fmt.Sprintf("ws/%s/%s", t.Venue, t.Channel)
}

func (t *WsTask) Chunks() uint32 { return t.Chunk }
func (t *WsTask) Base() uint64   { return t.BaseID }

// AltKindTag discriminates auxiliary task flavors.
type AltKindTag string

const (
	KindOrderExecution AltKindTag = "order_execution"
	KindModelPreds     AltKindTag = "model_preds"
	KindTimeScheduler  AltKindTag = "time_scheduler"
)

// AltKind is an auxiliary task flavor plus its parameter. Comparable, so
// handle lookups can match with ==.
type AltKind struct {
	Tag    AltKindTag
	Port   uint64        // set for KindModelPreds
	Period time.Duration // set for KindTimeScheduler
}

func OrderExecution() AltKind { return AltKind{Tag: KindOrderExecution} }

func ModelPreds(port uint64) AltKind { return AltKind{Tag: KindModelPreds, Port: port} }

func TimeScheduler(period time.Duration) AltKind {
	return AltKind{Tag: KindTimeScheduler, Period: period}
}

func (k AltKind) String() string {
	switch k.Tag {
	case KindModelPreds:
		return fmt.Sprintf("%s:%d", k.Tag, k.Port)
	case KindTimeScheduler:
		return fmt.Sprintf("%s:%s", k.Tag, k.Period)
	default:
		return string(k.Tag)
	}
}

// AltTask declares a set of auxiliary task instances.
type AltTask struct {
	Kind   AltKind
	Chunk  uint32
	BaseID uint64
}

func (t *AltTask) Label() string  { return "alt/" + t.Kind.String() }
func (t *AltTask) Chunks() uint32 { return t.Chunk }
func (t *AltTask) Base() uint64   { return t.BaseID }

// Package infra assembles and runs a trading environment: a frozen topic
// bus, a set of restartable tasks, and the strategies that consume them.
package infra

import (
	"log/slog"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/strategy"
	"github.com/Lqz13Th/extrema-infra/task"
)

// Builder is the append-only environment configuration. Topics dedupe by
// kind (re-declaring a default is normal and skipped with a diagnostic);
// strategies and tasks accumulate in declaration order.
type Builder struct {
	strategies []strategy.Strategy
	tasks      []task.Descriptor
	bus        *bus.Bus
	topicCap   int
	inboxCap   int
	logger     *slog.Logger
}

// NewBuilder returns an empty environment builder.
func NewBuilder() *Builder {
	return &Builder{
		bus:    bus.New(),
		logger: slog.Default(),
	}
}

// WithLogger sets the logger inherited by the mediator, tasks and
// dispatch loops.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithTopicCapacity overrides the per-subscriber buffer of topics
// registered after this call. Zero restores the default.
func (b *Builder) WithTopicCapacity(capacity int) *Builder {
	b.topicCap = capacity
	return b
}

// WithInboxCapacity overrides the command inbox bound of task instances.
// Zero restores the default.
func (b *Builder) WithInboxCapacity(capacity int) *Builder {
	b.inboxCap = capacity
	return b
}

// WithStrategy appends a strategy. Each strategy is driven by its own
// dispatch loop; the list order is preserved.
func (b *Builder) WithStrategy(s strategy.Strategy) *Builder {
	b.logger.Info("adding strategy", "strategy", s.Name())
	b.strategies = append(b.strategies, s)
	return b
}

// WithTopic registers a broadcast topic for the kind. A duplicate kind is
// skipped: calling it twice yields the same bus as calling it once.
func (b *Builder) WithTopic(kind bus.Kind) *Builder {
	if b.bus.Register(kind, b.topicCap) {
		b.logger.Info("adding broadcast topic", "kind", kind)
	} else {
		b.logger.Info("skipped duplicate topic", "kind", kind)
	}
	return b
}

// WithWsTask declares a WebSocket task. Chunk instances are spawned at
// execute time.
func (b *Builder) WithWsTask(t *task.WsTask) *Builder {
	b.logger.Info("adding task", "task", t.Label(), "chunk", t.Chunk)
	b.tasks = append(b.tasks, t)
	return b
}

// WithAltTask declares an auxiliary task.
func (b *Builder) WithAltTask(t *task.AltTask) *Builder {
	b.logger.Info("adding task", "task", t.Label(), "chunk", t.Chunk)
	b.tasks = append(b.tasks, t)
	return b
}

// Build freezes the configuration into a mediator. The topic set is
// immutable from here on. Declared tasks whose ready-notice topic is
// missing are flagged here rather than failing at the first publish.
func (b *Builder) Build() *Mediator {
	for _, t := range b.tasks {
		switch t.(type) {
		case *task.WsTask:
			if !b.bus.Has(bus.KindCexEvent) {
				b.logger.Warn("ws task declared without cex_event topic, ready notices will be dropped",
					"task", t.Label())
			}
		case *task.AltTask:
			if !b.bus.Has(bus.KindAltEvent) {
				b.logger.Warn("alt task declared without alt_event topic, ready notices will be dropped",
					"task", t.Label())
			}
		}
	}
	return &Mediator{
		strategies: b.strategies,
		tasks:      b.tasks,
		bus:        b.bus,
		inboxCap:   b.inboxCap,
		logger:     b.logger,
	}
}

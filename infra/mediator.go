package infra

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/strategy"
	"github.com/Lqz13Th/extrema-infra/task"
	"github.com/Lqz13Th/extrema-infra/taskexec"
)

// Mediator owns a built environment. Execute wires everything in a fixed
// order: strategies initialize, task instances spawn, every handle is
// registered into every strategy, dispatch loops start, then it parks
// until ctx is done. Tasks sleep a startup delay before producing, so
// dispatch loops are consuming well before the first event.
type Mediator struct {
	strategies []strategy.Strategy
	tasks      []task.Descriptor
	bus        *bus.Bus
	inboxCap   int
	logger     *slog.Logger
}

// Bus exposes the frozen topic set, mainly for tests and embedded hosts.
func (m *Mediator) Bus() *bus.Bus { return m.bus }

// Execute runs the environment until ctx is done.
func (m *Mediator) Execute(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range m.strategies {
		wg.Add(1)
		go func(s strategy.Strategy) {
			defer wg.Done()
			s.Initialize(ctx)
		}(s)
	}
	wg.Wait()

	handles := m.registerTasks(ctx)
	for _, h := range handles {
		for _, s := range m.strategies {
			s.CommandInit(h)
		}
	}

	for _, s := range m.strategies {
		go strategy.Run(ctx, s, m.bus, m.logger)
	}

	m.logger.Info("environment running",
		"strategies", len(m.strategies),
		"tasks", len(m.tasks),
		"handles", len(handles),
	)
	<-ctx.Done()
}

// registerTasks spawns every instance of every declared task and returns
// the command handles in declaration order. A declaration with chunk k
// yields k instances with contiguous ids.
func (m *Mediator) registerTasks(ctx context.Context) []*command.Handle {
	var handles []*command.Handle
	for _, d := range m.tasks {
		for n := uint32(0); n < d.Chunks(); n++ {
			taskID := task.InstanceID(d, n)
			h, inbox := command.NewHandle(d, taskID, m.inboxCap)
			handles = append(handles, h)

			switch t := d.(type) {
			case *task.WsTask:
				go taskexec.RunWs(ctx, t, taskID, inbox, m.bus, m.logger)
			case *task.AltTask:
				go taskexec.RunAlt(ctx, t, taskID, inbox, m.bus, m.logger)
			default:
				m.logger.Error("unknown task descriptor", "task", d.Label())
			}
		}
	}
	return handles
}

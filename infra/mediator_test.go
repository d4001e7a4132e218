package infra

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lqz13Th/extrema-infra/bus"
	"github.com/Lqz13Th/extrema-infra/command"
	"github.com/Lqz13Th/extrema-infra/strategy"
	"github.com/Lqz13Th/extrema-infra/task"
)

// handleCollector records registered handles and signals when the
// expected count has arrived.
type handleCollector struct {
	strategy.Base
	mu      sync.Mutex
	handles []*command.Handle
	want    int
	done    chan struct{}
	once    sync.Once
}

func newHandleCollector(want int) *handleCollector {
	return &handleCollector{want: want, done: make(chan struct{})}
}

func (c *handleCollector) Name() string { return "collector" }

func (c *handleCollector) CommandInit(h *command.Handle) {
	c.Base.CommandInit(h)
	c.mu.Lock()
	c.handles = append(c.handles, h)
	n := len(c.handles)
	c.mu.Unlock()
	if n >= c.want {
		c.once.Do(func() { close(c.done) })
	}
}

func (c *handleCollector) waitHandles(t *testing.T) []*command.Handle {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d handles", c.want)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*command.Handle, len(c.handles))
	copy(out, c.handles)
	return out
}

func runEnv(t *testing.T, b *Builder) (context.CancelFunc, chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		b.Build().Execute(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Error("mediator did not stop")
		}
	})
	return cancel, stopped
}

func TestChunkedInstanceIDs(t *testing.T) {
	c := newHandleCollector(10)
	b := NewBuilder().
		WithStrategy(c).
		WithTopic(bus.KindAltEvent).
		WithTopic(bus.KindScheduler).
		WithAltTask(&task.AltTask{Kind: task.TimeScheduler(time.Hour), Chunk: 10})
	runEnv(t, b)

	handles := c.waitHandles(t)
	if len(handles) != 10 {
		t.Fatalf("handles = %d, want 10", len(handles))
	}
	for i, h := range handles {
		if want := uint64(i + 1); h.TaskID != want {
			t.Errorf("handle %d task id = %d, want %d", i, h.TaskID, want)
		}
	}
}

func TestBaseIDOffsets(t *testing.T) {
	c := newHandleCollector(3)
	b := NewBuilder().
		WithStrategy(c).
		WithAltTask(&task.AltTask{Kind: task.OrderExecution(), Chunk: 3, BaseID: 1002})
	runEnv(t, b)

	handles := c.waitHandles(t)
	want := []uint64{1002, 1003, 1004}
	for i, h := range handles {
		if h.TaskID != want[i] {
			t.Errorf("handle %d task id = %d, want %d", i, h.TaskID, want[i])
		}
	}
}

func TestChunkZeroSpawnsNothing(t *testing.T) {
	c := newHandleCollector(1)
	b := NewBuilder().
		WithStrategy(c).
		WithAltTask(&task.AltTask{Kind: task.OrderExecution(), Chunk: 0})
	runEnv(t, b)

	select {
	case <-c.done:
		t.Fatal("chunk 0 produced handles")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandlesReachEveryStrategy(t *testing.T) {
	c1 := newHandleCollector(2)
	c2 := newHandleCollector(2)
	b := NewBuilder().
		WithStrategy(c1).
		WithStrategy(c2).
		WithAltTask(&task.AltTask{Kind: task.OrderExecution(), Chunk: 2})
	runEnv(t, b)

	h1 := c1.waitHandles(t)
	h2 := c2.waitHandles(t)
	if len(h1) != 2 || len(h2) != 2 {
		t.Fatalf("handle counts = %d, %d; want 2, 2", len(h1), len(h2))
	}
	// Both strategies address the same instances.
	for i := range h1 {
		if h1[i] != h2[i] {
			t.Errorf("handle %d differs between strategies", i)
		}
	}
}

// TestFindHandleFirstMatchWins pins the overlap rule: when two
// declarations produce the same (kind, id), lookups return the first
// declaration's handle in registration order.
func TestFindHandleFirstMatchWins(t *testing.T) {
	first := &task.AltTask{Kind: task.OrderExecution(), Chunk: 1, BaseID: 7}
	second := &task.AltTask{Kind: task.OrderExecution(), Chunk: 1, BaseID: 7}

	c := newHandleCollector(2)
	b := NewBuilder().
		WithStrategy(c).
		WithAltTask(first).
		WithAltTask(second)
	runEnv(t, b)

	c.waitHandles(t)
	h := c.FindAltHandle(task.OrderExecution(), 7)
	if h == nil {
		t.Fatal("FindAltHandle returned nil")
	}
	if h.Desc != task.Descriptor(first) {
		t.Error("lookup did not return the first declaration's handle")
	}
}

func TestBuilderTopicIdempotent(t *testing.T) {
	b := NewBuilder().
		WithTopic(bus.KindCandle).
		WithTopic(bus.KindCandle)
	m := b.Build()

	if got := len(m.Bus().Kinds()); got != 1 {
		t.Errorf("topic kinds = %d, want 1 after duplicate WithTopic", got)
	}
}

package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/pkg/metrics"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.ProductChange
	err     error
	block   chan struct{}
}

func (n *recordingNotifier) NotifyChat(context.Context, *domain.ChatRoom, domain.Message) error {
	return nil
}

func (n *recordingNotifier) NotifyProductChange(_ context.Context, c domain.ProductChange) (int, error) {
	if n.block != nil {
		<-n.block
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return 1, n.err
}

func (n *recordingNotifier) received() []domain.ProductChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ProductChange(nil), n.changes...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func change(productID string, price int64) domain.ProductChange {
	return domain.ProductChange{
		Before: domain.Product{ID: productID, Price: 0},
		After:  domain.Product{ID: productID, Price: price},
	}
}

func TestDispatcher_PreservesPerProductOrder(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(4, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := int64(1); i <= 20; i++ {
		d.Submit(context.Background(), change("prod-1", i))
	}

	waitFor(t, func() bool { return len(n.received()) == 20 })
	cancel()
	d.Wait()

	for i, c := range n.received() {
		if c.After.Price != int64(i+1) {
			t.Fatalf("change %d out of order: price %d", i, c.After.Price)
		}
	}
}

func TestDispatcher_WorkerSurvivesFailures(t *testing.T) {
	n := &recordingNotifier{err: errors.New("inbox down")}
	d := NewDispatcher(1, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Submit(context.Background(), change("a", 1))
	d.Submit(context.Background(), change("b", 2))

	waitFor(t, func() bool { return len(n.received()) == 2 })
}

func TestDispatcher_SubmitNeverBlocks(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(1, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Submit(context.Background(), change("p", int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Submit blocked on a full queue")
	}

	close(n.block)
	cancel()
	d.Wait()
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingNotifier{}, zerolog.Nop())
	first := d.shardIndex("65f0c0ffee0000000000beef")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("65f0c0ffee0000000000beef"); got != first {
			t.Fatalf("shard changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard out of range: %d", first)
	}
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &recordingNotifier{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_ShutdownDrainsQueue(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(2, n, zerolog.Nop())
	d.Start(context.Background())

	for i := int64(1); i <= 10; i++ {
		d.Submit(context.Background(), change("prod-1", i))
	}
	close(n.block)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := len(n.received()); got != 10 {
		t.Fatalf("expected all 10 queued changes delivered, got %d", got)
	}
}

func TestDispatcher_SubmitAfterShutdownIsDropped(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(1, n, zerolog.Nop())
	d.Start(context.Background())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	before := droppedTotal(t)
	d.Submit(context.Background(), change("prod-1", 1))
	if got := droppedTotal(t) - before; got != 1 {
		t.Fatalf("dropped counter delta = %v, want 1", got)
	}
	if len(n.received()) != 0 {
		t.Fatal("change submitted after shutdown must not be delivered")
	}

	// A second Shutdown is a no-op.
	if err := d.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestDispatcher_CancelCountsQueuedAsDropped(t *testing.T) {
	n := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(1, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Submit(context.Background(), change("p", 1))
	waitFor(t, func() bool { return len(d.workers[0]) == 0 }) // worker holds the first change
	d.Submit(context.Background(), change("p", 2))
	d.Submit(context.Background(), change("p", 3))

	before := droppedTotal(t)
	cancel()
	close(n.block)
	d.Wait()

	if got := droppedTotal(t) - before; got != 2 {
		t.Fatalf("dropped counter delta = %v, want 2", got)
	}
}

func droppedTotal(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	if err := metrics.FanoutDroppedTotal.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
	"github.com/krush/market-core/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes product changes to a fixed set of workers using
// consistent hashing on the product id, so notifications for one product are
// written in mutation order.
type Dispatcher struct {
	workers  []chan domain.ProductChange
	notifier ports.Notifier
	log      zerolog.Logger
	wg       sync.WaitGroup

	// mu guards closed; Submit holds it for reading so Close never races a send.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.ProductChange, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ProductChange, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is handed to the notifier; once it
// is cancelled workers stop and whatever is still queued is dropped and
// counted. Use Shutdown to drain instead.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown stops accepting changes and waits for the workers to drain what is
// already queued. It returns ctx.Err() if ctx ends first; the caller should
// then cancel the context given to Start.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit hands a change to the worker responsible for its product. It never
// blocks the caller: when that worker's buffer is full the change is dropped
// and logged, since notification delivery is best-effort.
func (d *Dispatcher) Submit(_ context.Context, change domain.ProductChange) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.FanoutDroppedTotal.Inc()
		d.log.Warn().
			Str("product_id", change.After.ID).
			Msg("dispatcher shut down, product change dropped")
		return
	}

	idx := d.shardIndex(change.After.ID)
	select {
	case d.workers[idx] <- change:
		metrics.FanoutQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.FanoutDroppedTotal.Inc()
		d.log.Warn().
			Str("product_id", change.After.ID).
			Int("worker_id", idx).
			Msg("fan-out queue full, product change dropped")
	}
}

// shardIndex maps a product id deterministically to a worker index.
func (d *Dispatcher) shardIndex(productID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(productID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ProductChange) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		if ctx.Err() != nil {
			d.dropQueued(id, ch)
			return
		}
		select {
		case <-ctx.Done():
			d.dropQueued(id, ch)
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			metrics.FanoutQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			n, err := d.notifier.NotifyProductChange(ctx, change)
			if err != nil {
				d.log.Error().Err(err).
					Str("product_id", change.After.ID).
					Int("worker_id", id).
					Int("written", n).
					Msg("product change fan-out incomplete")
				continue
			}
			d.log.Debug().
				Str("product_id", change.After.ID).
				Int("worker_id", id).
				Int("written", n).
				Msg("product change fanned out")
		}
	}
}

// dropQueued counts and logs the changes a stopped worker leaves behind.
func (d *Dispatcher) dropQueued(id int, ch <-chan domain.ProductChange) {
	n := len(ch)
	if n == 0 {
		return
	}
	metrics.FanoutDroppedTotal.Add(float64(n))
	d.log.Warn().
		Int("worker_id", id).
		Int("dropped", n).
		Msg("dispatcher stopped with queued product changes")
}

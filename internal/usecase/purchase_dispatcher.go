package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

var _ domain.PurchaseNotifier = (*PurchaseDispatcher)(nil)

// PurchaseRegistrar records a committed order somewhere outside the order store.
type PurchaseRegistrar interface {
	RegisterPurchase(ctx context.Context, order domain.Order) error
}

const registrationTimeout = 5 * time.Second

// PurchaseDispatcher runs purchase registration off the request path on a bounded pool.
// Each order gets exactly one attempt; failures and overload are logged and dropped.
type PurchaseDispatcher struct {
	registrar PurchaseRegistrar
	pool      *ants.Pool
	log       *logrus.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPurchaseDispatcher(registrar PurchaseRegistrar, workers int, logger *logrus.Logger) (*PurchaseDispatcher, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Errorf("Dispatcher: purchase registration panicked: %v", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create dispatcher pool: %w", err)
	}
	return &PurchaseDispatcher{
		registrar: registrar,
		pool:      pool,
		log:       logger,
	}, nil
}

func (d *PurchaseDispatcher) Notify(order domain.Order) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warnf("Dispatcher: dropped order %s, dispatcher is drained", order.ID)
		return
	}

	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), registrationTimeout)
		defer cancel()
		if err := d.registrar.RegisterPurchase(ctx, order); err != nil {
			d.log.Errorf("Dispatcher: failed to register purchase for order %s: %v", order.ID, err)
		}
	})
	if err != nil {
		d.wg.Done()
		d.log.Warnf("Dispatcher: dropped order %s: %v", order.ID, err)
	}
}

// Drain stops accepting orders, waits up to timeout for in-flight registrations and
// releases the pool. It reports whether every registration finished in time.
func (d *PurchaseDispatcher) Drain(timeout time.Duration) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return true
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	finished := true
	select {
	case <-done:
	case <-time.After(timeout):
		finished = false
		d.log.Warnf("Dispatcher: %d registrations still running after %s", d.pool.Running(), timeout)
	}
	d.pool.Release()
	return finished
}

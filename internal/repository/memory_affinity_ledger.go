package repository

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type memoryAffinityLedger struct {
	mu     sync.RWMutex
	counts map[domain.ProductPair]int
	log    *logrus.Logger
}

func NewMemoryAffinityLedger(logger *logrus.Logger) domain.AffinityLedger {
	return &memoryAffinityLedger{
		counts: make(map[domain.ProductPair]int),
		log:    logger,
	}
}

func (l *memoryAffinityLedger) Increment(_ context.Context, pairs []domain.ProductPair) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pair := range pairs {
		l.counts[domain.NewProductPair(pair.A, pair.B)]++
	}
	l.log.Debugf("Repository: Affinity ledger incremented %d pairs", len(pairs))
	return nil
}

func (l *memoryAffinityLedger) Count(_ context.Context, a, b string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counts[domain.NewProductPair(a, b)], nil
}

func (l *memoryAffinityLedger) CountsFor(_ context.Context, anchor string) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for pair, n := range l.counts {
		if pair.A == anchor || pair.B == anchor {
			counts[pair.Other(anchor)] = n
		}
	}
	return counts, nil
}

func (l *memoryAffinityLedger) Reset(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = make(map[domain.ProductPair]int)
	l.log.Info("Repository: Affinity ledger reset")
	return nil
}

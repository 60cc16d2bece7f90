package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
	"github.com/OEduardoGL/lps-ecommerce/internal/repository"
)

func nullLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func product(id string, price string, stock int, categories, tags []string) *domain.Product {
	return &domain.Product{
		ID:         id,
		Name:       "Product " + id,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Categories: categories,
		Tags:       tags,
	}
}

func newStores(t *testing.T, logger *logrus.Logger, products ...*domain.Product) *repository.Stores {
	t.Helper()
	stores := repository.NewMemoryStores(logger)
	for _, p := range products {
		_, err := stores.Products.Upsert(context.Background(), p)
		require.NoError(t, err)
	}
	return stores
}

func stockOf(t *testing.T, repo domain.ProductRepository, id string) int {
	t.Helper()
	p, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

var errBoom = errors.New("boom")

// flakyProductRepository fails ReleaseStock for the listed product ids and records every release.
type flakyProductRepository struct {
	domain.ProductRepository
	failRelease map[string]bool

	mu       sync.Mutex
	released []string
}

func (r *flakyProductRepository) ReleaseStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	r.mu.Lock()
	r.released = append(r.released, id)
	r.mu.Unlock()
	if r.failRelease[id] {
		return nil, errBoom
	}
	return r.ProductRepository.ReleaseStock(ctx, id, quantity)
}

type failingOrderRepository struct {
	domain.OrderRepository
}

func (failingOrderRepository) CreateOrder(context.Context, *domain.Order) (*domain.Order, error) {
	return nil, errBoom
}

type recordingNotifier struct {
	orders []domain.Order
}

func (n *recordingNotifier) Notify(order domain.Order) {
	n.orders = append(n.orders, order)
}

type registrarFunc func(ctx context.Context, order domain.Order) error

func (f registrarFunc) RegisterPurchase(ctx context.Context, order domain.Order) error {
	return f(ctx, order)
}

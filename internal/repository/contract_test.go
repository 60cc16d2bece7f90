package repository_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
	"github.com/OEduardoGL/lps-ecommerce/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// storesFactory returns an empty, isolated set of stores.
type storesFactory func(t *testing.T) *repository.Stores

func seeded(t *testing.T, newStores storesFactory) *repository.Stores {
	t.Helper()
	stores := newStores(t)
	require.NoError(t, repository.Seed(context.Background(), stores, testLogger()))
	return stores
}

func runStoreContract(t *testing.T, newStores storesFactory) {
	t.Run("products", func(t *testing.T) { productContract(t, newStores) })
	t.Run("orders", func(t *testing.T) { orderContract(t, newStores) })
	t.Run("users", func(t *testing.T) { userContract(t, newStores) })
	t.Run("affinity", func(t *testing.T) { affinityContract(t, newStores) })
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func productContract(t *testing.T, newStores storesFactory) {
	ctx := context.Background()

	t.Run("FindByID", func(t *testing.T) {
		stores := seeded(t, newStores)

		product, err := stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		assert.Equal(t, "Notebook Pro 14", product.Name)
		assert.True(t, decimal.RequireFromString("5999.90").Equal(product.Price))
		assert.Equal(t, []string{"eletronicos", "computadores"}, product.Categories)
		assert.Equal(t, 8, product.Stock)

		_, err = stores.Products.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Search", func(t *testing.T) {
		stores := seeded(t, newStores)

		cases := []struct {
			name   string
			filter domain.ProductFilter
			want   []string
		}{
			{"no filter sorted by name", domain.ProductFilter{}, []string{"p-103", "p-102", "p-100", "p-101", "p-104"}},
			{"query matches name case-insensitively", domain.ProductFilter{Query: "notebook"}, []string{"p-100"}},
			{"query matches description", domain.ProductFilter{Query: "CANCELAMENTO"}, []string{"p-102"}},
			{"category", domain.ProductFilter{Category: "eletronicos"}, []string{"p-102", "p-100", "p-101", "p-104"}},
			{"tag", domain.ProductFilter{Tag: "gamer"}, []string{"p-104"}},
			{"filters are combined", domain.ProductFilter{Query: "smart", Category: "eletronicos"}, []string{"p-101"}},
			{"no match", domain.ProductFilter{Category: "casa", Tag: "gamer"}, []string{}},
			{"like wildcards are literal", domain.ProductFilter{Query: "%"}, []string{}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				products, err := stores.Products.Search(ctx, tc.filter)
				require.NoError(t, err)
				assert.Equal(t, tc.want, productIDs(products))
			})
		}
	})

	t.Run("ReserveStock", func(t *testing.T) {
		stores := seeded(t, newStores)

		product, err := stores.Products.ReserveStock(ctx, "p-100", 5)
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)
		assert.True(t, decimal.RequireFromString("5999.90").Equal(product.Price))

		_, err = stores.Products.ReserveStock(ctx, "p-100", 4)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)

		_, err = stores.Products.ReserveStock(ctx, "missing", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		product, err = stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)

		product, err = stores.Products.ReserveStock(ctx, "p-100", 3)
		require.NoError(t, err)
		assert.Equal(t, 0, product.Stock)
	})

	t.Run("ReleaseStock", func(t *testing.T) {
		stores := seeded(t, newStores)

		product, err := stores.Products.ReleaseStock(ctx, "p-103", 3)
		require.NoError(t, err)
		assert.Equal(t, 15, product.Stock)

		_, err = stores.Products.ReleaseStock(ctx, "missing", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("reseeding keeps committed reservations", func(t *testing.T) {
		stores := seeded(t, newStores)

		_, err := stores.Products.ReserveStock(ctx, "p-100", 5)
		require.NoError(t, err)
		require.NoError(t, repository.Seed(ctx, stores, testLogger()))

		product, err := stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)
	})

	t.Run("non-positive quantities are rejected", func(t *testing.T) {
		stores := seeded(t, newStores)

		for _, quantity := range []int{0, -5} {
			_, err := stores.Products.ReserveStock(ctx, "p-100", quantity)
			assert.ErrorIs(t, err, domain.ErrValidation, "reserve %d", quantity)

			_, err = stores.Products.ReleaseStock(ctx, "p-100", quantity)
			assert.ErrorIs(t, err, domain.ErrValidation, "release %d", quantity)
		}
		_, err := stores.Products.ReleaseStock(ctx, "p-100", -100)
		assert.ErrorIs(t, err, domain.ErrValidation)

		product, err := stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		assert.Equal(t, 8, product.Stock)
	})

	t.Run("concurrent reservations never oversell", func(t *testing.T) {
		stores := newStores(t)
		_, err := stores.Products.Upsert(ctx, &domain.Product{ID: "scarce", Name: "Scarce", Price: decimal.NewFromInt(10), Stock: 25})
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			reserved  int
			rejected  int
			unexpects []error
		)
		for i := 0; i < 60; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := stores.Products.ReserveStock(ctx, "scarce", 1)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					reserved++
				case errors.Is(err, domain.ErrInsufficientStock):
					rejected++
				default:
					unexpects = append(unexpects, err)
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, unexpects)
		assert.Equal(t, 25, reserved)
		assert.Equal(t, 35, rejected)

		product, err := stores.Products.FindByID(ctx, "scarce")
		require.NoError(t, err)
		assert.Equal(t, 0, product.Stock)
	})

	t.Run("last unit goes to exactly one caller", func(t *testing.T) {
		stores := newStores(t)
		_, err := stores.Products.Upsert(ctx, &domain.Product{ID: "last", Name: "Last", Price: decimal.NewFromInt(1), Stock: 1})
		require.NoError(t, err)

		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, err := stores.Products.ReserveStock(ctx, "last", 1)
				results <- err
			}()
		}
		first, second := <-results, <-results
		if first == nil {
			assert.ErrorIs(t, second, domain.ErrInsufficientStock)
		} else {
			assert.ErrorIs(t, first, domain.ErrInsufficientStock)
			assert.NoError(t, second)
		}
	})

	t.Run("Upsert rejects invalid products", func(t *testing.T) {
		stores := newStores(t)

		_, err := stores.Products.Upsert(ctx, &domain.Product{ID: "neg", Name: "Negative", Stock: -1})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = stores.Products.Upsert(ctx, &domain.Product{ID: "neg", Name: "Negative", Price: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = stores.Products.Upsert(ctx, &domain.Product{Name: "No id"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("returned products do not alias the store", func(t *testing.T) {
		stores := seeded(t, newStores)

		product, err := stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		product.Categories[0] = "changed"
		product.Stock = 999

		again, err := stores.Products.FindByID(ctx, "p-100")
		require.NoError(t, err)
		assert.Equal(t, "eletronicos", again.Categories[0])
		assert.Equal(t, 8, again.Stock)
	})
}

func orderContract(t *testing.T, newStores storesFactory) {
	ctx := context.Background()
	userID := "u-1"

	newOrder := func(id string, createdAt time.Time) *domain.Order {
		return &domain.Order{
			ID:        id,
			UserID:    &userID,
			Status:    domain.StatusCreated,
			CreatedAt: createdAt,
			Items: []domain.OrderItem{
				{ProductID: "p-104", Quantity: 2, Price: decimal.RequireFromString("499.90")},
				{ProductID: "p-100", Quantity: 1, Price: decimal.RequireFromString("5999.90")},
			},
		}
	}

	t.Run("create and get", func(t *testing.T) {
		stores := newStores(t)
		createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		created, err := stores.Orders.CreateOrder(ctx, newOrder("o-1", createdAt))
		require.NoError(t, err)
		assert.Equal(t, "o-1", created.ID)

		got, err := stores.Orders.GetOrderByID(ctx, "o-1")
		require.NoError(t, err)
		require.NotNil(t, got.UserID)
		assert.Equal(t, "u-1", *got.UserID)
		assert.Equal(t, domain.StatusCreated, got.Status)
		assert.True(t, createdAt.Equal(got.CreatedAt))
		require.Len(t, got.Items, 2)
		assert.Equal(t, "p-104", got.Items[0].ProductID)
		assert.Equal(t, "p-100", got.Items[1].ProductID)
		assert.True(t, decimal.RequireFromString("6999.70").Equal(got.Total()))

		_, err = stores.Orders.GetOrderByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("anonymous order", func(t *testing.T) {
		stores := newStores(t)
		order := newOrder("o-anon", time.Now().UTC())
		order.UserID = nil

		_, err := stores.Orders.CreateOrder(ctx, order)
		require.NoError(t, err)

		got, err := stores.Orders.GetOrderByID(ctx, "o-anon")
		require.NoError(t, err)
		assert.Nil(t, got.UserID)
	})

	t.Run("list newest first", func(t *testing.T) {
		stores := newStores(t)
		base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, id := range []string{"o-a", "o-b", "o-c"} {
			_, err := stores.Orders.CreateOrder(ctx, newOrder(id, base.Add(time.Duration(i)*time.Minute)))
			require.NoError(t, err)
		}

		orders, err := stores.Orders.ListOrders(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "o-c", orders[0].ID)
		assert.Equal(t, "o-b", orders[1].ID)
		assert.Equal(t, "o-a", orders[2].ID)
		for _, o := range orders {
			assert.Len(t, o.Items, 2)
		}
	})

	t.Run("update status", func(t *testing.T) {
		stores := newStores(t)
		_, err := stores.Orders.CreateOrder(ctx, newOrder("o-s", time.Now().UTC()))
		require.NoError(t, err)

		updated, err := stores.Orders.UpdateOrderStatus(ctx, "o-s", domain.StatusShipped)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusShipped, updated.Status)
		assert.Len(t, updated.Items, 2)

		_, err = stores.Orders.UpdateOrderStatus(ctx, "missing", domain.StatusShipped)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func userContract(t *testing.T, newStores storesFactory) {
	ctx := context.Background()

	t.Run("save and find", func(t *testing.T) {
		stores := newStores(t)

		_, err := stores.Users.Save(ctx, &domain.User{ID: "u-9", Name: "Carla", Email: "carla@example.com", FavoriteCategories: []string{"casa"}})
		require.NoError(t, err)

		byID, err := stores.Users.GetUserByID(ctx, "u-9")
		require.NoError(t, err)
		assert.Equal(t, "Carla", byID.Name)
		assert.Equal(t, []string{"casa"}, byID.FavoriteCategories)

		byEmail, err := stores.Users.GetUserByEmail(ctx, "carla@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u-9", byEmail.ID)

		_, err = stores.Users.GetUserByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = stores.Users.GetUserByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save replaces by id", func(t *testing.T) {
		stores := newStores(t)

		_, err := stores.Users.Save(ctx, &domain.User{ID: "u-9", Name: "Carla", Email: "carla@example.com"})
		require.NoError(t, err)
		_, err = stores.Users.Save(ctx, &domain.User{ID: "u-9", Name: "Carla M.", Email: "carla@example.com", FavoriteCategories: []string{"audio"}})
		require.NoError(t, err)

		users, err := stores.Users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "Carla M.", users[0].Name)
		assert.Equal(t, []string{"audio"}, users[0].FavoriteCategories)
	})

	t.Run("reseeding keeps edited users", func(t *testing.T) {
		stores := seeded(t, newStores)

		_, err := stores.Users.Save(ctx, &domain.User{ID: "u-1", Name: "Ana Paula", Email: "ana@example.com", FavoriteCategories: []string{"casa"}})
		require.NoError(t, err)
		require.NoError(t, repository.Seed(ctx, stores, testLogger()))

		user, err := stores.Users.GetUserByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Ana Paula", user.Name)
		assert.Equal(t, []string{"casa"}, user.FavoriteCategories)
	})

	t.Run("email is unique", func(t *testing.T) {
		stores := newStores(t)

		_, err := stores.Users.Save(ctx, &domain.User{ID: "u-1", Name: "A", Email: "same@example.com"})
		require.NoError(t, err)
		_, err = stores.Users.Save(ctx, &domain.User{ID: "u-2", Name: "B", Email: "same@example.com"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("list sorted by id", func(t *testing.T) {
		stores := seeded(t, newStores)

		users, err := stores.Users.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "u-1", users[0].ID)
		assert.Equal(t, "u-2", users[1].ID)
	})
}

func affinityContract(t *testing.T, newStores storesFactory) {
	ctx := context.Background()

	t.Run("increment and read", func(t *testing.T) {
		stores := newStores(t)
		ledger := stores.Affinity

		require.NoError(t, ledger.Increment(ctx, []domain.ProductPair{
			domain.NewProductPair("A", "B"),
			domain.NewProductPair("A", "C"),
			domain.NewProductPair("B", "C"),
		}))
		require.NoError(t, ledger.Increment(ctx, []domain.ProductPair{{A: "B", B: "A"}}))

		count, err := ledger.Count(ctx, "B", "A")
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = ledger.Count(ctx, "C", "D")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		counts, err := ledger.CountsFor(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"B": 2, "C": 1}, counts)

		counts, err = ledger.CountsFor(ctx, "C")
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"A": 1, "B": 1}, counts)
	})

	t.Run("repeated pairs in one call", func(t *testing.T) {
		stores := newStores(t)
		pair := domain.NewProductPair("A", "B")

		require.NoError(t, stores.Affinity.Increment(ctx, []domain.ProductPair{pair, pair}))
		count, err := stores.Affinity.Count(ctx, "A", "B")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("reset", func(t *testing.T) {
		stores := newStores(t)

		require.NoError(t, stores.Affinity.Increment(ctx, []domain.ProductPair{domain.NewProductPair("A", "B")}))
		require.NoError(t, stores.Affinity.Reset(ctx))

		counts, err := stores.Affinity.CountsFor(ctx, "A")
		require.NoError(t, err)
		assert.Empty(t, counts)
	})

	t.Run("concurrent increments in different item orders", func(t *testing.T) {
		stores := newStores(t)
		orders := [][]domain.ProductPair{
			{{A: "A", B: "B"}, {A: "A", B: "C"}, {A: "B", B: "C"}},
			{{A: "C", B: "A"}, {A: "C", B: "B"}, {A: "A", B: "B"}},
			{{A: "C", B: "B"}, {A: "B", B: "A"}, {A: "C", B: "A"}},
		}

		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			pairs := orders[i%len(orders)]
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, stores.Affinity.Increment(ctx, pairs))
			}()
		}
		wg.Wait()

		for _, pair := range [][2]string{{"A", "B"}, {"A", "C"}, {"B", "C"}} {
			count, err := stores.Affinity.Count(ctx, pair[0], pair[1])
			require.NoError(t, err)
			assert.Equal(t, 30, count, "%s-%s", pair[0], pair[1])
		}
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		stores := newStores(t)

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, stores.Affinity.Increment(ctx, []domain.ProductPair{domain.NewProductPair("X", "Y")}))
			}()
		}
		wg.Wait()

		count, err := stores.Affinity.Count(ctx, "X", "Y")
		require.NoError(t, err)
		assert.Equal(t, 40, count)
	})
}

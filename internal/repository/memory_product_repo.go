package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type memoryProductRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	log      *logrus.Logger
}

func NewMemoryProductRepository(logger *logrus.Logger) domain.ProductRepository {
	return &memoryProductRepository{
		products: make(map[string]*domain.Product),
		log:      logger,
	}
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	c.Categories = append([]string{}, p.Categories...)
	c.Tags = append([]string{}, p.Tags...)
	return &c
}

func (r *memoryProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		r.log.Warnf("Repository: Product with ID %s not found", id)
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	return cloneProduct(product), nil
}

func (r *memoryProductRepository) Search(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := strings.ToLower(filter.Query)

	r.mu.Lock()
	products := []domain.Product{}
	for _, p := range r.products {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if filter.Category != "" && !p.HasCategory(filter.Category) {
			continue
		}
		if filter.Tag != "" && !p.HasTag(filter.Tag) {
			continue
		}
		products = append(products, *cloneProduct(p))
	}
	r.mu.Unlock()

	sortProductsByName(products)
	r.log.Debugf("Repository: Search %+v matched %d products", filter, len(products))
	return products, nil
}

// sortProductsByName orders by name, falling back to id so equal names stay deterministic.
func sortProductsByName(products []domain.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID < products[j].ID
	})
}

func (r *memoryProductRepository) ReserveStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(id, quantity); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		r.log.Warnf("Repository: Cannot reserve stock, product %s not found", id)
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	if product.Stock < quantity {
		r.log.Warnf("Repository: Insufficient stock for product %s (requested %d, available %d)", id, quantity, product.Stock)
		return nil, fmt.Errorf("product %s (requested %d, available %d): %w", id, quantity, product.Stock, domain.ErrInsufficientStock)
	}
	product.Stock -= quantity
	r.log.Debugf("Repository: Reserved %d units of product %s, %d left", quantity, id, product.Stock)
	return cloneProduct(product), nil
}

func (r *memoryProductRepository) ReleaseStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(id, quantity); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		r.log.Warnf("Repository: Cannot release stock, product %s not found", id)
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	product.Stock += quantity
	r.log.Debugf("Repository: Released %d units of product %s, %d available", quantity, id, product.Stock)
	return cloneProduct(product), nil
}

func (r *memoryProductRepository) Upsert(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = cloneProduct(product)
	r.log.Infof("Repository: Product %s (%s) stored", product.ID, product.Name)
	return cloneProduct(product), nil
}

// validateQuantity keeps reserve and release from moving stock in the opposite direction.
func validateQuantity(id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity for product %s must be positive, got %d: %w", id, quantity, domain.ErrValidation)
	}
	return nil
}

func validateProduct(product *domain.Product) error {
	if product.ID == "" || product.Name == "" {
		return fmt.Errorf("product id and name are required: %w", domain.ErrValidation)
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("product %s price cannot be negative: %w", product.ID, domain.ErrValidation)
	}
	if product.Stock < 0 {
		return fmt.Errorf("product %s stock cannot be negative: %w", product.ID, domain.ErrValidation)
	}
	return nil
}

package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Categories  []string        `json:"categories"`
	Tags        []string        `json:"tags"`
}

// ProductFilter narrows a catalog search. Empty fields impose no constraint.
type ProductFilter struct {
	Query    string
	Category string
	Tag      string
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]Product, error)
	// ReserveStock decrements stock by quantity only if enough is available.
	// The check and the decrement happen as one atomic step. Both stock operations
	// reject a non-positive quantity with ErrValidation.
	ReserveStock(ctx context.Context, id string, quantity int) (*Product, error)
	ReleaseStock(ctx context.Context, id string, quantity int) (*Product, error)
	Upsert(ctx context.Context, product *Product) (*Product, error)
}

func (p Product) HasCategory(category string) bool {
	return contains(p.Categories, category)
}

func (p Product) HasTag(tag string) bool {
	return contains(p.Tags, tag)
}

// Overlap counts the labels of a that also appear in b.
func Overlap(a, b []string) int {
	n := 0
	for _, label := range a {
		if contains(b, label) {
			n++
		}
	}
	return n
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

type CatalogUseCase interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	SearchProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

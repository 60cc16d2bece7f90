package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

var _ domain.CatalogUseCase = (*catalogUseCase)(nil)

type catalogUseCase struct {
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewCatalogUseCase(repo domain.ProductRepository, logger *logrus.Logger) domain.CatalogUseCase {
	return &catalogUseCase{
		productRepo: repo,
		log:         logger,
	}
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		uc.log.Warn("Use Case: Attempted to fetch product with empty ID")
		return nil, fmt.Errorf("product id is required: %w", domain.ErrValidation)
	}
	return uc.productRepo.FindByID(ctx, id)
}

func (uc *catalogUseCase) SearchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Tag = strings.TrimSpace(filter.Tag)

	products, err := uc.productRepo.Search(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to search products: %v", err)
		return nil, err
	}
	return products, nil
}

func (uc *catalogUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return uc.SearchProducts(ctx, domain.ProductFilter{})
}

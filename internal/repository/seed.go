package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "p-100",
			Name:        "Notebook Pro 14",
			Description: "Notebook compacto com 16GB RAM e SSD 512GB",
			Price:       decimal.RequireFromString("5999.90"),
			Categories:  []string{"eletronicos", "computadores"},
			Tags:        []string{"destaque", "novo"},
			Stock:       8,
		},
		{
			ID:          "p-101",
			Name:        "Smartphone XZoom",
			Description: "Smartphone com câmera tripla e bateria 5000mAh",
			Price:       decimal.RequireFromString("2999.00"),
			Categories:  []string{"eletronicos", "celulares"},
			Tags:        []string{"mais-vendido"},
			Stock:       15,
		},
		{
			ID:          "p-102",
			Name:        "Fone Bluetooth Sound+",
			Description: "Fones com cancelamento ativo de ruído",
			Price:       decimal.RequireFromString("699.50"),
			Categories:  []string{"eletronicos", "audio"},
			Tags:        []string{"acessorios"},
			Stock:       25,
		},
		{
			ID:          "p-103",
			Name:        "Cafeteira SmartBrew",
			Description: "Cafeteira inteligente com integração por aplicativo",
			Price:       decimal.RequireFromString("899.00"),
			Categories:  []string{"casa", "cozinha"},
			Tags:        []string{"smart-home"},
			Stock:       12,
		},
		{
			ID:          "p-104",
			Name:        "Teclado Mecânico RGB Nimbus",
			Description: "Teclado mecânico com switches azuis e iluminação RGB",
			Price:       decimal.RequireFromString("499.90"),
			Categories:  []string{"eletronicos", "perifericos"},
			Tags:        []string{"gamer"},
			Stock:       30,
		},
	}
}

func SeedUsers() []domain.User {
	return []domain.User{
		{ID: "u-1", Name: "Ana Souza", Email: "ana@example.com", FavoriteCategories: []string{"eletronicos", "audio"}},
		{ID: "u-2", Name: "Bruno Lima", Email: "bruno@example.com", FavoriteCategories: []string{"casa"}},
	}
}

// Seed loads the demo catalog and customers. Records that already exist are left
// untouched so stock and profiles changed since the last seed survive.
func Seed(ctx context.Context, stores *Stores, logger *logrus.Logger) error {
	products, users := 0, 0
	for _, product := range SeedProducts() {
		product := product
		_, err := stores.Products.FindByID(ctx, product.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("could not check seed product %s: %w", product.ID, err)
		}
		if _, err := stores.Products.Upsert(ctx, &product); err != nil {
			return fmt.Errorf("could not seed product %s: %w", product.ID, err)
		}
		products++
	}
	for _, user := range SeedUsers() {
		user := user
		_, err := stores.Users.GetUserByID(ctx, user.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("could not check seed user %s: %w", user.ID, err)
		}
		if _, err := stores.Users.Save(ctx, &user); err != nil {
			return fmt.Errorf("could not seed user %s: %w", user.ID, err)
		}
		users++
	}
	logger.Infof("Seed: %d products and %d users loaded", products, users)
	return nil
}

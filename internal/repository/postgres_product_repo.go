package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

const productColumns = "id, name, description, price, stock, categories, tags"

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
	Categories  pq.StringArray  `db:"categories"`
	Tags        pq.StringArray  `db:"tags"`
}

func (row productRow) toDomain() *domain.Product {
	return &domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Stock:       row.Stock,
		Categories:  append([]string{}, row.Categories...),
		Tags:        append([]string{}, row.Tags...),
	}
}

// textArray never yields NULL, so NOT NULL array columns accept empty label sets.
func textArray(labels []string) pq.StringArray {
	if labels == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(labels)
}

type postgresProductRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sqlx.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
        SELECT ` + productColumns + `
        FROM products
        WHERE id = $1`
	var row productRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %s not found", id)
			return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get product by ID %s: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	return row.toDomain(), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postgresProductRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	conditions := []string{}
	args := []interface{}{}

	if filter.Query != "" {
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(filter.Query))+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(description) LIKE $%d)", n, n))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := `
        SELECT ` + productColumns + `
        FROM products
        ` + where + `
        ORDER BY name COLLATE "C" ASC, id COLLATE "C" ASC`

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.Errorf("Repository: Failed to search products %+v: %v", filter, err)
		return nil, fmt.Errorf("could not search products: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, *row.toDomain())
	}
	r.log.Debugf("Repository: Search %+v matched %d products", filter, len(products))
	return products, nil
}

func (r *postgresProductRepository) ReserveStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(id, quantity); err != nil {
		return nil, err
	}
	query := `
        UPDATE products
        SET stock = stock - $2
        WHERE id = $1 AND stock >= $2
        RETURNING ` + productColumns
	var row productRow
	err := r.db.GetContext(ctx, &row, query, id, quantity)
	if err == nil {
		r.log.Debugf("Repository: Reserved %d units of product %s, %d left", quantity, id, row.Stock)
		return row.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Errorf("Repository: Failed to reserve stock for product %s: %v", id, err)
		return nil, fmt.Errorf("could not reserve stock: %w", err)
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		r.log.Warnf("Repository: Cannot reserve stock, product %s not found", id)
		return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
	}
	r.log.Warnf("Repository: Insufficient stock for product %s (requested %d)", id, quantity)
	return nil, fmt.Errorf("product %s (requested %d): %w", id, quantity, domain.ErrInsufficientStock)
}

func (r *postgresProductRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id); err != nil {
		r.log.Errorf("Repository: Failed to check product %s existence: %v", id, err)
		return false, fmt.Errorf("could not check product existence: %w", err)
	}
	return exists, nil
}

func (r *postgresProductRepository) ReleaseStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(id, quantity); err != nil {
		return nil, err
	}
	query := `
        UPDATE products
        SET stock = stock + $2
        WHERE id = $1
        RETURNING ` + productColumns
	var row productRow
	if err := r.db.GetContext(ctx, &row, query, id, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Cannot release stock, product %s not found", id)
			return nil, fmt.Errorf("product with id %s: %w", id, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to release stock for product %s: %v", id, err)
		return nil, fmt.Errorf("could not release stock: %w", err)
	}
	r.log.Debugf("Repository: Released %d units of product %s, %d available", quantity, id, row.Stock)
	return row.toDomain(), nil
}

func (r *postgresProductRepository) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO products (id, name, description, price, stock, categories, tags)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            price = EXCLUDED.price,
            stock = EXCLUDED.stock,
            categories = EXCLUDED.categories,
            tags = EXCLUDED.tags
        RETURNING ` + productColumns
	var row productRow
	err := r.db.GetContext(ctx, &row, query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		textArray(product.Categories),
		textArray(product.Tags),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Repository: Check constraint violation for product '%s': %s", product.ID, pqErr.Message)
			return nil, fmt.Errorf("product data constraint violation: %s: %w", pqErr.Message, domain.ErrValidation)
		}
		r.log.Errorf("Repository: Failed to upsert product '%s': %v", product.ID, err)
		return nil, fmt.Errorf("could not upsert product: %w", err)
	}
	r.log.Infof("Repository: Product %s (%s) stored", row.ID, row.Name)
	return row.toDomain(), nil
}

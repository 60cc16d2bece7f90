package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type userRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	FavoriteCategories pq.StringArray `db:"favorite_categories"`
}

func (row userRow) toDomain() *domain.User {
	return &domain.User{
		ID:                 row.ID,
		Name:               row.Name,
		Email:              row.Email,
		FavoriteCategories: append([]string{}, row.FavoriteCategories...),
	}
}

type postgresUserRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresUserRepository(db *sqlx.DB, logger *logrus.Logger) domain.UserRepository {
	return &postgresUserRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresUserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
        INSERT INTO users (id, name, email, favorite_categories)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            favorite_categories = EXCLUDED.favorite_categories
        RETURNING id, name, email, favorite_categories`

	r.log.Debugf("Repository: Attempting to save user with email: %s", user.Email)

	var row userRow
	err := r.db.GetContext(ctx, &row, query, user.ID, user.Name, user.Email, textArray(user.FavoriteCategories))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.log.Warnf("Repository: Attempted to save user with duplicate email: %s", user.Email)
			return nil, fmt.Errorf("user with email '%s' already exists: %w", user.Email, domain.ErrConflict)
		}
		r.log.Errorf("Repository: Failed to save user '%s': %v", user.Email, err)
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	r.log.Infof("Repository: User saved with ID: %s, Email: %s", row.ID, row.Email)
	return row.toDomain(), nil
}

func (r *postgresUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id", id)
}

func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email", email)
}

// getOne looks a user up by a unique column; column is never caller supplied.
func (r *postgresUserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	query := `
        SELECT id, name, email, favorite_categories
        FROM users
        WHERE ` + column + ` = $1`

	var row userRow
	if err := r.db.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("Repository: User with %s %s not found", column, value)
			return nil, fmt.Errorf("user with %s %s: %w", column, value, domain.ErrNotFound)
		}
		r.log.Errorf("Repository: Failed to get user by %s %s: %v", column, value, err)
		return nil, fmt.Errorf("could not get user by %s: %w", column, err)
	}
	return row.toDomain(), nil
}

func (r *postgresUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `
        SELECT id, name, email, favorite_categories
        FROM users
        ORDER BY id COLLATE "C" ASC`); err != nil {
		r.log.Errorf("Repository: Failed to list users: %v", err)
		return nil, fmt.Errorf("could not list users: %w", err)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, *row.toDomain())
	}
	return users, nil
}

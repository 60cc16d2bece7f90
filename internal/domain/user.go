package domain

import "context"

type User struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	FavoriteCategories []string `json:"favoriteCategories"`
}

type UserRepository interface {
	// Save inserts the user or replaces the record with the same id.
	Save(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// UpsertUserInput uses pointers to tell "not supplied" apart from empty values.
type UpsertUserInput struct {
	ID                 *string
	Name               string
	Email              string
	FavoriteCategories *[]string
}

type UserUseCase interface {
	UpsertUser(ctx context.Context, input UpsertUserInput) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

package domain

import "context"

const (
	DefaultRecommendationLimit = 6
	DefaultRelatedLimit        = 4
)

// RecommendationQuery is the input of a general recommendation request.
// UserID and ProductID are optional; Limit <= 0 selects DefaultRecommendationLimit.
type RecommendationQuery struct {
	UserID    string
	ProductID string
	Limit     int
}

type RecommendationUseCase interface {
	GetRecommendations(ctx context.Context, query RecommendationQuery) ([]Product, error)
	// Related ranks products against an existing anchor and fails with ErrNotFound otherwise.
	Related(ctx context.Context, productID string, limit int) (*Product, []Product, error)
	RegisterPurchase(ctx context.Context, order Order) error
}

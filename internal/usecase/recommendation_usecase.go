package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

var _ domain.RecommendationUseCase = (*recommendationUseCase)(nil)

const (
	categoryWeight    = 3
	tagWeight         = 2
	coPurchaseWeight  = 4
	favoriteCatWeight = 2
)

type recommendationUseCase struct {
	productRepo domain.ProductRepository
	userRepo    domain.UserRepository
	ledger      domain.AffinityLedger
	log         *logrus.Logger
}

// NewRecommendationUseCase builds the scorer. userRepo may be nil, in which case the
// user preference signal is skipped.
func NewRecommendationUseCase(productRepo domain.ProductRepository, userRepo domain.UserRepository, ledger domain.AffinityLedger, logger *logrus.Logger) domain.RecommendationUseCase {
	return &recommendationUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		log:         logger,
	}
}

type scoredProduct struct {
	product domain.Product
	score   int
}

func (uc *recommendationUseCase) GetRecommendations(ctx context.Context, query domain.RecommendationQuery) ([]domain.Product, error) {
	query.UserID = strings.TrimSpace(query.UserID)
	query.ProductID = strings.TrimSpace(query.ProductID)
	if query.Limit <= 0 {
		query.Limit = domain.DefaultRecommendationLimit
	}

	var anchor *domain.Product
	if query.ProductID != "" {
		product, err := uc.productRepo.FindByID(ctx, query.ProductID)
		switch {
		case err == nil:
			anchor = product
		case errors.Is(err, domain.ErrNotFound):
			uc.log.Debugf("Use Case: Anchor product %s not found, ignoring", query.ProductID)
		default:
			return nil, fmt.Errorf("could not load anchor product: %w", err)
		}
	}
	return uc.rank(ctx, query, anchor)
}

func (uc *recommendationUseCase) Related(ctx context.Context, productID string, limit int) (*domain.Product, []domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, nil, fmt.Errorf("product id is required: %w", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = domain.DefaultRelatedLimit
	}

	anchor, err := uc.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	products, err := uc.rank(ctx, domain.RecommendationQuery{ProductID: productID, Limit: limit}, anchor)
	if err != nil {
		return nil, nil, err
	}
	return anchor, products, nil
}

func (uc *recommendationUseCase) rank(ctx context.Context, query domain.RecommendationQuery, anchor *domain.Product) ([]domain.Product, error) {
	products, err := uc.productRepo.Search(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("could not list catalog: %w", err)
	}

	coPurchases := map[string]int{}
	if anchor != nil {
		coPurchases, err = uc.ledger.CountsFor(ctx, anchor.ID)
		if err != nil {
			return nil, fmt.Errorf("could not read co-purchase counts: %w", err)
		}
	}

	var favorites []string
	if query.UserID != "" && uc.userRepo != nil {
		user, err := uc.userRepo.GetUserByID(ctx, query.UserID)
		switch {
		case err == nil:
			favorites = user.FavoriteCategories
		case errors.Is(err, domain.ErrNotFound):
			uc.log.Debugf("Use Case: User %s not found, ignoring preferences", query.UserID)
		default:
			return nil, fmt.Errorf("could not load user preferences: %w", err)
		}
	}

	scored := make([]scoredProduct, 0, len(products))
	for _, product := range products {
		if query.ProductID != "" && product.ID == query.ProductID {
			continue
		}
		scored = append(scored, scoredProduct{product: product, score: scoreProduct(product, anchor, coPurchases, favorites)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.ID < scored[j].product.ID
	})

	if len(scored) > query.Limit {
		scored = scored[:query.Limit]
	}
	result := make([]domain.Product, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.product)
	}
	uc.log.Debugf("Use Case: Ranked %d of %d products (user=%q, anchor=%q)", len(result), len(products), query.UserID, query.ProductID)
	return result, nil
}

// scoreProduct adds the anchor signals (when an anchor is set) to the user's favourite
// category overlap.
func scoreProduct(product domain.Product, anchor *domain.Product, coPurchases map[string]int, favorites []string) int {
	score := 0
	if anchor != nil {
		score += categoryWeight * domain.Overlap(anchor.Categories, product.Categories)
		score += tagWeight * domain.Overlap(anchor.Tags, product.Tags)
		score += coPurchaseWeight * coPurchases[product.ID]
	}
	return score + favoriteCatWeight*domain.Overlap(favorites, product.Categories)
}

func (uc *recommendationUseCase) RegisterPurchase(ctx context.Context, order domain.Order) error {
	pairs := domain.PurchasePairs(order.Items)
	if len(pairs) == 0 {
		return nil
	}
	if err := uc.ledger.Increment(ctx, pairs); err != nil {
		return fmt.Errorf("could not register co-purchases for order %s: %w", order.ID, err)
	}
	uc.log.Debugf("Use Case: Registered %d co-purchase pairs for order %s", len(pairs), order.ID)
	return nil
}

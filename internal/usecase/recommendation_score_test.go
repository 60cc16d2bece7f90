package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

func TestScoreProduct(t *testing.T) {
	anchor := &domain.Product{ID: "X", Categories: []string{"c1", "c2", "c3"}, Tags: []string{"t1", "t2"}}
	coPurchases := map[string]int{"Y": 3, "Q": 1}

	tests := []struct {
		name      string
		product   domain.Product
		anchor    *domain.Product
		favorites []string
		want      int
	}{
		{
			name:    "categories, tag and co-purchases",
			product: domain.Product{ID: "Y", Categories: []string{"c1", "c2"}, Tags: []string{"t1"}},
			anchor:  anchor,
			want:    3*2 + 2*1 + 4*3,
		},
		{
			name:    "single category",
			product: domain.Product{ID: "Z", Categories: []string{"c3"}},
			anchor:  anchor,
			want:    3,
		},
		{
			name:    "single tag",
			product: domain.Product{ID: "T", Tags: []string{"t2"}},
			anchor:  anchor,
			want:    2,
		},
		{
			name:    "single co-purchase",
			product: domain.Product{ID: "Q"},
			anchor:  anchor,
			want:    4,
		},
		{
			name:      "favourite categories without anchor",
			product:   domain.Product{ID: "W", Categories: []string{"c9", "c8"}},
			favorites: []string{"c8", "c9"},
			want:      2 * 2,
		},
		{
			name:      "anchor and favourites add up",
			product:   domain.Product{ID: "Y", Categories: []string{"c1", "c2"}, Tags: []string{"t1"}},
			anchor:    anchor,
			favorites: []string{"c2"},
			want:      20 + 2,
		},
		{
			name:    "co-purchases ignored without anchor",
			product: domain.Product{ID: "Y", Categories: []string{"c1"}},
			want:    0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scoreProduct(tc.product, tc.anchor, coPurchases, tc.favorites))
		})
	}
}

package domain

import "context"

// ProductPair is an unordered pair of product ids, stored with A < B.
type ProductPair struct {
	A string
	B string
}

func NewProductPair(x, y string) ProductPair {
	if y < x {
		x, y = y, x
	}
	return ProductPair{A: x, B: y}
}

// Other returns the member of the pair that is not id.
func (p ProductPair) Other(id string) string {
	if p.A == id {
		return p.B
	}
	return p.A
}

// PurchasePairs expands an order's item list into co-purchase pairs.
// Items are treated as a list: every position pair i < j with distinct
// product ids yields one pair, so duplicates count once per occurrence.
func PurchasePairs(items []OrderItem) []ProductPair {
	var pairs []ProductPair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].ProductID == items[j].ProductID {
				continue
			}
			pairs = append(pairs, NewProductPair(items[i].ProductID, items[j].ProductID))
		}
	}
	return pairs
}

// AffinityLedger accumulates co-purchase counts. Counts only ever grow.
type AffinityLedger interface {
	// Increment adds one to the count of every pair, repeated pairs included.
	Increment(ctx context.Context, pairs []ProductPair) error
	Count(ctx context.Context, a, b string) (int, error)
	// CountsFor returns the co-purchase count of every product paired with anchor.
	CountsFor(ctx context.Context, anchor string) (map[string]int, error)
	Reset(ctx context.Context) error
}

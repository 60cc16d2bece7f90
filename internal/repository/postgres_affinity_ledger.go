package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

type postgresAffinityLedger struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresAffinityLedger(db *sqlx.DB, logger *logrus.Logger) domain.AffinityLedger {
	return &postgresAffinityLedger{
		db:  db,
		log: logger,
	}
}

type pairCount struct {
	pair  domain.ProductPair
	count int
}

// aggregatePairs folds repeated pairs into one count each, sorted so every
// transaction locks co_purchases rows in the same order.
func aggregatePairs(pairs []domain.ProductPair) []pairCount {
	totals := make(map[domain.ProductPair]int, len(pairs))
	for _, pair := range pairs {
		totals[domain.NewProductPair(pair.A, pair.B)]++
	}
	aggregated := make([]pairCount, 0, len(totals))
	for pair, count := range totals {
		aggregated = append(aggregated, pairCount{pair: pair, count: count})
	}
	sort.Slice(aggregated, func(i, j int) bool {
		if aggregated[i].pair.A != aggregated[j].pair.A {
			return aggregated[i].pair.A < aggregated[j].pair.A
		}
		return aggregated[i].pair.B < aggregated[j].pair.B
	})
	return aggregated
}

func (l *postgresAffinityLedger) Increment(ctx context.Context, pairs []domain.ProductPair) error {
	if len(pairs) == 0 {
		return nil
	}
	aggregated := aggregatePairs(pairs)
	return transact(ctx, l.db, l.log, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
            INSERT INTO co_purchases (product_a, product_b, count)
            VALUES ($1, $2, $3)
            ON CONFLICT (product_a, product_b) DO UPDATE SET count = co_purchases.count + EXCLUDED.count`)
		if err != nil {
			return fmt.Errorf("could not prepare co-purchase statement: %w", err)
		}
		defer stmt.Close()

		for _, entry := range aggregated {
			if _, err := stmt.ExecContext(ctx, entry.pair.A, entry.pair.B, entry.count); err != nil {
				l.log.Errorf("Repository: Failed to increment co-purchase (%s, %s): %v", entry.pair.A, entry.pair.B, err)
				return fmt.Errorf("could not increment co-purchase count: %w", err)
			}
		}
		return nil
	})
}

func (l *postgresAffinityLedger) Count(ctx context.Context, a, b string) (int, error) {
	pair := domain.NewProductPair(a, b)
	var count int
	err := l.db.GetContext(ctx, &count, `
        SELECT COALESCE(SUM(count), 0)
        FROM co_purchases
        WHERE product_a = $1 AND product_b = $2`, pair.A, pair.B)
	if err != nil {
		l.log.Errorf("Repository: Failed to read co-purchase (%s, %s): %v", pair.A, pair.B, err)
		return 0, fmt.Errorf("could not read co-purchase count: %w", err)
	}
	return count, nil
}

func (l *postgresAffinityLedger) CountsFor(ctx context.Context, anchor string) (map[string]int, error) {
	var rows []struct {
		ProductA string `db:"product_a"`
		ProductB string `db:"product_b"`
		Count    int    `db:"count"`
	}
	err := l.db.SelectContext(ctx, &rows, `
        SELECT product_a, product_b, count
        FROM co_purchases
        WHERE product_a = $1 OR product_b = $1`, anchor)
	if err != nil {
		l.log.Errorf("Repository: Failed to read co-purchases for %s: %v", anchor, err)
		return nil, fmt.Errorf("could not read co-purchase counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[domain.ProductPair{A: row.ProductA, B: row.ProductB}.Other(anchor)] = row.Count
	}
	return counts, nil
}

func (l *postgresAffinityLedger) Reset(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM co_purchases`); err != nil {
		return fmt.Errorf("could not reset co-purchase ledger: %w", err)
	}
	l.log.Info("Repository: Affinity ledger reset")
	return nil
}

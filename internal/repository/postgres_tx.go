package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// transact runs fn inside a transaction, committing only when fn succeeds.
func transact(ctx context.Context, db *sqlx.DB, log *logrus.Logger, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.Errorf("Repository: Failed to begin transaction: %v", err)
		return fmt.Errorf("could not start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Repository: Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Errorf("Repository: Failed to rollback transaction: %v (original error: %v)", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		log.Errorf("Repository: Failed to commit transaction: %v", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/OEduardoGL/lps-ecommerce/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Stores bundles one backend implementation per component.
type Stores struct {
	Products domain.ProductRepository
	Users    domain.UserRepository
	Orders   domain.OrderRepository
	Affinity domain.AffinityLedger
}

func NewMemoryStores(logger *logrus.Logger) *Stores {
	return &Stores{
		Products: NewMemoryProductRepository(logger),
		Users:    NewMemoryUserRepository(logger),
		Orders:   NewMemoryOrderRepository(logger),
		Affinity: NewMemoryAffinityLedger(logger),
	}
}

func NewPostgresStores(db *sqlx.DB, logger *logrus.Logger) *Stores {
	return &Stores{
		Products: NewPostgresProductRepository(db, logger),
		Users:    NewPostgresUserRepository(db, logger),
		Orders:   NewPostgresOrderRepository(db, logger),
		Affinity: NewPostgresAffinityLedger(db, logger),
	}
}

// NewStores selects a backend by name. db is only used by the postgres backend.
func NewStores(backend string, db *sqlx.DB, logger *logrus.Logger) (*Stores, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStores(logger), nil
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres backend requires a database connection")
		}
		return NewPostgresStores(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (use %s or %s)", backend, BackendMemory, BackendPostgres)
	}
}

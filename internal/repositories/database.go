package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/secondhand-marketplace/internal/config"

	_ "github.com/lib/pq"
)

// ErrProductsUnavailable is returned when the conditional availability flip
// inside a checkout transaction touches fewer rows than expected, meaning a
// concurrent checkout already claimed at least one of the products.
var ErrProductsUnavailable = errors.New("one or more products are no longer available")

type Repositories struct {
	DB       *sql.DB
	User     UserRepository
	Product  ProductRepository
	Cart     CartRepository
	Order    OrderRepository
	Purchase PurchaseRepository
	Checkout CheckoutRepository
}

func New(cfg *config.Config) (*Repositories, error) {

	db, err := otelsql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	// Test the connection to make sure DB is reachable
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Repositories{
		DB:       db,
		User:     NewUserRepo(db),
		Product:  NewProductRepo(db),
		Cart:     NewCartRepo(db),
		Order:    NewOrderRepo(db),
		Purchase: NewPurchaseRepo(db),
		Checkout: NewCheckoutRepo(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}


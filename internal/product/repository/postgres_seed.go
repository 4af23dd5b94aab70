package repository

import (
	"context"
	"database/sql"

	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/product/domain"
)

type postgresSeed struct {
	db *sql.DB
}

// NewPostgresSeed reads the seed rows from an existing products table. Nothing is written back.
func NewPostgresSeed(db *sql.DB) SeedSource {
	return &postgresSeed{db: db}
}

func (s *postgresSeed) LoadSeed(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT id, name, price, currency FROM products ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("PostgresSeed: query failed", err)
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Currency); err != nil {
			logger.Error("PostgresSeed: scan failed", err)
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		logger.Error("PostgresSeed: rows iteration error", err)
		return nil, err
	}
	return products, checkSeed(products)
}

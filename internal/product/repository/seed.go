package repository

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ridloal/product-dashboard/internal/product/domain"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSeed = errors.New("invalid seed data")

// SeedSource supplies the initial products of an empty store. It is read once.
type SeedSource interface {
	LoadSeed(ctx context.Context) ([]domain.Product, error)
}

// StaticSeed is an in-code list of products.
type StaticSeed []domain.Product

func (s StaticSeed) LoadSeed(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(s))
	copy(out, s)
	return out, checkSeed(out)
}

// DefaultSeed is what the dashboard shows when no seed file or database is configured.
func DefaultSeed() StaticSeed {
	return StaticSeed{
		{ID: 1, Name: "Wireless Mouse", Price: 24.99, Currency: "USD"},
		{ID: 2, Name: "Mechanical Keyboard", Price: 89.5, Currency: "USD"},
		{ID: 3, Name: "USB-C Hub", Price: 39, Currency: "EUR"},
		{ID: 4, Name: "27in Monitor", Price: 249, Currency: "EUR"},
		{ID: 5, Name: "Laptop Stand", Price: 45, Currency: "GBP"},
		{ID: 6, Name: "Noise Cancelling Headphones", Price: 199.99, Currency: "USD"},
		{ID: 7, Name: "Webcam HD", Price: 59.9, Currency: "EUR"},
		{ID: 8, Name: "Desk Lamp", Price: 32, Currency: "GBP"},
		{ID: 9, Name: "External SSD 1TB", Price: 109, Currency: "USD"},
		{ID: 10, Name: "Ergonomic Chair", Price: 329, Currency: "EUR"},
		{ID: 11, Name: "Cable Organizer", Price: 12.5, Currency: "USD"},
		{ID: 12, Name: "Docking Station", Price: 179, Currency: "CHF"},
	}
}

type yamlSeedFile struct {
	Products []domain.Product `yaml:"products"`
}

// YAMLSeed reads products from a file shaped as `products: [{id, name, price, currency}]`.
type YAMLSeed struct {
	Path string
}

func (s YAMLSeed) LoadSeed(ctx context.Context) ([]domain.Product, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file yamlSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := checkSeed(file.Products); err != nil {
		return nil, err
	}
	return file.Products, nil
}

func checkSeed(products []domain.Product) error {
	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidSeed, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

package toml

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/marketplace-cart/internal/domain"
	"github.com/bnema/marketplace-cart/internal/ports"
	"github.com/spf13/viper"
)

const (
	CatalogPathKey  = "catalog.path"
	catalogFileName = "catalog.toml"
)

// CatalogRepository reads products from a TOML file of [[products]] tables.
type CatalogRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(cfg *viper.Viper) (*CatalogRepository, error) {
	path, err := resolvePath(cfg, CatalogPathKey, catalogFileName)
	if err != nil {
		return nil, err
	}

	return &CatalogRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	for _, product := range products {
		if product.ID == id {
			return product, nil
		}
	}

	return domain.Product{}, domain.ErrProductNotFound
}

func (r *CatalogRepository) List(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var file catalogFileSchema
	if err := readTOMLFile(r.path, "catalog", &file); err != nil {
		return nil, err
	}
	if err := file.validateVersion(); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(file.Products))
	for i, entry := range file.Products {
		product := fromProductSchema(entry)
		if err := product.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
		}
		products = append(products, product)
	}

	return products, nil
}

func fromProductSchema(schema productSchema) domain.Product {
	return domain.Product{
		ID:       domain.ProductID(schema.ID),
		Title:    schema.Title,
		ImageURL: schema.ImageURL,
		Price:    schema.Price,
	}
}

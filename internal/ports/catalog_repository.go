package ports

import (
	"context"

	"github.com/bnema/marketplace-cart/internal/domain"
)

type CatalogRepository interface {
	GetByID(ctx context.Context, id domain.ProductID) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductCatalog is the narrow catalog surface the order and link pipelines
// consume. Lookups take the active *gorm.DB so callers inside a transaction
// read from the same snapshot.
type ProductCatalog interface {
	ProductSnapshot(db *gorm.DB, productID uuid.UUID) (*models.Product, error)
}

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ProductSnapshot(db *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	if db == nil {
		db = s.db
	}

	var product models.Product
	if err := db.Preload("Category").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &product, nil
}

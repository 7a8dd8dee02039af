// internal/services/cart_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/models"
)

// CartStore is the narrow cart surface the order pipeline consumes: read the
// current lines, clear them after a completed order. Clearing an already
// empty cart is a no-op.
type CartStore interface {
	Items(userID uuid.UUID) ([]models.CartItem, error)
	Clear(userID uuid.UUID) error
}

type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) Items(userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart items: %w", err)
	}
	return items, nil
}

func (s *CartService) Clear(userID uuid.UUID) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

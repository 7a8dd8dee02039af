// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shopvn-backend/internal/database"
	"github.com/javajoker/shopvn-backend/internal/models"
	"github.com/javajoker/shopvn-backend/internal/utils"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

type OrderService struct {
	db          *gorm.DB
	catalog     ProductCatalog
	carts       CartStore
	links       *LinkService
	commissions *CommissionService
}

type CreateOrderRequest struct {
	Note        string `json:"note,omitempty"`
	VoucherCode string `json:"voucher_code,omitempty" validate:"max=50"`
}

type BuyNowRequest struct {
	ProductID     uuid.UUID `json:"product_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	Note          string    `json:"note,omitempty"`
	VoucherCode   string    `json:"voucher_code,omitempty" validate:"max=50"`
	AffiliateCode string    `json:"affiliate_code,omitempty" validate:"max=32"`
	LinkCode      string    `json:"link_code,omitempty" validate:"max=16"`
}

type cartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

func NewOrderService(db *gorm.DB, catalog ProductCatalog, carts CartStore, links *LinkService, commissions *CommissionService) *OrderService {
	return &OrderService{
		db:          db,
		catalog:     catalog,
		carts:       carts,
		links:       links,
		commissions: commissions,
	}
}

// CreateOrderFromCart merges the user's cart into their pending order,
// creating one when none exists. All writes happen in a single transaction;
// no partial order survives a failure.
func (s *OrderService) CreateOrderFromCart(userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	items, err := s.carts.Items(userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]cartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return s.mergeWithRetry(userID, lines, req.Note, req.VoucherCode, "", false)
}

// BuyNow is the single-product path. Any stale pending order is cancelled
// first, then the product is aggregated into a fresh one. Affiliate
// attribution and settlement run after commit and are best-effort: their
// failure never fails the order.
func (s *OrderService) BuyNow(userID uuid.UUID, req *BuyNowRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	affiliateCode := req.AffiliateCode
	if affiliateCode == "" && req.LinkCode != "" {
		var link models.AffiliateLink
		if err := s.db.Preload("Affiliate").Where("link_code = ?", req.LinkCode).First(&link).Error; err == nil {
			affiliateCode = link.Affiliate.AffiliateCode
		} else {
			logrus.WithField("link_code", req.LinkCode).Info("Buy-now link code did not resolve")
		}
	}

	order, err := s.mergeWithRetry(userID,
		[]cartLine{{ProductID: req.ProductID, Quantity: req.Quantity}},
		req.Note, req.VoucherCode, affiliateCode, true)
	if err != nil {
		return nil, err
	}

	if affiliateCode != "" {
		s.attributeOrder(order, req.LinkCode)
	}

	return order, nil
}

// mergeWithRetry runs the aggregation transaction. When a concurrent checkout
// wins the insert on the pending-order unique index, the loser's transaction
// aborts with gorm.ErrDuplicatedKey; one retry finds the surviving pending
// order and merges into it instead of failing the request.
func (s *OrderService) mergeWithRetry(userID uuid.UUID, lines []cartLine, note, voucher, affiliateCode string, cancelStale bool) (*models.Order, error) {
	var order *models.Order
	run := func() error {
		return database.WithTransaction(s.db, func(tx *gorm.DB) error {
			if cancelStale {
				// Start fresh: any pending order left behind is cancelled.
				// Running this twice is harmless.
				if err := tx.Model(&models.Order{}).
					Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).
					Update("status", models.OrderStatusCancelled).Error; err != nil {
					return fmt.Errorf("failed to cancel stale orders: %w", err)
				}
			}

			var err error
			order, err = s.createOrMerge(tx, userID, lines, note, voucher, affiliateCode)
			return err
		})
	}

	err := run()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = run()
	}
	if err != nil {
		return nil, err
	}

	return order, nil
}

// attributeOrder runs conversion tracking and commission settlement for a
// committed order. Failures are logged, never propagated.
func (s *OrderService) attributeOrder(order *models.Order, linkCode string) {
	if linkCode != "" && s.links != nil {
		if _, err := s.links.TrackConversion(linkCode, order.UserID, order.TotalAmount); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id":  order.ID,
				"link_code": linkCode,
			}).Warn("Conversion attribution failed")
		}
	}

	if s.commissions != nil {
		if _, err := s.commissions.Settle(order); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("Commission settlement failed")
		}
	}
}

// createOrMerge is the aggregation core. Reads and writes run on the caller's
// transaction so concurrent requests observe a consistent snapshot; the
// partial unique index on (user_id, status=pending) backstops the
// read-then-write race.
func (s *OrderService) createOrMerge(tx *gorm.DB, userID uuid.UUID, lines []cartLine, note, voucher, affiliateCode string) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var order models.Order
	err := tx.Preload("Items").
		Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order = models.Order{
			UserID:        userID,
			Status:        models.OrderStatusPending,
			Note:          note,
			VoucherCode:   voucher,
			AffiliateCode: affiliateCode,
		}
		if err := tx.Create(&order).Error; err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	for _, line := range lines {
		product, err := s.catalog.ProductSnapshot(tx, line.ProductID)
		if err != nil {
			return nil, err
		}

		merged := false
		for i := range order.Items {
			if order.Items[i].ProductID == line.ProductID {
				item := &order.Items[i]
				item.Quantity += line.Quantity
				item.FinalPrice = product.SalePrice() * float64(item.Quantity)
				if err := tx.Save(item).Error; err != nil {
					return nil, fmt.Errorf("failed to update order item: %w", err)
				}
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		item := models.OrderItem{
			OrderID:         order.ID,
			ProductID:       product.ID,
			Quantity:        line.Quantity,
			Price:           product.BasePrice,
			DiscountPercent: product.DiscountPercent,
			FinalPrice:      product.SalePrice() * float64(line.Quantity),
			ProductSnapshot: models.JSONB{
				"name":        product.Name,
				"image":       product.Image,
				"category_id": product.CategoryID.String(),
				"category":    product.Category.Name,
				"base_price":  product.BasePrice,
			},
		}
		if err := tx.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	// Total item count is the sum of quantities, not the line count.
	totalItems := 0
	totalAmount := 0.0
	for _, item := range order.Items {
		totalItems += item.Quantity
		totalAmount += item.FinalPrice
	}
	order.TotalItems = totalItems
	order.TotalAmount = totalAmount
	if affiliateCode != "" {
		order.AffiliateCode = affiliateCode
	}

	if err := tx.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to update order totals: %w", err)
	}

	return &order, nil
}

func (s *OrderService) GetOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("Payments").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

func (s *OrderService) GetOrders(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID).Preload("Items")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "total_amount", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus validates the transition, commits it, then fires the
// side effects. A failed side effect does not roll back the committed
// transition; it is logged and settlement can be retried idempotently.
func (s *OrderService) UpdateOrderStatus(id uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown order status %q: %w", next, ErrInvalidTransition)
	}

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s -> %s: %w", order.Status, next, ErrInvalidTransition)
	}

	if err := s.db.Model(order).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	order.Status = next

	if next == models.OrderStatusCompleted {
		if err := s.carts.Clear(order.UserID); err != nil {
			logrus.WithError(err).WithField("user_id", order.UserID).Error("Cart clear after order completion failed")
		}

		if order.AffiliateCode != "" && s.commissions != nil {
			if _, err := s.commissions.Settle(order); err != nil {
				logrus.WithError(err).WithField("order_id", order.ID).Error("Commission settlement failed")
			}
		}
	}

	return order, nil
}

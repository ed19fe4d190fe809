package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

const MaxOwnerKeyLength = 128

// CartLine is a cart item joined with the live product. Prices shown here are
// not frozen until checkout.
type CartLine struct {
	model.CartItem
	Product   *model.Product  `json:"product,omitempty"`
	Available bool            `json:"available"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Items    []CartLine      `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartService interface {
	GetCart(ctx context.Context, ownerKey string) (*CartView, error)
	AddItem(ctx context.Context, ownerKey string, productID uint, quantity int) (*CartLine, error)
	SetQuantity(ctx context.Context, ownerKey string, cartItemID uint, quantity int) (*CartLine, bool, error)
	RemoveItem(ctx context.Context, ownerKey string, cartItemID uint) error
	ClearCart(ctx context.Context, ownerKey string) error
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	locks       *util.KeyedMutex
}

// NewCartService builds the cart service. locks must be the same instance the
// order service uses so checkout and cart edits for one owner never overlap.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	locks *util.KeyedMutex,
) CartService {
	if locks == nil {
		locks = util.NewKeyedMutex()
	}
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		locks:       locks,
	}
}

func validateOwnerKey(ownerKey string) error {
	if strings.TrimSpace(ownerKey) == "" {
		return newValidationError("session", "is required")
	}
	if len(ownerKey) > MaxOwnerKeyLength {
		return newValidationError("session", "is too long")
	}
	return nil
}

func newCartLine(item model.CartItem, product *model.Product) CartLine {
	line := CartLine{CartItem: item, Product: product}
	if product == nil {
		return line
	}
	line.UnitPrice = product.UnitPrice()
	line.LineTotal = model.RoundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	line.Available = product.CanFulfil(item.Quantity)
	return line
}

func (s *cartService) GetCart(ctx context.Context, ownerKey string) (*CartView, error) {
	if err := validateOwnerKey(ownerKey); err != nil {
		return nil, err
	}

	logger.Debug("Fetching cart", map[string]interface{}{
		"owner_key": ownerKey,
	})

	items, err := s.cartRepo.FindByOwner(ctx, ownerKey)
	if err != nil {
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"owner_key": ownerKey,
		})
		return nil, err
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	view := &CartView{Items: make([]CartLine, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		line := newCartLine(item, byID[item.ProductID])
		view.Items = append(view.Items, line)
		view.Count += item.Quantity
		if line.Available {
			view.Subtotal = view.Subtotal.Add(line.LineTotal)
		}
	}
	view.Subtotal = model.RoundMoney(view.Subtotal)

	return view, nil
}

// AddItem merges quantity into the owner's line for productID, creating the
// line if needed. The merged quantity is checked against live stock.
func (s *cartService) AddItem(ctx context.Context, ownerKey string, productID uint, quantity int) (*CartLine, error) {
	if err := validateOwnerKey(ownerKey); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, newValidationError("quantity", "must be at least 1")
	}

	logger.Info("Adding item to cart", map[string]interface{}{
		"owner_key":  ownerKey,
		"product_id": productID,
		"quantity":   quantity,
	})

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	product, err := s.productRepo.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"owner_key":  ownerKey,
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	existing, err := s.cartRepo.FindByOwnerAndProduct(ctx, ownerKey, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	requested := quantity
	if existing != nil {
		requested = existing.Quantity + quantity
	}

	if !product.CanFulfil(requested) {
		logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
			"owner_key":  ownerKey,
			"product_id": productID,
			"requested":  requested,
			"available":  product.Stock,
		})
		return nil, ErrInsufficientStock
	}

	if existing != nil {
		err := s.cartRepo.UpdateQuantity(ctx, existing.ID, requested)
		switch {
		case err == nil:
			existing.Quantity = requested
			line := newCartLine(*existing, product)
			return &line, nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			// purged underneath us; start a fresh line
			requested = quantity
		default:
			return nil, err
		}
	}

	item := &model.CartItem{
		OwnerKey:  ownerKey,
		ProductID: productID,
		Quantity:  requested,
	}
	if err := s.cartRepo.Create(ctx, item); err != nil {
		return nil, errors.Wrap(err, "create cart item")
	}

	logger.Info("Cart item added", map[string]interface{}{
		"cart_item_id": item.ID,
		"owner_key":    ownerKey,
	})

	line := newCartLine(*item, product)
	return &line, nil
}

func (s *cartService) findOwnedItem(ctx context.Context, ownerKey string, cartItemID uint) (*model.CartItem, error) {
	item, err := s.cartRepo.FindByID(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if item.OwnerKey != ownerKey {
		logger.Warn("Cart item belongs to another owner", map[string]interface{}{
			"owner_key":    ownerKey,
			"cart_item_id": cartItemID,
		})
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

// SetQuantity replaces the line quantity. A quantity of zero or less removes
// the line and reports removed=true.
func (s *cartService) SetQuantity(ctx context.Context, ownerKey string, cartItemID uint, quantity int) (*CartLine, bool, error) {
	if err := validateOwnerKey(ownerKey); err != nil {
		return nil, false, err
	}

	logger.Info("Updating cart item", map[string]interface{}{
		"owner_key":    ownerKey,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	item, err := s.findOwnedItem(ctx, ownerKey, cartItemID)
	if err != nil {
		return nil, false, err
	}

	if quantity <= 0 {
		if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, ErrCartItemNotFound
			}
			return nil, false, err
		}
		return nil, true, nil
	}

	product, err := s.productRepo.FindActiveByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrProductNotFound
		}
		return nil, false, err
	}
	if !product.CanFulfil(quantity) {
		logger.Warn("Cannot update cart item: insufficient stock", map[string]interface{}{
			"cart_item_id": item.ID,
			"requested":    quantity,
			"available":    product.Stock,
		})
		return nil, false, ErrInsufficientStock
	}

	if err := s.cartRepo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCartItemNotFound
		}
		return nil, false, err
	}
	item.Quantity = quantity

	line := newCartLine(*item, product)
	return &line, false, nil
}

func (s *cartService) RemoveItem(ctx context.Context, ownerKey string, cartItemID uint) error {
	if err := validateOwnerKey(ownerKey); err != nil {
		return err
	}

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	item, err := s.findOwnedItem(ctx, ownerKey, cartItemID)
	if err != nil {
		return err
	}
	if err := s.cartRepo.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"owner_key":    ownerKey,
		"cart_item_id": cartItemID,
	})
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, ownerKey string) error {
	if err := validateOwnerKey(ownerKey); err != nil {
		return err
	}

	unlock := s.locks.Lock(ownerKey)
	defer unlock()

	removed, err := s.cartRepo.DeleteByOwner(ctx, ownerKey)
	if err != nil {
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"owner_key": ownerKey,
		"removed":   removed,
	})
	return nil
}

// PurgeStale drops every line not touched within olderThan.
func (s *cartService) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, newValidationError("older_than", "must be positive")
	}

	cutoff := time.Now().Add(-olderThan)
	removed, err := s.cartRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge stale cart items")
	}

	logger.Info("Stale cart items purged", map[string]interface{}{
		"cutoff":  cutoff,
		"removed": removed,
	})
	return removed, nil
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/events"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/metrics"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/payment"
	"github.com/ritvika/paintshop/internal/repositories/repomanager"
)

// CheckoutService turns a cart into an order and charges for it.
//
// The sequence is: resolve the cart, snapshot it into a pending order
// while bumping the cart version in the same transaction, submit the
// charge, then settle the order status and clear the cart. The order row
// always exists before any money moves, so a crash mid-charge leaves a
// pending order for the reconciler instead of an untracked payment.
type CheckoutService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	gateway        payment.Gateway
	publisher      events.Publisher
	metrics        *metrics.ShopMetrics
	logger         logging.Logger
	currency       string
	reconcileAfter time.Duration
}

func NewCheckoutService(db *sql.DB, m repomanager.RepositoryManager, gw payment.Gateway,
	pub events.Publisher, mt *metrics.ShopMetrics, logger logging.Logger, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		db:             db,
		repomanager:    m,
		gateway:        gw,
		publisher:      pub,
		metrics:        mt,
		logger:         logger,
		currency:       cfg.PaymentCurrency,
		reconcileAfter: cfg.ReconcileAfter,
	}
}

// Checkout runs the full purchase for the user's current cart.
//
// An empty cart yields ErrEmptyCart; a cart line whose product no longer
// exists yields ErrValidation. A replayed idempotency key returns the
// original order without charging again. A rejected charge marks the order
// failed and returns ErrPaymentRejected with the order. A charge that
// times out leaves the order pending and returns ErrChargeUnconfirmed with
// the order; only the reconciler or a payment.result event settles it.
// The cart is cleared only after an accepted charge, and only if no
// competing checkout has advanced its version since the snapshot.
func (s *CheckoutService) Checkout(ctx context.Context, userID, sourceToken, idempotencyKey string) (*models.Order, error) {
	if idempotencyKey != "" {
		existing, err := s.repomanager.Orders(s.db).FindByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("error checking idempotency key: %w", err)
		}
	}

	cart, err := s.repomanager.Carts(s.db).GetResolved(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error resolving cart: %w", err)
	}
	if len(cart.Items) == 0 {
		s.metrics.CheckoutTotal.WithLabelValues("rejected_input").Inc()
		return nil, common.ErrEmptyCart
	}
	if cart.HasMissingProducts() {
		s.metrics.CheckoutTotal.WithLabelValues("rejected_input").Inc()
		return nil, fmt.Errorf("cart contains unavailable products: %w", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	order := s.buildOrder(user, cart, idempotencyKey)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Orders(tx).Create(ctx, order)
		if err != nil {
			return fmt.Errorf("error creating order: %w", err)
		}
		order = created
		if err := s.repomanager.Carts(tx).BumpVersion(ctx, cart.CartID, cart.Version); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) && idempotencyKey != "" {
			// Lost a race with a concurrent replay of the same key.
			return s.repomanager.Orders(s.db).FindByIdempotencyKey(ctx, idempotencyKey)
		}
		if errors.Is(err, common.ErrVersionConflict) {
			s.metrics.CheckoutTotal.WithLabelValues("rejected_input").Inc()
			return nil, common.ErrCheckoutInProgress
		}
		return nil, err
	}

	start := time.Now()
	result, chargeErr := s.gateway.Charge(ctx, &payment.ChargeRequest{
		OrderID:     order.ID,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		SourceToken: sourceToken,
		Description: fmt.Sprintf("order %s for %s", order.ID, order.UserEmail),
	})
	s.metrics.ChargeSeconds.Observe(time.Since(start).Seconds())

	if chargeErr != nil {
		if errors.Is(chargeErr, common.ErrChargeUnconfirmed) {
			s.metrics.CheckoutTotal.WithLabelValues("pending").Inc()
			s.publish(ctx, events.RKOrderCreated, order)
			s.logger.Warn(ctx, "charge unconfirmed, order left pending", "order_id", order.ID)
			return order, common.ErrChargeUnconfirmed
		}
		s.failOrder(ctx, order, "")
		return order, fmt.Errorf("error charging order %s: %w", order.ID, chargeErr)
	}

	if !result.Accepted {
		s.failOrder(ctx, order, result.ProviderRef)
		s.logger.Info(ctx, "charge rejected", "order_id", order.ID, "reason", result.Reason)
		return order, common.ErrPaymentRejected
	}

	if err := s.repomanager.Orders(s.db).UpdateStatus(ctx, order.ID, models.OrderStatusPaid, result.ProviderRef); err != nil {
		// The charge went through; the reconciler will settle the row.
		s.logger.Error(ctx, "paid order not updated", "order_id", order.ID, "error", err)
	}
	order.Status = models.OrderStatusPaid
	order.ProviderRef = result.ProviderRef

	if err := s.repomanager.Carts(s.db).ClearIfVersion(ctx, userID, cart.Version+1); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			s.logger.Warn(ctx, "cart changed during checkout, not cleared", "user_id", userID)
		} else {
			s.logger.Error(ctx, "cart not cleared", "user_id", userID, "error", err)
		}
	}

	s.metrics.CheckoutTotal.WithLabelValues("paid").Inc()
	s.publish(ctx, events.RKOrderPaid, order)
	return order, nil
}

// HandlePaymentResult applies an asynchronous settlement outcome to a
// pending order and republishes the terminal event.
func (s *CheckoutService) HandlePaymentResult(ctx context.Context, pr *events.PaymentResult) error {
	order, err := s.repomanager.Orders(s.db).GetByID(ctx, pr.OrderID)
	if err != nil {
		return fmt.Errorf("error loading order %s: %w", pr.OrderID, err)
	}
	if order.Status != models.OrderStatusPending {
		return nil
	}

	status := models.OrderStatusFailed
	rk := events.RKOrderFailed
	if pr.Succeeded {
		status = models.OrderStatusPaid
		rk = events.RKOrderPaid
	}
	if err := s.repomanager.Orders(s.db).UpdateStatus(ctx, order.ID, status, pr.ProviderRef); err != nil {
		return fmt.Errorf("error settling order %s: %w", order.ID, err)
	}
	order.Status = status
	order.ProviderRef = pr.ProviderRef
	s.publish(ctx, rk, order)
	return nil
}

// Reconcile surfaces pending orders older than the reconciliation window:
// logs them, refreshes the gauge and republishes order.created so a
// downstream settlement worker can pick them up again.
func (s *CheckoutService) Reconcile(ctx context.Context) error {
	cutoff := time.Now().Add(-s.reconcileAfter)
	stale, err := s.repomanager.Orders(s.db).ListStalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("error listing pending orders: %w", err)
	}

	s.metrics.PendingOrders.Set(float64(len(stale)))
	for _, o := range stale {
		s.logger.Warn(ctx, "order awaiting settlement", "order_id", o.ID, "created_at", o.CreatedAt)
		s.publish(ctx, events.RKOrderCreated, o)
	}
	return nil
}

func (s *CheckoutService) buildOrder(user *models.User, cart *models.ResolvedCart, idempotencyKey string) *models.Order {
	order := &models.Order{
		UserID:         user.ID,
		UserEmail:      user.Email,
		Status:         models.OrderStatusPending,
		TotalCents:     cart.TotalCents(),
		Currency:       s.currency,
		IdempotencyKey: idempotencyKey,
	}
	for _, it := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      it.ProductID,
			Title:          it.Product.Title,
			Description:    it.Product.Description,
			ImageKey:       it.Product.ImageKey,
			UnitPriceCents: it.Product.PriceCents,
			Quantity:       it.Quantity,
			LineCents:      it.Product.PriceCents * int64(it.Quantity),
		})
	}
	return order
}

func (s *CheckoutService) failOrder(ctx context.Context, order *models.Order, providerRef string) {
	if err := s.repomanager.Orders(s.db).UpdateStatus(ctx, order.ID, models.OrderStatusFailed, providerRef); err != nil {
		s.logger.Error(ctx, "failed order not updated", "order_id", order.ID, "error", err)
	}
	order.Status = models.OrderStatusFailed
	order.ProviderRef = providerRef
	s.metrics.CheckoutTotal.WithLabelValues("failed").Inc()
	s.publish(ctx, events.RKOrderFailed, order)
}

func (s *CheckoutService) publish(ctx context.Context, routingKey string, order *models.Order) {
	ev := &events.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		Status:     order.Status,
	}
	if err := s.publisher.PublishJSON(ctx, routingKey, ev); err != nil {
		s.logger.Warn(ctx, "event not published", "routing_key", routingKey, "order_id", order.ID, "error", err)
	}
}

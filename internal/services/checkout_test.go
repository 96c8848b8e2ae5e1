package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ritvika/paintshop/internal/common"
	"github.com/ritvika/paintshop/internal/config"
	"github.com/ritvika/paintshop/internal/dbx"
	"github.com/ritvika/paintshop/internal/events"
	"github.com/ritvika/paintshop/internal/logging"
	"github.com/ritvika/paintshop/internal/metrics"
	"github.com/ritvika/paintshop/internal/models"
	"github.com/ritvika/paintshop/internal/payment"
	cartsrepo "github.com/ritvika/paintshop/internal/repositories/carts"
	ordersrepo "github.com/ritvika/paintshop/internal/repositories/orders"
	productsrepo "github.com/ritvika/paintshop/internal/repositories/products"
	refreshtokensrepo "github.com/ritvika/paintshop/internal/repositories/refreshtokens"
	usersrepo "github.com/ritvika/paintshop/internal/repositories/users"
)

// --- fakes ---

type fakeCartsRepo struct {
	resolved    *models.ResolvedCart
	resolvedErr error

	bumpErr  error
	bumped   bool
	clearErr error

	clearedVersion int64
	cleared        bool
}

func (f *fakeCartsRepo) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	return &models.Cart{ID: "c1", UserID: userID}, nil
}
func (f *fakeCartsRepo) Get(ctx context.Context, userID string) (*models.Cart, error) {
	return &models.Cart{ID: "c1", UserID: userID}, nil
}
func (f *fakeCartsRepo) GetResolved(ctx context.Context, userID string) (*models.ResolvedCart, error) {
	if f.resolvedErr != nil {
		return nil, f.resolvedErr
	}
	return f.resolved, nil
}
func (f *fakeCartsRepo) AddItem(context.Context, string, string) error    { return nil }
func (f *fakeCartsRepo) RemoveItem(context.Context, string, string) error { return nil }
func (f *fakeCartsRepo) Clear(context.Context, string) error              { return nil }
func (f *fakeCartsRepo) ClearIfVersion(ctx context.Context, userID string, version int64) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	f.clearedVersion = version
	return nil
}
func (f *fakeCartsRepo) BumpVersion(ctx context.Context, cartID string, expected int64) error {
	if f.bumpErr != nil {
		return f.bumpErr
	}
	f.bumped = true
	return nil
}

type fakeOrdersRepo struct {
	createdOrder *models.Order
	createErr    error

	byKey        *models.Order
	byKeyErr     error
	byKeyErrOnce bool // return byKeyErr only on the first lookup
	byKeyCalls   int

	byID    *models.Order
	byIDErr error

	statusUpdates []string
	refUpdates    []string

	stale []*models.Order
}

func (f *fakeOrdersRepo) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	o.ID = "o1"
	o.CreatedAt = time.Now()
	f.createdOrder = o
	return o, nil
}
func (f *fakeOrdersRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byID, nil
}
func (f *fakeOrdersRepo) ListByUser(context.Context, string) ([]*models.Order, error) {
	return nil, nil
}
func (f *fakeOrdersRepo) UpdateStatus(ctx context.Context, orderID, status, providerRef string) error {
	f.statusUpdates = append(f.statusUpdates, status)
	f.refUpdates = append(f.refUpdates, providerRef)
	return nil
}
func (f *fakeOrdersRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	f.byKeyCalls++
	if f.byKeyErr != nil && (!f.byKeyErrOnce || f.byKeyCalls == 1) {
		return nil, f.byKeyErr
	}
	return f.byKey, nil
}
func (f *fakeOrdersRepo) ListStalePending(context.Context, time.Time) ([]*models.Order, error) {
	return f.stale, nil
}

type fakeUsersRepo struct {
	user *models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}
func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return f.user, nil
}
func (f *fakeUsersRepo) GetByID(context.Context, string) (*models.User, error) {
	return f.user, nil
}
func (f *fakeUsersRepo) SetResetToken(context.Context, string, string, time.Time) error { return nil }
func (f *fakeUsersRepo) GetByResetToken(context.Context, string) (*models.User, error) {
	return f.user, nil
}
func (f *fakeUsersRepo) UpdatePasswordAndClearResetToken(context.Context, string, []byte) error {
	return nil
}

type fakeRepoManager struct {
	carts    *fakeCartsRepo
	orders   *fakeOrdersRepo
	users    usersrepo.Repository
	refresh  refreshtokensrepo.Repository
	products productsrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.refresh
}
func (m *fakeRepoManager) Products(db dbx.DBTX) productsrepo.Repository { return m.products }
func (m *fakeRepoManager) Carts(db dbx.DBTX) cartsrepo.Repository       { return m.carts }
func (m *fakeRepoManager) Orders(db dbx.DBTX) ordersrepo.Repository     { return m.orders }

type fakeGateway struct {
	result  *payment.ChargeResult
	err     error
	calls   int
	lastReq *payment.ChargeRequest
}

func (f *fakeGateway) Charge(ctx context.Context, req *payment.ChargeRequest) (*payment.ChargeResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, routingKey string, v any) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

// --- helpers ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func resolvedCart(version int64) *models.ResolvedCart {
	return &models.ResolvedCart{
		CartID:  "c1",
		UserID:  "u1",
		Version: version,
		Items: []models.ResolvedCartItem{{
			ProductID: "p1",
			Quantity:  2,
			Product: &models.Product{
				ID: "p1", Title: "Crimson", Description: "oil paint",
				PriceCents: 650, ImageKey: "k1",
			},
		}},
	}
}

func newCheckoutService(t *testing.T, db *sql.DB, rm *fakeRepoManager, gw *fakeGateway, pub *recordingPublisher) *CheckoutService {
	t.Helper()
	cfg := &config.Config{PaymentCurrency: "inr", ReconcileAfter: 15 * time.Minute}
	mt := metrics.NewShopMetrics(prometheus.NewRegistry())
	return NewCheckoutService(db, rm, gw, pub, mt, testLogger(), cfg)
}

// --- tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	rm := &fakeRepoManager{
		carts:  &fakeCartsRepo{resolved: &models.ResolvedCart{CartID: "c1", UserID: "u1"}},
		orders: &fakeOrdersRepo{byKeyErr: common.ErrNotFound},
		users:  &fakeUsersRepo{},
	}
	gw := &fakeGateway{}
	s := newCheckoutService(t, db, rm, gw, &recordingPublisher{})

	_, err := s.Checkout(context.Background(), "u1", "tok", "")
	if !errors.Is(err, common.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatal("gateway must not be called for an empty cart")
	}
}

func TestCheckout_MissingProduct(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	cart := resolvedCart(1)
	cart.Items = append(cart.Items, models.ResolvedCartItem{ProductID: "gone", Quantity: 1})
	rm := &fakeRepoManager{
		carts:  &fakeCartsRepo{resolved: cart},
		orders: &fakeOrdersRepo{byKeyErr: common.ErrNotFound},
		users:  &fakeUsersRepo{},
	}
	gw := &fakeGateway{}
	s := newCheckoutService(t, db, rm, gw, &recordingPublisher{})

	_, err := s.Checkout(context.Background(), "u1", "tok", "")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatal("gateway must not be called for an unavailable product")
	}
}

func TestCheckout_Success(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	carts := &fakeCartsRepo{resolved: resolvedCart(3)}
	orders := &fakeOrdersRepo{byKeyErr: common.ErrNotFound}
	rm := &fakeRepoManager{
		carts:  carts,
		orders: orders,
		users:  &fakeUsersRepo{user: &models.User{ID: "u1", Email: "a@b.c"}},
	}
	gw := &fakeGateway{result: &payment.ChargeResult{Accepted: true, ProviderRef: "ch_1"}}
	pub := &recordingPublisher{}
	s := newCheckoutService(t, db, rm, gw, pub)

	order, err := s.Checkout(context.Background(), "u1", "tok_visa", "key-1")
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}

	if order.TotalCents != 1300 {
		t.Fatalf("expected total 1300, got %d", order.TotalCents)
	}
	if order.Status != models.OrderStatusPaid || order.ProviderRef != "ch_1" {
		t.Fatalf("unexpected order state: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].UnitPriceCents != 650 ||
		order.Items[0].Quantity != 2 || order.Items[0].LineCents != 1300 {
		t.Fatalf("unexpected snapshot: %+v", order.Items)
	}
	if order.IdempotencyKey != "key-1" {
		t.Fatalf("expected idempotency key on order, got %q", order.IdempotencyKey)
	}
	if gw.lastReq.AmountCents != 1300 || gw.lastReq.Currency != "inr" {
		t.Fatalf("unexpected charge request: %+v", gw.lastReq)
	}
	if !carts.bumped {
		t.Fatal("expected cart version bump")
	}
	if !carts.cleared || carts.clearedVersion != 4 {
		t.Fatalf("expected cart cleared at version 4, got cleared=%v version=%d",
			carts.cleared, carts.clearedVersion)
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.RKOrderPaid {
		t.Fatalf("expected order.paid event, got %v", pub.keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCheckout_PaymentRejected(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	carts := &fakeCartsRepo{resolved: resolvedCart(3)}
	orders := &fakeOrdersRepo{byKeyErr: common.ErrNotFound}
	rm := &fakeRepoManager{
		carts:  carts,
		orders: orders,
		users:  &fakeUsersRepo{user: &models.User{ID: "u1", Email: "a@b.c"}},
	}
	gw := &fakeGateway{result: &payment.ChargeResult{Accepted: false, ProviderRef: "ch_2", Reason: "card_declined"}}
	pub := &recordingPublisher{}
	s := newCheckoutService(t, db, rm, gw, pub)

	order, err := s.Checkout(context.Background(), "u1", "tok_fail", "")
	if !errors.Is(err, common.ErrPaymentRejected) {
		t.Fatalf("expected ErrPaymentRejected, got %v", err)
	}
	if order == nil || order.Status != models.OrderStatusFailed {
		t.Fatalf("expected failed order, got %+v", order)
	}
	if carts.cleared {
		t.Fatal("cart must not be cleared after a rejected charge")
	}
	if len(orders.statusUpdates) != 1 || orders.statusUpdates[0] != models.OrderStatusFailed {
		t.Fatalf("expected failed status update, got %v", orders.statusUpdates)
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.RKOrderFailed {
		t.Fatalf("expected order.failed event, got %v", pub.keys)
	}
}

func TestCheckout_ChargeUnconfirmed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	carts := &fakeCartsRepo{resolved: resolvedCart(3)}
	orders := &fakeOrdersRepo{byKeyErr: common.ErrNotFound}
	rm := &fakeRepoManager{
		carts:  carts,
		orders: orders,
		users:  &fakeUsersRepo{user: &models.User{ID: "u1", Email: "a@b.c"}},
	}
	gw := &fakeGateway{err: common.ErrChargeUnconfirmed}
	pub := &recordingPublisher{}
	s := newCheckoutService(t, db, rm, gw, pub)

	order, err := s.Checkout(context.Background(), "u1", "tok", "")
	if !errors.Is(err, common.ErrChargeUnconfirmed) {
		t.Fatalf("expected ErrChargeUnconfirmed, got %v", err)
	}
	if order == nil || order.Status != models.OrderStatusPending {
		t.Fatalf("expected pending order, got %+v", order)
	}
	if carts.cleared {
		t.Fatal("cart must not be cleared while the charge is unconfirmed")
	}
	if len(orders.statusUpdates) != 0 {
		t.Fatalf("pending order must not be settled, got updates %v", orders.statusUpdates)
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.RKOrderCreated {
		t.Fatalf("expected order.created event, got %v", pub.keys)
	}
}

func TestCheckout_VersionConflict(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	carts := &fakeCartsRepo{resolved: resolvedCart(3), bumpErr: common.ErrVersionConflict}
	rm := &fakeRepoManager{
		carts:  carts,
		orders: &fakeOrdersRepo{byKeyErr: common.ErrNotFound},
		users:  &fakeUsersRepo{user: &models.User{ID: "u1", Email: "a@b.c"}},
	}
	gw := &fakeGateway{}
	s := newCheckoutService(t, db, rm, gw, &recordingPublisher{})

	_, err := s.Checkout(context.Background(), "u1", "tok", "")
	if !errors.Is(err, common.ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatal("gateway must not be called when the version gate fails")
	}
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	existing := &models.Order{ID: "o1", Status: models.OrderStatusPaid, TotalCents: 1300}
	rm := &fakeRepoManager{
		carts:  &fakeCartsRepo{},
		orders: &fakeOrdersRepo{byKey: existing},
		users:  &fakeUsersRepo{},
	}
	gw := &fakeGateway{}
	s := newCheckoutService(t, db, rm, gw, &recordingPublisher{})

	order, err := s.Checkout(context.Background(), "u1", "tok", "key-1")
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}
	if order.ID != "o1" {
		t.Fatalf("expected replayed order o1, got %+v", order)
	}
	if gw.calls != 0 {
		t.Fatal("replay must not charge again")
	}
}

func TestCheckout_DuplicateKeyRaceReturnsExistingOrder(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	// Both submissions pass the pre-check; this one loses the insert race
	// and must fall back to the order the winner created.
	existing := &models.Order{ID: "o9", Status: models.OrderStatusPaid, TotalCents: 1300, IdempotencyKey: "key-1"}
	carts := &fakeCartsRepo{resolved: resolvedCart(3)}
	orders := &fakeOrdersRepo{
		createErr:    common.ErrAlreadyExists,
		byKey:        existing,
		byKeyErr:     common.ErrNotFound,
		byKeyErrOnce: true,
	}
	rm := &fakeRepoManager{
		carts:  carts,
		orders: orders,
		users:  &fakeUsersRepo{user: &models.User{ID: "u1", Email: "a@b.c"}},
	}
	gw := &fakeGateway{}
	s := newCheckoutService(t, db, rm, gw, &recordingPublisher{})

	order, err := s.Checkout(context.Background(), "u1", "tok", "key-1")
	if err != nil {
		t.Fatalf("Checkout error: %v", err)
	}
	if order.ID != "o9" {
		t.Fatalf("expected the winner's order, got %+v", order)
	}
	if orders.byKeyCalls != 2 {
		t.Fatalf("expected a second key lookup, got %d", orders.byKeyCalls)
	}
	if gw.calls != 0 {
		t.Fatal("losing submission must not charge")
	}
	if carts.cleared {
		t.Fatal("losing submission must not clear the cart")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHandlePaymentResult_SettlesPending(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	orders := &fakeOrdersRepo{byID: &models.Order{ID: "o1", Status: models.OrderStatusPending}}
	rm := &fakeRepoManager{carts: &fakeCartsRepo{}, orders: orders, users: &fakeUsersRepo{}}
	pub := &recordingPublisher{}
	s := newCheckoutService(t, db, rm, &fakeGateway{}, pub)

	err := s.HandlePaymentResult(context.Background(), &events.PaymentResult{
		OrderID: "o1", Succeeded: true, ProviderRef: "ch_9",
	})
	if err != nil {
		t.Fatalf("HandlePaymentResult error: %v", err)
	}
	if len(orders.statusUpdates) != 1 || orders.statusUpdates[0] != models.OrderStatusPaid {
		t.Fatalf("expected paid update, got %v", orders.statusUpdates)
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.RKOrderPaid {
		t.Fatalf("expected order.paid event, got %v", pub.keys)
	}
}

func TestHandlePaymentResult_IgnoresSettledOrder(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	orders := &fakeOrdersRepo{byID: &models.Order{ID: "o1", Status: models.OrderStatusPaid}}
	rm := &fakeRepoManager{carts: &fakeCartsRepo{}, orders: orders, users: &fakeUsersRepo{}}
	s := newCheckoutService(t, db, rm, &fakeGateway{}, &recordingPublisher{})

	err := s.HandlePaymentResult(context.Background(), &events.PaymentResult{
		OrderID: "o1", Succeeded: false,
	})
	if err != nil {
		t.Fatalf("HandlePaymentResult error: %v", err)
	}
	if len(orders.statusUpdates) != 0 {
		t.Fatalf("settled order must not change, got %v", orders.statusUpdates)
	}
}

func TestReconcile_RepublishesStalePending(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	orders := &fakeOrdersRepo{stale: []*models.Order{
		{ID: "o1", Status: models.OrderStatusPending},
		{ID: "o2", Status: models.OrderStatusPending},
	}}
	rm := &fakeRepoManager{carts: &fakeCartsRepo{}, orders: orders, users: &fakeUsersRepo{}}
	pub := &recordingPublisher{}
	s := newCheckoutService(t, db, rm, &fakeGateway{}, pub)

	if err := s.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(pub.keys) != 2 {
		t.Fatalf("expected 2 republished events, got %v", pub.keys)
	}
}

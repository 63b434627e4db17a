package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/internal/notifications"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	pkgstripe "github.com/avelarde/comanda-backend/pkg/stripe"
)

type repoStub struct {
	created *models.Order
	orders  map[uuid.UUID]*models.Order
	intents map[string]uuid.UUID

	markPaidRows   int64
	markFailedRows int64
	cancelRows     int64

	delivered  []uuid.UUID
	failed     []uuid.UUID
	intentSet  map[uuid.UUID]string
	updated    *models.Order
	deleted    []uuid.UUID
	createErr  error
	setIntErr  error
}

func newRepoStub() *repoStub {
	return &repoStub{
		orders:    map[uuid.UUID]*models.Order{},
		intents:   map[string]uuid.UUID{},
		intentSet: map[uuid.UUID]string{},
	}
}

func (r *repoStub) WithTx(tx *gorm.DB) Repository { return r }

func (r *repoStub) Create(_ context.Context, order *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	order.ID = uuid.New()
	r.created = order
	r.orders[order.ID] = order
	return nil
}

func (r *repoStub) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *repoStub) FindByIntentID(_ context.Context, intentID string) (*models.Order, error) {
	id, ok := r.intents[intentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r.orders[id]
	return &clone, nil
}

func (r *repoStub) SetIntentID(_ context.Context, id uuid.UUID, intentID string) error {
	if r.setIntErr != nil {
		return r.setIntErr
	}
	r.intentSet[id] = intentID
	r.intents[intentID] = id
	return nil
}

func (r *repoStub) MarkPaid(_ context.Context, id uuid.UUID) (int64, error) {
	return r.markPaidRows, nil
}

func (r *repoStub) MarkFailed(_ context.Context, id uuid.UUID) (int64, error) {
	r.failed = append(r.failed, id)
	return r.markFailedRows, nil
}

func (r *repoStub) CancelIfUnpaid(_ context.Context, id uuid.UUID) (int64, error) {
	return r.cancelRows, nil
}

func (r *repoStub) MarkDelivered(_ context.Context, id uuid.UUID) error {
	r.delivered = append(r.delivered, id)
	return nil
}

func (r *repoStub) Update(_ context.Context, order *models.Order) error {
	r.updated = order
	return nil
}

func (r *repoStub) Delete(_ context.Context, id uuid.UUID) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *repoStub) List(_ context.Context, params ListParams) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

type txStub struct{}

func (txStub) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type menuStub struct {
	items []models.MenuItem
	err   error
}

func (m *menuStub) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	return m.items, m.err
}

type settingsStub struct {
	charge decimal.Decimal
}

func (s *settingsStub) Get(_ context.Context) (*models.Setting, error) {
	return &models.Setting{ID: models.SettingRowID, OutletName: "Comanda", DeliveryCharge: s.charge}, nil
}

type paymentsStub struct {
	intent   *pkgstripe.Intent
	err      error
	metadata map[string]string
	amount   decimal.Decimal
}

func (p *paymentsStub) CreateIntent(_ context.Context, amount decimal.Decimal, metadata map[string]string) (*pkgstripe.Intent, error) {
	p.amount = amount
	p.metadata = metadata
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

func (p *paymentsStub) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return stripe.Event{}, errors.New("not implemented")
}

type notifierStub struct {
	created   int
	succeeded int
	failed    int
	cancelled []notifications.CancelActor
	err       error
}

func (n *notifierStub) OrderCreated(context.Context, *models.Order) error {
	n.created++
	return n.err
}

func (n *notifierStub) PaymentSucceeded(context.Context, *models.Order) error {
	n.succeeded++
	return n.err
}

func (n *notifierStub) PaymentFailed(context.Context, *models.Order) error {
	n.failed++
	return n.err
}

func (n *notifierStub) OrderCancelled(_ context.Context, _ *models.Order, actor notifications.CancelActor) error {
	n.cancelled = append(n.cancelled, actor)
	return n.err
}

func (n *notifierStub) ContactMessage(context.Context, notifications.ContactInput) error {
	return n.err
}

type fixture struct {
	repo     *repoStub
	menu     *menuStub
	payments *paymentsStub
	notifier *notifierStub
	svc      Service
}

func newFixture(t *testing.T, withPayments bool) *fixture {
	t.Helper()

	burgerID := uuid.New()
	friesID := uuid.New()
	repo := newRepoStub()
	menu := &menuStub{items: []models.MenuItem{
		{ID: burgerID, Name: "Burger", Price: decimal.RequireFromString("8.50"), Available: true},
		{ID: friesID, Name: "Fries", Price: decimal.RequireFromString("3.25"), Available: true},
	}}
	payments := &paymentsStub{intent: &pkgstripe.Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}}
	notifier := &notifierStub{}

	var pc pkgstripe.PaymentsClient
	if withPayments {
		pc = payments
	}
	svc, err := NewService(repo, txStub{}, menu, &settingsStub{charge: decimal.RequireFromString("2.00")}, pc, notifier, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{repo: repo, menu: menu, payments: payments, notifier: notifier, svc: svc}
}

func (f *fixture) cartInput(method enums.PaymentMethod) CreateInput {
	return CreateInput{
		CustomerName:  "Dana",
		CustomerEmail: "dana@example.com",
		CustomerPhone: "+15550001111",
		OrderType:     enums.OrderTypeHomeDelivery,
		AddressLine:   "12 Main St",
		City:          "Springfield",
		PaymentMethod: method,
		Items: []CreateItemInput{
			{MenuItemID: f.menu.items[0].ID, Quantity: 2},
			{MenuItemID: f.menu.items[1].ID, Quantity: 1},
		},
	}
}

var codePattern = regexp.MustCompile(`^\d{6}$`)

func TestCreateCashOrder(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.svc.Create(context.Background(), f.cartInput(enums.PaymentMethodCash))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	order := result.Order
	if !codePattern.MatchString(order.DeliveryCode) {
		t.Fatalf("delivery code %q is not 6 digits", order.DeliveryCode)
	}
	// 2 x 8.50 + 1 x 3.25 = 20.25, plus 2.00 delivery.
	if got := order.Subtotal.StringFixed(2); got != "20.25" {
		t.Fatalf("subtotal = %s, want 20.25", got)
	}
	if got := order.TotalAmount.StringFixed(2); got != "22.25" {
		t.Fatalf("total = %s, want 22.25", got)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("new order should be pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if result.ClientSecret != "" {
		t.Fatal("cash orders must not return a client secret")
	}
	if f.notifier.created != 1 {
		t.Fatalf("order-created notifications = %d, want 1", f.notifier.created)
	}
}

func TestCreatePickupSkipsDeliveryCharge(t *testing.T) {
	f := newFixture(t, false)
	input := f.cartInput(enums.PaymentMethodCash)
	input.OrderType = enums.OrderTypePickup
	input.AddressLine = ""
	input.City = ""

	result, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !result.Order.DeliveryCharge.IsZero() {
		t.Fatalf("pickup order has delivery charge %s", result.Order.DeliveryCharge)
	}
}

func TestCreateOnlineOrder(t *testing.T) {
	f := newFixture(t, true)

	result, err := f.svc.Create(context.Background(), f.cartInput(enums.PaymentMethodOnline))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result.ClientSecret != "pi_123_secret" {
		t.Fatalf("client secret = %q", result.ClientSecret)
	}
	if got := f.payments.amount.StringFixed(2); got != "22.25" {
		t.Fatalf("intent amount = %s, want 22.25", got)
	}
	if f.payments.metadata["order_id"] != result.Order.ID.String() {
		t.Fatal("intent metadata missing order id")
	}
	if f.payments.metadata["customer_email"] != "dana@example.com" {
		t.Fatal("intent metadata missing customer email")
	}
	if f.repo.intentSet[result.Order.ID] != "pi_123" {
		t.Fatal("intent id was not persisted")
	}
	if f.notifier.created != 0 {
		t.Fatal("online orders email on payment success, not at creation")
	}
}

func TestCreateOnlineIntentFailureCancelsOrder(t *testing.T) {
	f := newFixture(t, true)
	f.payments.err = errors.New("gateway down")

	_, err := f.svc.Create(context.Background(), f.cartInput(enums.PaymentMethodOnline))
	if err == nil {
		t.Fatal("expected error when intent creation fails")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected Dependency error, got %v", err)
	}
	if f.repo.created == nil {
		t.Fatal("order should have been persisted before the intent attempt")
	}
	if len(f.repo.failed) != 1 {
		t.Fatalf("order was not marked failed, calls = %d", len(f.repo.failed))
	}
}

func TestCreateOnlineWithoutPaymentsClient(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Create(context.Background(), f.cartInput(enums.PaymentMethodOnline))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected Dependency error, got %v", err)
	}
	if f.repo.created != nil {
		t.Fatal("no order should be persisted when online payments are unavailable")
	}
}

func TestCreateUnknownMenuItem(t *testing.T) {
	f := newFixture(t, false)
	input := f.cartInput(enums.PaymentMethodCash)
	input.Items = append(input.Items, CreateItemInput{MenuItemID: uuid.New(), Quantity: 1})

	_, err := f.svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if f.repo.created != nil {
		t.Fatal("no partial order may be persisted")
	}
}

func TestCreateEmptyCart(t *testing.T) {
	f := newFixture(t, false)
	input := f.cartInput(enums.PaymentMethodCash)
	input.Items = nil

	_, err := f.svc.Create(context.Background(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected Validation, got %v", err)
	}
}

func TestReconcileSuccess(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending}
	f.repo.intents["pi_9"] = id
	f.repo.markPaidRows = 1

	if err := f.svc.ReconcilePaymentSuccess(context.Background(), "pi_9"); err != nil {
		t.Fatalf("ReconcilePaymentSuccess: %v", err)
	}
	if f.notifier.succeeded != 1 {
		t.Fatalf("success notifications = %d, want 1", f.notifier.succeeded)
	}
}

func TestReconcileSuccessIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid, Paid: true}
	f.repo.intents["pi_9"] = id
	f.repo.markPaidRows = 0

	if err := f.svc.ReconcilePaymentSuccess(context.Background(), "pi_9"); err != nil {
		t.Fatalf("ReconcilePaymentSuccess: %v", err)
	}
	if f.notifier.succeeded != 0 {
		t.Fatal("redelivered success event must not send a second email")
	}
}

func TestReconcileSuccessOnCancelledOrderSkipsEmail(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusCancelled, PaymentStatus: enums.PaymentStatusFailed}
	f.repo.intents["pi_9"] = id
	f.repo.markPaidRows = 1

	if err := f.svc.ReconcilePaymentSuccess(context.Background(), "pi_9"); err != nil {
		t.Fatalf("ReconcilePaymentSuccess: %v", err)
	}
	if f.notifier.succeeded != 0 {
		t.Fatal("a cancelled order must not get a confirmation email")
	}
}

func TestReconcileUnknownIntentIgnored(t *testing.T) {
	f := newFixture(t, false)
	if err := f.svc.ReconcilePaymentSuccess(context.Background(), "pi_missing"); err != nil {
		t.Fatalf("unknown intent should be ignored, got %v", err)
	}
}

func TestReconcileFailure(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending}
	f.repo.intents["pi_9"] = id
	f.repo.markFailedRows = 1

	if err := f.svc.ReconcilePaymentFailure(context.Background(), "pi_9"); err != nil {
		t.Fatalf("ReconcilePaymentFailure: %v", err)
	}
	if f.notifier.failed != 1 {
		t.Fatalf("failure notifications = %d, want 1", f.notifier.failed)
	}
}

func TestCancelByCustomer(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321", Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending}
	f.repo.cancelRows = 1

	order, err := f.svc.CancelByCustomer(context.Background(), id, "654321")
	if err != nil {
		t.Fatalf("CancelByCustomer: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s, want cancelled", order.Status)
	}
	if order.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", order.PaymentStatus)
	}
	if order.Paid {
		t.Fatal("cancelled order must not stay paid")
	}
	if len(f.notifier.cancelled) != 1 || f.notifier.cancelled[0] != notifications.CancelActorCustomer {
		t.Fatalf("cancellation notifications = %v", f.notifier.cancelled)
	}
}

func TestCancelWrongCode(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321"}

	_, err := f.svc.CancelByCustomer(context.Background(), id, "000000")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestCancelPaidOrder(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321", Paid: true, PaymentStatus: enums.PaymentStatusPaid, Status: enums.OrderStatusConfirmed}

	_, err := f.svc.CancelByCustomer(context.Background(), id, "654321")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestCancelLosesRaceToSuccessWebhook(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321", Status: enums.OrderStatusPending}
	f.repo.cancelRows = 0 // success webhook landed between read and update

	_, err := f.svc.CancelByCustomer(context.Background(), id, "654321")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestCancelMissingOrder(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.CancelByCustomer(context.Background(), uuid.New(), "654321")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestConfirmDelivery(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321", Status: enums.OrderStatusConfirmed}

	order, err := f.svc.ConfirmDelivery(context.Background(), id, "654321")
	if err != nil {
		t.Fatalf("ConfirmDelivery: %v", err)
	}
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered", order.Status)
	}
}

func TestConfirmDeliveryOnCancelledOrder(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, DeliveryCode: "654321", Status: enums.OrderStatusCancelled}

	_, err := f.svc.ConfirmDelivery(context.Background(), id, "654321")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected StateConflict, got %v", err)
	}
}

func TestUpdateByStaffCancellationSendsEmail(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusPending}

	cancelled := enums.OrderStatusCancelled
	order, err := f.svc.UpdateByStaff(context.Background(), id, StaffPatch{Status: &cancelled})
	if err != nil {
		t.Fatalf("UpdateByStaff: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %s", order.Status)
	}
	if len(f.notifier.cancelled) != 1 || f.notifier.cancelled[0] != notifications.CancelActorStaff {
		t.Fatalf("staff cancellation notification missing: %v", f.notifier.cancelled)
	}
}

func TestUpdateByStaffPaidImpliesNotPending(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusPending, PaymentStatus: enums.PaymentStatusPending}

	paid := enums.PaymentStatusPaid
	order, err := f.svc.UpdateByStaff(context.Background(), id, StaffPatch{PaymentStatus: &paid})
	if err != nil {
		t.Fatalf("UpdateByStaff: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("paid order left %s, want confirmed", order.Status)
	}
	if !order.Paid {
		t.Fatal("paid flag should follow payment status")
	}
}

func TestUpdateByStaffTerminalState(t *testing.T) {
	f := newFixture(t, false)
	id := uuid.New()
	f.repo.orders[id] = &models.Order{ID: id, Status: enums.OrderStatusDelivered}

	pending := enums.OrderStatusPending
	_, err := f.svc.UpdateByStaff(context.Background(), id, StaffPatch{Status: &pending})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected StateConflict, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t, false)
	f.notifier.err = errors.New("smtp down")

	if _, err := f.svc.Create(context.Background(), f.cartInput(enums.PaymentMethodCash)); err != nil {
		t.Fatalf("Create should succeed despite notification failure: %v", err)
	}
}

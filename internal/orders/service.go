package orders

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/internal/notifications"
	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
	"github.com/avelarde/comanda-backend/pkg/pagination"
	pkgstripe "github.com/avelarde/comanda-backend/pkg/stripe"
)

// Service drives the order lifecycle: creation, payment reconciliation,
// customer self-service and staff management.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	ReconcilePaymentSuccess(ctx context.Context, intentID string) error
	ReconcilePaymentFailure(ctx context.Context, intentID string) error
	CancelByCustomer(ctx context.Context, orderID uuid.UUID, code string) (*models.Order, error)
	ConfirmDelivery(ctx context.Context, orderID uuid.UUID, code string) (*models.Order, error)
	UpdateByStaff(ctx context.Context, orderID uuid.UUID, patch StaffPatch) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	menu     menuReader
	settings settingsReader
	payments pkgstripe.PaymentsClient
	notifier notifications.Service
	logg     *logger.Logger
}

// NewService wires the order lifecycle manager. The payments client may be
// nil, which rejects online orders but keeps cash flows working.
func NewService(
	repo Repository,
	tx txRunner,
	menu menuReader,
	settings settingsReader,
	payments pkgstripe.PaymentsClient,
	notifier notifications.Service,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu reader required")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification service required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		menu:     menu,
		settings: settings,
		payments: payments,
		notifier: notifier,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	if input.PaymentMethod == enums.PaymentMethodOnline && s.payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments not configured")
	}

	items, subtotal, err := s.buildLineItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	deliveryCharge := decimal.Zero
	if input.OrderType == enums.OrderTypeHomeDelivery {
		setting, err := s.settings.Get(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load outlet settings")
		}
		deliveryCharge = setting.DeliveryCharge
	}

	code, err := newDeliveryCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint delivery code")
	}

	order := &models.Order{
		CustomerName:   input.CustomerName,
		CustomerEmail:  input.CustomerEmail,
		CustomerPhone:  input.CustomerPhone,
		OrderType:      input.OrderType,
		AddressLine:    input.AddressLine,
		City:           input.City,
		PostalCode:     input.PostalCode,
		PickupTime:     input.PickupTime,
		DeliveryCode:   code,
		Subtotal:       subtotal,
		DeliveryCharge: deliveryCharge,
		TotalAmount:    subtotal.Add(deliveryCharge),
		Status:         enums.OrderStatusPending,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  enums.PaymentStatusPending,
		Items:          items,
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, order)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	ctx = s.withOrderID(ctx, order.ID)

	result := &CreateResult{Order: order}
	if input.PaymentMethod == enums.PaymentMethodOnline {
		secret, err := s.createIntent(ctx, order)
		if err != nil {
			return nil, err
		}
		result.ClientSecret = secret
	}

	// Online orders confirm by email only once the payment succeeds; the
	// order-created email is the cash-path acknowledgement.
	if input.PaymentMethod == enums.PaymentMethodCash {
		s.notify(ctx, "order created", func() error {
			return s.notifier.OrderCreated(ctx, order)
		})
	}

	return result, nil
}

// createIntent reaches out to the gateway after the order row exists. An
// exhausted retry budget cancels the order so it is never left ambiguously
// pending with no way to pay it.
func (s *service) createIntent(ctx context.Context, order *models.Order) (string, error) {
	intent, err := s.payments.CreateIntent(ctx, order.TotalAmount, map[string]string{
		"order_id":       order.ID.String(),
		"customer_email": order.CustomerEmail,
	})
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, order.ID); markErr != nil && s.logg != nil {
			s.logg.Error(ctx, "mark order failed after intent error", markErr)
		}
		order.Status = enums.OrderStatusCancelled
		order.PaymentStatus = enums.PaymentStatusFailed
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.repo.SetIntentID(ctx, order.ID, intent.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment intent id")
	}
	order.PaymentIntentID = &intent.ID
	return intent.ClientSecret, nil
}

func (s *service) ReconcilePaymentSuccess(ctx context.Context, intentID string) error {
	order, err := s.findByIntent(ctx, intentID)
	if err != nil || order == nil {
		return err
	}
	ctx = s.withOrderID(ctx, order.ID)

	rows, err := s.repo.MarkPaid(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if rows == 0 {
		// Already paid: redelivered event, nothing to do and no second email.
		return nil
	}

	order.Paid = true
	order.PaymentStatus = enums.PaymentStatusPaid
	if order.Status == enums.OrderStatusPending {
		order.Status = enums.OrderStatusConfirmed
	}

	if order.Status == enums.OrderStatusCancelled {
		// The charge landed after a cancellation. The money is real, so the
		// paid flags stand, but the refund is a staff follow-up and the
		// customer must not be told the order is being prepared.
		if s.logg != nil {
			s.logg.Warn(ctx, "payment succeeded for cancelled order, skipping confirmation email")
		}
		return nil
	}

	s.notify(ctx, "payment succeeded", func() error {
		return s.notifier.PaymentSucceeded(ctx, order)
	})
	return nil
}

func (s *service) ReconcilePaymentFailure(ctx context.Context, intentID string) error {
	order, err := s.findByIntent(ctx, intentID)
	if err != nil || order == nil {
		return err
	}
	ctx = s.withOrderID(ctx, order.ID)

	rows, err := s.repo.MarkFailed(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order failed")
	}
	if rows == 0 {
		return nil
	}

	order.Paid = false
	order.PaymentStatus = enums.PaymentStatusFailed
	order.Status = enums.OrderStatusCancelled

	s.notify(ctx, "payment failed", func() error {
		return s.notifier.PaymentFailed(ctx, order)
	})
	return nil
}

func (s *service) CancelByCustomer(ctx context.Context, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.loadWithCode(ctx, orderID, code)
	if err != nil {
		return nil, err
	}
	ctx = s.withOrderID(ctx, order.ID)

	if order.Status == enums.OrderStatusCancelled {
		return order, nil
	}
	if order.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "paid orders cannot be cancelled")
	}
	if order.Status == enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivered orders cannot be cancelled")
	}

	rows, err := s.repo.CancelIfUnpaid(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if rows == 0 {
		// A success webhook landed between the read and the update.
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "paid orders cannot be cancelled")
	}
	order.Status = enums.OrderStatusCancelled
	order.PaymentStatus = enums.PaymentStatusFailed
	order.Paid = false

	s.notify(ctx, "customer cancelled", func() error {
		return s.notifier.OrderCancelled(ctx, order, notifications.CancelActorCustomer)
	})
	return order, nil
}

func (s *service) ConfirmDelivery(ctx context.Context, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.loadWithCode(ctx, orderID, code)
	if err != nil {
		return nil, err
	}
	ctx = s.withOrderID(ctx, order.ID)

	if order.Status == enums.OrderStatusDelivered {
		return order, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be delivered")
	}

	if err := s.repo.MarkDelivered(ctx, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
	}
	order.Status = enums.OrderStatusDelivered
	return order, nil
}

func (s *service) UpdateByStaff(ctx context.Context, orderID uuid.UUID, patch StaffPatch) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.withOrderID(ctx, order.ID)

	wasCancelled := order.Status == enums.OrderStatusCancelled

	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		if order.Status.IsTerminal() && *patch.Status != order.Status {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state")
		}
		order.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		if !patch.PaymentStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
		}
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Paid != nil {
		order.Paid = *patch.Paid
	}
	if patch.CustomerName != nil {
		order.CustomerName = *patch.CustomerName
	}
	if patch.CustomerPhone != nil {
		order.CustomerPhone = *patch.CustomerPhone
	}

	// Paid orders are never left pending.
	if order.PaymentStatus == enums.PaymentStatusPaid {
		order.Paid = true
		if order.Status == enums.OrderStatusPending {
			order.Status = enums.OrderStatusConfirmed
		}
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, order)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}

	if !wasCancelled && order.Status == enums.OrderStatusCancelled {
		s.notify(ctx, "staff cancelled", func() error {
			return s.notifier.OrderCancelled(ctx, order, notifications.CancelActorStaff)
		})
	}
	return order, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.load(ctx, orderID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.load(ctx, orderID)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	params.Limit = pagination.LimitWithBuffer(params.Limit)

	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &ListResult{Orders: rows}
	if len(rows) > limit {
		result.Orders = rows[:limit]
		last := result.Orders[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) buildLineItems(ctx context.Context, inputs []CreateItemInput) ([]models.OrderLineItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	seen := map[uuid.UUID]bool{}
	for _, in := range inputs {
		if !seen[in.MenuItemID] {
			seen[in.MenuItemID] = true
			ids = append(ids, in.MenuItemID)
		}
	}

	menuItems, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve menu items")
	}
	byID := make(map[uuid.UUID]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		byID[mi.ID] = mi
	}

	subtotal := decimal.Zero
	items := make([]models.OrderLineItem, 0, len(inputs))
	for _, in := range inputs {
		mi, ok := byID[in.MenuItemID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found").
				WithDetails(map[string]any{"menu_item_id": in.MenuItemID})
		}
		if !mi.Available {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "menu item unavailable").
				WithDetails(map[string]any{"menu_item_id": in.MenuItemID})
		}

		menuItemID := mi.ID
		items = append(items, models.OrderLineItem{
			MenuItemID: &menuItemID,
			Name:       mi.Name,
			UnitPrice:  mi.Price,
			Quantity:   in.Quantity,
			ImageURL:   mi.ImageURL,
		})
		subtotal = subtotal.Add(mi.Price.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}
	return items, subtotal, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadWithCode(ctx context.Context, orderID uuid.UUID, code string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(order.DeliveryCode), []byte(code)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid delivery code")
	}
	return order, nil
}

func (s *service) findByIntent(ctx context.Context, intentID string) (*models.Order, error) {
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	order, err := s.repo.FindByIntentID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.logg != nil {
				ctx = s.logg.WithField(ctx, "intent_id", intentID)
				s.logg.Warn(ctx, "payment event for unknown intent ignored")
			}
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by intent")
	}
	return order, nil
}

// notify runs a best-effort email dispatch; failures are logged, never
// returned to the caller.
func (s *service) notify(ctx context.Context, what string, fn func() error) {
	if err := fn(); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "notification", what)
		s.logg.Warn(ctx, fmt.Sprintf("notification failed: %v", err))
	}
}

func (s *service) withOrderID(ctx context.Context, id uuid.UUID) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithOrderID(ctx, id.String())
}

func validateCreateInput(input CreateInput) error {
	details := map[string]string{}
	if input.CustomerName == "" {
		details["customer_name"] = "is required"
	}
	if input.CustomerEmail == "" {
		details["customer_email"] = "is required"
	}
	if input.CustomerPhone == "" {
		details["customer_phone"] = "is required"
	}
	if !input.OrderType.IsValid() {
		details["order_type"] = "is invalid"
	}
	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "is invalid"
	}
	if len(input.Items) == 0 {
		details["items"] = "must not be empty"
	}
	for _, item := range input.Items {
		if item.MenuItemID == uuid.Nil {
			details["items"] = "menu item id is required"
		}
		if item.Quantity <= 0 {
			details["items"] = "quantity must be positive"
		}
	}
	if input.OrderType == enums.OrderTypeHomeDelivery {
		if input.AddressLine == "" {
			details["address_line"] = "is required for home delivery"
		}
		if input.City == "" {
			details["city"] = "is required for home delivery"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
)

// Repository is the persistence surface of the order lifecycle. The Mark*
// methods are conditional single-statement updates and report rows affected
// so callers can tell a no-op from a transition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, params ListParams) ([]models.Order, error)

	SetIntentID(ctx context.Context, id uuid.UUID, intentID string) error
	MarkPaid(ctx context.Context, id uuid.UUID) (int64, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (int64, error)
	CancelIfUnpaid(ctx context.Context, id uuid.UUID) (int64, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// menuReader resolves catalog items server-side so client-sent prices are
// never trusted.
type menuReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
}

// settingsReader re-reads the outlet singleton per request.
type settingsReader interface {
	Get(ctx context.Context) (*models.Setting, error)
}

package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
)

// Repository reads and writes the singleton outlet row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.Setting, error)
	Save(ctx context.Context, setting *models.Setting) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).
		Where("id = ?", models.SettingRowID).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) Save(ctx context.Context, setting *models.Setting) error {
	setting.ID = models.SettingRowID
	return r.db.WithContext(ctx).Save(setting).Error
}

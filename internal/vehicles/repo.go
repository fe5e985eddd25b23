package vehicles

import (
	"context"

	"github.com/autoaudit/autoaudit-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository handles vehicle persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error)
	FindOwned(ctx context.Context, userID, vehicleID uuid.UUID) (*models.Vehicle, error)
	Delete(ctx context.Context, vehicleID uuid.UUID) error
	CountInvoices(ctx context.Context, vehicleID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vehicle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *repository) FindOwned(ctx context.Context, userID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", vehicleID, userID).
		First(&vehicle).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *repository) Delete(ctx context.Context, vehicleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", vehicleID).
		Delete(&models.Vehicle{}).Error
}

func (r *repository) CountInvoices(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("vehicle_id = ?", vehicleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

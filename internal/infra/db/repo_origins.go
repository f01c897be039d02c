package db

import (
	"context"
	"errors"

	"github.com/chive-pub/chive-sub016/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OriginRepository struct {
	db *gorm.DB
}

func NewOriginRepository(db *gorm.DB) *OriginRepository {
	return &OriginRepository{db: db}
}

func (r *OriginRepository) GetByEndpoint(ctx context.Context, endpoint string) (*domain.OriginServer, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model OriginServerModel
	err := r.db.WithContext(ctx).First(&model, "endpoint = ?", domain.NormalizeEndpoint(endpoint)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return originFromModel(model), nil
}

// Create inserts the origin, or refreshes status and reason when a concurrent
// registration already landed the same endpoint. Last writer wins; the row is
// a cache of origin state, so no lock is needed for convergence.
func (r *OriginRepository) Create(ctx context.Context, origin domain.OriginServer) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if origin.ID == "" {
		origin.ID = uuid.NewString()
	}
	model := OriginServerModel{
		ID:                 origin.ID,
		Endpoint:           domain.NormalizeEndpoint(origin.Endpoint),
		Status:             string(origin.Status),
		RegistrationReason: origin.RegistrationReason,
		RegisteredAt:       origin.RegisteredAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "registration_reason"}),
	}).Create(&model).Error
}

func (r *OriginRepository) UpdateStatus(ctx context.Context, endpoint string, status domain.OriginStatus) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).Model(&OriginServerModel{}).
		Where("endpoint = ?", domain.NormalizeEndpoint(endpoint)).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OriginRepository) List(ctx context.Context) ([]domain.OriginServer, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []OriginServerModel
	if err := r.db.WithContext(ctx).Order("registered_at").Find(&models).Error; err != nil {
		return nil, err
	}
	origins := make([]domain.OriginServer, 0, len(models))
	for _, model := range models {
		origins = append(origins, *originFromModel(model))
	}
	return origins, nil
}

func originFromModel(model OriginServerModel) *domain.OriginServer {
	return &domain.OriginServer{
		ID:                 model.ID,
		Endpoint:           model.Endpoint,
		Status:             domain.OriginStatus(model.Status),
		RegistrationReason: model.RegistrationReason,
		RegisteredAt:       model.RegisteredAt,
	}
}

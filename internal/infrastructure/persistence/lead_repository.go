package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// leadSortFields contains allowed sort fields for leads
var leadSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"email":      true,
	"source":     true,
	"status":     true,
}

// GormLeadRepository implements lead.Repository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GormLeadRepository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// FindByID finds a lead by its ID
func (r *GormLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	var model models.LeadModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending finds leads in the NEW state, oldest first, bounded by limit
func (r *GormLeadRepository) FindPending(ctx context.Context, limit int) ([]lead.Lead, error) {
	var leadModels []models.LeadModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", lead.LeadStatusNew).
		Order("created_at ASC").
		Limit(limit).
		Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]lead.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// FindAll finds all leads matching the filter
func (r *GormLeadRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lead.Lead, error) {
	var leadModels []models.LeadModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LeadModel{}), filter)

	if err := query.Find(&leadModels).Error; err != nil {
		return nil, err
	}

	leads := make([]lead.Lead, len(leadModels))
	for i, model := range leadModels {
		leads[i] = *model.ToDomain()
	}
	return leads, nil
}

// Save creates or updates a lead
func (r *GormLeadRepository) Save(ctx context.Context, l *lead.Lead) error {
	var model models.LeadModel
	model.FromDomain(l)
	return r.db.WithContext(ctx).Save(&model).Error
}

// MarkTransferred transitions a lead to TRANSFERRED by ID. The write is
// idempotent: a lead already out of the NEW state is left untouched and
// no error is reported.
func (r *GormLeadRepository) MarkTransferred(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.LeadModel{}).
		Where("id = ? AND status = ?", id, lead.LeadStatusNew).
		Update("status", lead.LeadStatusTransferred)
	return result.Error
}

// Count counts leads matching the filter
func (r *GormLeadRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.LeadModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormLeadRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	orderBy := ValidateSortField(filter.OrderBy, leadSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormLeadRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "source":
			query = query.Where("source = ?", value)
		case "email":
			if s, ok := value.(string); ok {
				query = query.Where("email = ?", strings.ToLower(s))
			}
		case "state":
			query = query.Where("state = ?", value)
		}
	}
	return query
}

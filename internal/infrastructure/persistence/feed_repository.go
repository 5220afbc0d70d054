package persistence

import (
	"context"
	"errors"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// feedSortFields contains allowed sort fields for transfer feeds
var feedSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
	"sort_order": true,
}

// GormFeedRepository implements feed.Repository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// FindByID finds a feed by its ID
func (r *GormFeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*feed.TransferFeed, error) {
	var model models.FeedModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all ACTIVE feeds in listing order. The order is the
// dashboard's configured sort_order; it decides which feed gets the
// first shot at every lead.
func (r *GormFeedRepository) FindActive(ctx context.Context) ([]feed.TransferFeed, error) {
	var feedModels []models.FeedModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", feed.FeedStatusActive).
		Order("sort_order ASC, created_at ASC").
		Find(&feedModels).Error; err != nil {
		return nil, err
	}

	feeds := make([]feed.TransferFeed, len(feedModels))
	for i, model := range feedModels {
		feeds[i] = *model.ToDomain()
	}
	return feeds, nil
}

// FindAll finds all feeds matching the filter
func (r *GormFeedRepository) FindAll(ctx context.Context, filter shared.Filter) ([]feed.TransferFeed, error) {
	var feedModels []models.FeedModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.FeedModel{}), filter)

	if err := query.Find(&feedModels).Error; err != nil {
		return nil, err
	}

	feeds := make([]feed.TransferFeed, len(feedModels))
	for i, model := range feedModels {
		feeds[i] = *model.ToDomain()
	}
	return feeds, nil
}

// Count counts feeds matching the filter
func (r *GormFeedRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.FeedModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormFeedRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	orderBy := ValidateSortField(filter.OrderBy, feedSortFields, "sort_order")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if orderBy == "sort_order" {
		query = query.Order("sort_order ASC, created_at ASC")
	} else {
		query = query.Order(orderBy + " " + orderDir)
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormFeedRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "partner_name":
			query = query.Where("partner_name = ?", value)
		case "payout_type":
			query = query.Where("payout_type = ?", value)
		}
	}
	return query
}

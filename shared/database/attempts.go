package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"astraldraft-backend/shared/database/models/auth"
	"astraldraft-backend/shared/utils/query"
)

// LoginAttemptRepository records the login audit trail.
type LoginAttemptRepository struct {
	db *gorm.DB
}

func NewLoginAttemptRepository(db *gorm.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *auth.LoginAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// ListByEmail returns a page of login attempts for an account, newest first
// unless the caller sorts otherwise.
func (r *LoginAttemptRepository) ListByEmail(ctx context.Context, email string, params query.FilterParams) ([]auth.LoginAttempt, int64, error) {
	allowedFilters := map[string]string{
		"successful": "successful",
	}
	allowedSortFields := map[string]string{
		"created_at": "created_at",
		"successful": "successful",
	}

	dbQuery := r.db.WithContext(ctx).Model(&auth.LoginAttempt{}).Where("email = ?", email)

	// Date range filters use half-open intervals on created_at
	if fromDate, ok := params.Filters["from_date"]; ok {
		if parsed, err := time.Parse("2006-01-02", fromDate); err == nil {
			dbQuery = dbQuery.Where("created_at >= ?", parsed)
		}
	}
	if toDate, ok := params.Filters["to_date"]; ok {
		if parsed, err := time.Parse("2006-01-02", toDate); err == nil {
			dbQuery = dbQuery.Where("created_at < ?", parsed.AddDate(0, 0, 1))
		}
	}

	filtered := make(map[string]string)
	for key, value := range params.Filters {
		if key != "from_date" && key != "to_date" {
			filtered[key] = value
		}
	}
	dbQuery = query.ApplyFilters(dbQuery, filtered, allowedFilters)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []auth.LoginAttempt
	if err := query.ApplyPagination(dbQuery, params.Page, params.Limit).Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

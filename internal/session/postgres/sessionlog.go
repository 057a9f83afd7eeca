package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/rahadianw/dealer-crm/internal/session"
	"gorm.io/gorm"
)

// SessionLogRepository implements the session log store over GORM: one row
// per login event, mutated on logout and on the access workflow, never
// deleted.
type SessionLogRepository struct {
	db *gorm.DB
}

func NewSessionLogRepository(db *gorm.DB) *SessionLogRepository {
	return &SessionLogRepository{db: db}
}

func (r *SessionLogRepository) Insert(ctx context.Context, record *session.SessionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *SessionLogRepository) ActiveForDay(ctx context.Context, username, day string) (*session.SessionRecord, error) {
	var record session.SessionRecord
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND login_date = ? AND logout_time IS NULL", username, day).
		Order("login_time DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SessionLogRepository) LatestForDay(ctx context.Context, username, day string) (*session.SessionRecord, error) {
	var record session.SessionRecord
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND login_date = ?", username, day).
		Order("login_time DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *SessionLogRepository) EarliestLoginForDay(ctx context.Context, username, day string) (*time.Time, error) {
	var record session.SessionRecord
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND login_date = ?", username, day).
		Order("login_time ASC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrRecordNotFound
		}
		return nil, err
	}
	return &record.LoginTime, nil
}

func (r *SessionLogRepository) CloseLatestOpen(ctx context.Context, username, day string, at time.Time) error {
	open, err := r.ActiveForDay(ctx, username, day)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&session.SessionRecord{}).
		Where("id = ?", open.ID).
		Update("logout_time", at).Error
}

func (r *SessionLogRepository) MarkAccessRequested(ctx context.Context, username, day string, at time.Time) error {
	latest, err := r.LatestForDay(ctx, username, day)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&session.SessionRecord{}).
		Where("id = ?", latest.ID).
		Updates(map[string]interface{}{
			"access_requested": true,
			"request_time":     at,
		}).Error
}

// GrantAccess re-opens the day's latest record: logout_time is cleared so
// one fresh login is possible, the request flag is consumed and the grant
// is stamped.
func (r *SessionLogRepository) GrantAccess(ctx context.Context, username, day string, at time.Time) error {
	latest, err := r.LatestForDay(ctx, username, day)
	if err != nil {
		return err
	}
	if !latest.AccessRequested {
		return session.ErrNoPendingRequest
	}

	return r.db.WithContext(ctx).Model(&session.SessionRecord{}).
		Where("id = ?", latest.ID).
		Updates(map[string]interface{}{
			"logout_time":      nil,
			"access_requested": false,
			"access_granted":   true,
			"grant_time":       at,
		}).Error
}

func (r *SessionLogRepository) RejectAccess(ctx context.Context, username, day string) error {
	latest, err := r.LatestForDay(ctx, username, day)
	if err != nil {
		return err
	}
	if !latest.AccessRequested {
		return session.ErrNoPendingRequest
	}

	return r.db.WithContext(ctx).Model(&session.SessionRecord{}).
		Where("id = ?", latest.ID).
		Update("access_requested", false).Error
}

// List serves the administrative review screen: date range plus username
// substring, newest first.
func (r *SessionLogRepository) List(ctx context.Context, filter session.LogFilterDTO) ([]*session.SessionRecord, error) {
	q := r.db.WithContext(ctx).Model(&session.SessionRecord{})

	if filter.Username != "" {
		q = q.Where("user_name LIKE ?", "%"+filter.Username+"%")
	}
	if filter.FromDate != "" {
		q = q.Where("login_date >= ?", filter.FromDate)
	}
	if filter.ToDate != "" {
		q = q.Where("login_date <= ?", filter.ToDate)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var records []*session.SessionRecord
	err := q.Order("login_date DESC").Order("login_time DESC").Find(&records).Error
	return records, err
}

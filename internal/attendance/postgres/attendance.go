package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rahadianw/dealer-crm/internal/attendance"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) Insert(ctx context.Context, log *attendance.AttendanceLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *AttendanceRepository) OpenForDay(ctx context.Context, username, day string) (*attendance.AttendanceLog, error) {
	var log attendance.AttendanceLog
	err := r.db.WithContext(ctx).
		Where("user_name = ? AND day = ? AND punch_out_time IS NULL", username, day).
		Order("punch_in_time DESC").
		First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, err
	}
	return &log, nil
}

func (r *AttendanceRepository) ClosePunch(ctx context.Context, id int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&attendance.AttendanceLog{}).
		Where("id = ? AND punch_out_time IS NULL", id).
		Update("punch_out_time", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

func (r *AttendanceRepository) List(ctx context.Context, filter attendance.ListFilterDTO) ([]*attendance.AttendanceLog, error) {
	query := r.db.WithContext(ctx).Model(&attendance.AttendanceLog{})

	if filter.Username != "" {
		query = query.Where("user_name = ?", filter.Username)
	}
	if filter.FromDay != "" {
		query = query.Where("day >= ?", filter.FromDay)
	}
	if filter.ToDay != "" {
		query = query.Where("day <= ?", filter.ToDay)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var logs []*attendance.AttendanceLog
	err := query.Order("day DESC, punch_in_time DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

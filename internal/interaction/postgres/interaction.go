package postgres

import (
	"context"
	"errors"

	"github.com/rahadianw/dealer-crm/internal/interaction"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HistoryRepository implements the insert-only interaction history table.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Insert(ctx context.Context, record *interaction.InteractionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *HistoryRepository) ListByDealer(ctx context.Context, dealerCode string, limit, offset int) ([]*interaction.InteractionRecord, error) {
	var records []*interaction.InteractionRecord
	err := r.db.WithContext(ctx).
		Where("dealer_code = ?", dealerCode).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, err
}

// SummaryRepository implements the overwrite-in-place dealer summary table.
type SummaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert overwrites the dealer's current-state row, inserting it on first
// contact.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *interaction.DealerSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dealer_code"}},
			UpdateAll: true,
		}).
		Create(summary).Error
}

func (r *SummaryRepository) GetByDealerCode(ctx context.Context, dealerCode string) (*interaction.DealerSummary, error) {
	var summary interaction.DealerSummary
	err := r.db.WithContext(ctx).
		Where("dealer_code = ?", dealerCode).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interaction.ErrSummaryNotFound
		}
		return nil, err
	}
	return &summary, nil
}

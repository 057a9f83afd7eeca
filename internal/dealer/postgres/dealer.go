package postgres

import (
	"context"
	"errors"

	"github.com/rahadianw/dealer-crm/internal/dealer"
	"gorm.io/gorm"
)

type DealerRepository struct {
	db *gorm.DB
}

func NewDealerRepository(db *gorm.DB) *DealerRepository {
	return &DealerRepository{db: db}
}

func (r *DealerRepository) Create(ctx context.Context, d *dealer.Dealer) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DealerRepository) GetByCode(ctx context.Context, dealerCode string) (*dealer.Dealer, error) {
	var d dealer.Dealer
	err := r.db.WithContext(ctx).
		Where("dealer_code = ?", dealerCode).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dealer.ErrDealerNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DealerRepository) ListBySalesPerson(ctx context.Context, salesPerson string, limit, offset int) ([]*dealer.Dealer, error) {
	var dealers []*dealer.Dealer
	err := r.db.WithContext(ctx).
		Where("sales_person_name = ?", salesPerson).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dealers).Error
	return dealers, err
}

func (r *DealerRepository) ListAll(ctx context.Context, limit, offset int) ([]*dealer.Dealer, error) {
	var dealers []*dealer.Dealer
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dealers).Error
	return dealers, err
}

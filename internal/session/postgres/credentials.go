package postgres

import (
	"context"
	"errors"

	"github.com/rahadianw/dealer-crm/internal/session"
	"gorm.io/gorm"
)

// CredentialRepository implements the credential store lookup over GORM.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*session.UserAccount, error) {
	var account session.UserAccount
	err := r.db.WithContext(ctx).
		Where("user_name = ?", username).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}

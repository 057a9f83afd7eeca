package dealer

import (
	"errors"
	"time"
)

// Dealer is a registered counterparty in the pipeline. The dealer code is
// the stable key the interaction history and summary tables hang off.
type Dealer struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	DealerCode      string    `json:"dealer_code" gorm:"column:dealer_code;uniqueIndex;not null"`
	DealerName      string    `json:"dealer_name" gorm:"column:dealer_name;not null"`
	EntityType      string    `json:"entity_type" gorm:"column:entity_type"`
	Area            string    `json:"area" gorm:"column:area"`
	Phone           string    `json:"phone" gorm:"column:phone"`
	Address         string    `json:"address" gorm:"column:address"`
	SalesPersonName string    `json:"sales_person_name" gorm:"column:sales_person_name;index"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Dealer) TableName() string {
	return "dealers"
}

var (
	ErrDealerNotFound = errors.New("dealer not found")
	ErrDealerExists   = errors.New("dealer code already registered")
)

package dealer

import "errors"

// RegisterDealerDTO is the dealer registration payload. DealerCode is
// optional; a short unique code is generated when absent.
type RegisterDealerDTO struct {
	DealerCode string `json:"dealer_code"`
	DealerName string `json:"dealer_name"`
	EntityType string `json:"entity_type"`
	Area       string `json:"area"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

func (d RegisterDealerDTO) Validate() error {
	if d.DealerName == "" {
		return errors.New("dealer_name is required")
	}
	if len(d.DealerName) > 200 {
		return errors.New("dealer_name must be less than 200 characters")
	}
	return nil
}

package interaction

// RecordInteractionDTO is the form snapshot submitted when recording a
// dealer interaction. Which fields are consulted depends entirely on
// (entity_type, stage); see DeriveVisibility.
type RecordInteractionDTO struct {
	DealerCode string `json:"dealer_code"`
	DealerName string `json:"dealer_name"`
	Area       string `json:"area"`
	EntityType string `json:"entity_type"`
	Status     string `json:"status"`
	Stage      string `json:"stage"`

	CustomerFeedback string `json:"customer_feedback"`
	NextAction       string `json:"next_action"`
	NextCallDate     string `json:"next_call_date"`

	OrderQty      string   `json:"order_qty"`
	OrderProducts string   `json:"order_products"`
	ValueOfOrder  *float64 `json:"value_of_order"`

	// Not Interested section.
	NotInterestedReason string `json:"not_interested_reason"`

	// Payment Enquiry section. Result is "Yes" or "No"; the remaining two
	// fields are consulted only when the result is "No".
	PaymentEnquiryResult string `json:"payment_enquiry_result"`
	NextCollectionDate   string `json:"next_collection_date"`
	PaymentEnquiryReason string `json:"payment_enquiry_reason"`
}

// normalizedEntityType defaults an empty entity type to Dealer/Distributor.
func (d RecordInteractionDTO) normalizedEntityType() string {
	if d.EntityType == "" {
		return EntityDealer
	}
	return d.EntityType
}

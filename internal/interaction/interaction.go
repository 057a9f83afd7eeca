package interaction

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entity types are a closed set; each carries its own stage vocabulary.
const (
	EntityDealer = "Dealer/Distributor"
	EntitySite   = "Site/Engineer"
)

// Dealer/Distributor stage vocabulary.
const (
	StageFollowUp         = "Follow-Up"
	StageCall             = "Call"
	StageCallNotPicked    = "Call Not Picked"
	StageIntroductoryCall = "Introductory Call"
	StageFirstVisit       = "First Visit"
	StageOrderReceived    = "Order Received"
	StageOrderNotReceived = "Order Not Received"
	StageNotInterested    = "Not Interested"
	StagePaymentEnquiry   = "Payment Enquiry"
)

// Site/Engineer stage vocabulary.
const (
	SiteStageFollowUp      = "Follow-up"
	SiteStageCall          = "Call"
	SiteStageCallNotPicked = "Call not picked"
	SiteStageOrderClosed   = "Order Closed"
	SiteStageOrderPending  = "Order Pending"
)

var dealerStages = []string{
	StageFollowUp,
	StageCall,
	StageCallNotPicked,
	StageIntroductoryCall,
	StageFirstVisit,
	StageOrderReceived,
	StageOrderNotReceived,
	StageNotInterested,
	StagePaymentEnquiry,
}

var siteStages = []string{
	SiteStageFollowUp,
	SiteStageCall,
	SiteStageCallNotPicked,
	SiteStageOrderClosed,
	SiteStageOrderPending,
}

// StageVocabulary resolves the valid stage set per entity type. Tenants may
// extend the Dealer/Distributor vocabulary through configuration; custom
// stages behave like follow-up variants.
type StageVocabulary struct {
	extraDealerStages []string
}

func NewStageVocabulary(extraDealerStages []string) *StageVocabulary {
	return &StageVocabulary{extraDealerStages: extraDealerStages}
}

func (v *StageVocabulary) StagesFor(entityType string) []string {
	switch entityType {
	case EntitySite:
		out := make([]string, len(siteStages))
		copy(out, siteStages)
		return out
	default:
		out := make([]string, 0, len(dealerStages)+len(v.extraDealerStages))
		out = append(out, dealerStages...)
		out = append(out, v.extraDealerStages...)
		return out
	}
}

func (v *StageVocabulary) IsValidStage(entityType, stage string) bool {
	for _, s := range v.StagesFor(entityType) {
		if strings.EqualFold(s, stage) {
			return true
		}
	}
	return false
}

func (v *StageVocabulary) isCustomStage(stage string) bool {
	for _, s := range v.extraDealerStages {
		if strings.EqualFold(s, stage) {
			return true
		}
	}
	return false
}

// InteractionRecord is one immutable row in the interaction history. History
// rows are insert-only: corrections are appended, never edited in place.
type InteractionRecord struct {
	ID               string    `json:"id" gorm:"primaryKey;size:36"`
	DealerCode       string    `json:"dealer_code" gorm:"column:dealer_code;index;not null"`
	DealerName       string    `json:"dealer_name" gorm:"column:dealer_name"`
	Area             string    `json:"area" gorm:"column:area"`
	EntityType       string    `json:"entity_type" gorm:"column:entity_type;not null"`
	Stage            string    `json:"stage" gorm:"column:stage;not null"`
	Status           string    `json:"status" gorm:"column:status;not null"`
	Remarks          string    `json:"remarks" gorm:"column:remarks"`
	NextAction       string    `json:"next_action" gorm:"column:next_action"`
	NextFollowUpDate string    `json:"next_follow_up_date" gorm:"column:next_follow_up_date"`
	OrderQty         string    `json:"order_qty" gorm:"column:order_qty"`
	OrderProducts    string    `json:"order_products" gorm:"column:order_products"`
	ValueOfOrder     *float64  `json:"value_of_order,omitempty" gorm:"column:value_of_order"`
	PaymentEnquiry   string    `json:"payment_enquiry,omitempty" gorm:"column:payment_enquiry"`
	SalesPersonName  string    `json:"sales_person_name" gorm:"column:sales_person_name;index"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
}

func (InteractionRecord) TableName() string {
	return "interaction_history"
}

// DealerSummary is the denormalized current-state row per dealer,
// overwritten on every recorded interaction.
type DealerSummary struct {
	DealerCode       string    `json:"dealer_code" gorm:"primaryKey;column:dealer_code"`
	DealerName       string    `json:"dealer_name" gorm:"column:dealer_name"`
	Area             string    `json:"area" gorm:"column:area"`
	EntityType       string    `json:"entity_type" gorm:"column:entity_type"`
	Stage            string    `json:"stage" gorm:"column:stage"`
	Status           string    `json:"status" gorm:"column:status"`
	Remarks          string    `json:"remarks" gorm:"column:remarks"`
	NextAction       string    `json:"next_action" gorm:"column:next_action"`
	NextFollowUpDate string    `json:"next_follow_up_date" gorm:"column:next_follow_up_date"`
	OrderQty         string    `json:"order_qty" gorm:"column:order_qty"`
	OrderProducts    string    `json:"order_products" gorm:"column:order_products"`
	ValueOfOrder     *float64  `json:"value_of_order,omitempty" gorm:"column:value_of_order"`
	SalesPersonName  string    `json:"sales_person_name" gorm:"column:sales_person_name"`
	LastActionAt     time.Time `json:"last_action_at" gorm:"column:last_action_at"`
	// CompletedAt is stamped only when the pipeline reaches a terminal
	// stage (Not Interested or an order-closed equivalent).
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`
}

func (DealerSummary) TableName() string {
	return "dealer_summaries"
}

// IsTerminalStage reports whether a stage ends the pipeline for the dealer:
// Not Interested, Dealer/Distributor "Order Received" or Site/Engineer
// "Order Closed".
func IsTerminalStage(entityType, stage string) bool {
	if strings.EqualFold(stage, StageNotInterested) {
		return true
	}
	if entityType == EntitySite {
		return strings.EqualFold(stage, SiteStageOrderClosed)
	}
	return strings.EqualFold(stage, StageOrderReceived)
}

// Domain errors.
var (
	ErrInvalidEntityType = errors.New("unknown entity type")
	ErrInvalidStage      = errors.New("stage not in entity vocabulary")
	ErrHistoryNotFound   = errors.New("interaction history not found")
	ErrSummaryNotFound   = errors.New("dealer summary not found")
)

// ValidationError lists the fields that violate the stage-derived
// required-field rules. The form keeps its values; the user corrects and
// resubmits.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid required fields: %s", strings.Join(e.Fields, ", "))
}

// PartialPersistenceError signals that the history insert succeeded but the
// summary overwrite failed: the dealer's denormalized view may be stale
// until the submission is retried.
type PartialPersistenceError struct {
	DealerCode string
	Cause      error
}

func (e *PartialPersistenceError) Error() string {
	return fmt.Sprintf("interaction recorded but summary update failed for dealer %s: %v", e.DealerCode, e.Cause)
}

func (e *PartialPersistenceError) Unwrap() error {
	return e.Cause
}

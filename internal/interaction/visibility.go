package interaction

import "strings"

// FieldRule describes one form field's derived state.
type FieldRule struct {
	Visible  bool `json:"visible"`
	Required bool `json:"required"`
}

func shownRequired() FieldRule { return FieldRule{Visible: true, Required: true} }
func shown() FieldRule         { return FieldRule{Visible: true} }

// VisibilityContract is the full derived form contract for one
// (entityType, stage) pair. Status and stage themselves are always required
// and are not part of the contract.
type VisibilityContract struct {
	CustomerFeedback      FieldRule `json:"customer_feedback"`
	CustomerFeedbackLabel string    `json:"customer_feedback_label,omitempty"`
	NextAction            FieldRule `json:"next_action"`
	NextCallDate          FieldRule `json:"next_call_date"`
	OrderQty              FieldRule `json:"order_qty"`
	OrderProducts         FieldRule `json:"order_products"`
	ValueOfOrder          FieldRule `json:"value_of_order"`
	NotInterestedSection  bool      `json:"not_interested_section"`
	PaymentEnquirySection bool      `json:"payment_enquiry_section"`
}

// siteOrderFeedbackLabel replaces the plain feedback label when closing an
// order on the Site/Engineer pipeline.
const siteOrderFeedbackLabel = "Order Details / Customer Feedback"

// DeriveVisibility computes which additional fields are shown and which are
// mandatory for the given pipeline position. It is a pure function of
// (entityType, stage): no hidden state, fully recomputable on every change.
// An empty or unknown stage hides everything.
func DeriveVisibility(vocab *StageVocabulary, entityType, stage string) VisibilityContract {
	var c VisibilityContract

	if stage == "" || !vocab.IsValidStage(entityType, stage) {
		return c
	}

	lower := strings.ToLower(stage)

	switch {
	case lower == strings.ToLower(StageNotInterested):
		c.NotInterestedSection = true

	case lower == strings.ToLower(StagePaymentEnquiry):
		c.PaymentEnquirySection = true

	case lower == strings.ToLower(StageCallNotPicked): // covers both entity spellings
		c.NextAction = shownRequired()
		c.NextCallDate = shownRequired()

	case isOrderReceived(entityType, lower):
		c.CustomerFeedback = shownRequired()
		c.OrderQty = shown()
		c.OrderProducts = shown()
		if entityType == EntitySite {
			// Order value is never captured for a closed site order; the
			// submission path nulls it regardless of form input.
			c.CustomerFeedbackLabel = siteOrderFeedbackLabel
		} else {
			c.ValueOfOrder = shown()
		}

	case isOrderNotReceived(entityType, lower):
		c.CustomerFeedback = shownRequired()
		c.NextAction = shownRequired()
		c.NextCallDate = shownRequired()
		c.ValueOfOrder = shown()

	default:
		// Follow-up, call, introductory call, first visit and any
		// config-supplied custom stage all follow the same contract.
		c.CustomerFeedback = shownRequired()
		c.NextAction = shownRequired()
		c.NextCallDate = shownRequired()
	}

	return c
}

func isOrderReceived(entityType, lowerStage string) bool {
	if entityType == EntitySite {
		return lowerStage == strings.ToLower(SiteStageOrderClosed)
	}
	return lowerStage == strings.ToLower(StageOrderReceived)
}

func isOrderNotReceived(entityType, lowerStage string) bool {
	if entityType == EntitySite {
		return lowerStage == strings.ToLower(SiteStageOrderPending)
	}
	return lowerStage == strings.ToLower(StageOrderNotReceived)
}

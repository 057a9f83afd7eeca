package interaction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rahadianw/dealer-crm/internal/core/events"
)

type ServiceAPI interface {
	Visibility(entityType, stage string) (VisibilityContract, error)
	Stages(entityType string) []string
	RecordInteraction(ctx context.Context, dto RecordInteractionDTO, salesPerson string) (*InteractionRecord, error)
	HistoryForDealer(ctx context.Context, dealerCode string, limit, offset int) ([]*InteractionRecord, error)
	SummaryForDealer(ctx context.Context, dealerCode string) (*DealerSummary, error)
}

// HistoryRepositoryAPI is the insert-only history table contract.
type HistoryRepositoryAPI interface {
	Insert(ctx context.Context, record *InteractionRecord) error
	ListByDealer(ctx context.Context, dealerCode string, limit, offset int) ([]*InteractionRecord, error)
}

// SummaryRepositoryAPI is the overwrite-in-place current-state contract,
// keyed by dealer code.
type SummaryRepositoryAPI interface {
	Upsert(ctx context.Context, summary *DealerSummary) error
	GetByDealerCode(ctx context.Context, dealerCode string) (*DealerSummary, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service owns the stage-dependent visibility and validation rules for
// recording dealer interactions, and the construction of the persisted
// records.
type Service struct {
	history HistoryRepositoryAPI
	summary SummaryRepositoryAPI
	vocab   *StageVocabulary
	bus     EventPublisher
	logger  *slog.Logger

	now func() time.Time
}

func NewService(history HistoryRepositoryAPI, summary SummaryRepositoryAPI, vocab *StageVocabulary, bus EventPublisher, logger *slog.Logger) *Service {
	if vocab == nil {
		vocab = NewStageVocabulary(nil)
	}
	return &Service{
		history: history,
		summary: summary,
		vocab:   vocab,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

// Visibility exposes the derived form contract to the presentation layer.
func (s *Service) Visibility(entityType, stage string) (VisibilityContract, error) {
	if entityType != "" && entityType != EntityDealer && entityType != EntitySite {
		return VisibilityContract{}, ErrInvalidEntityType
	}
	if entityType == "" {
		entityType = EntityDealer
	}
	if stage != "" && !s.vocab.IsValidStage(entityType, stage) {
		return VisibilityContract{}, ErrInvalidStage
	}
	return DeriveVisibility(s.vocab, entityType, stage), nil
}

func (s *Service) Stages(entityType string) []string {
	return s.vocab.StagesFor(entityType)
}

// RecordInteraction validates the form snapshot against the stage-derived
// contract, resolves the persisted field values, appends one history row and
// overwrites the dealer's current-state summary.
//
// The history insert runs first; if it fails the summary is left untouched.
// If the summary overwrite fails afterwards the caller gets a
// PartialPersistenceError: the history row stands, the denormalized view
// may lag until retried.
func (s *Service) RecordInteraction(ctx context.Context, dto RecordInteractionDTO, salesPerson string) (*InteractionRecord, error) {
	entityType := dto.normalizedEntityType()
	if entityType != EntityDealer && entityType != EntitySite {
		return nil, ErrInvalidEntityType
	}

	if err := s.validate(entityType, dto); err != nil {
		s.logger.Warn("interaction validation failed", "error", err, "dealer_code", dto.DealerCode, "stage", dto.Stage)
		return nil, err
	}

	now := s.now()
	record := s.buildRecord(entityType, dto, salesPerson, now)

	if err := s.history.Insert(ctx, record); err != nil {
		s.logger.Error("interaction history insert failed", "error", err, "dealer_code", dto.DealerCode)
		return nil, err
	}

	summary := s.buildSummary(record, entityType, now)
	if err := s.summary.Upsert(ctx, summary); err != nil {
		s.logger.Error("dealer summary overwrite failed after history insert",
			"error", err, "dealer_code", dto.DealerCode, "history_id", record.ID)
		return record, &PartialPersistenceError{DealerCode: dto.DealerCode, Cause: err}
	}

	s.publish(ctx, events.NewInteractionRecordedEvent(record.DealerCode, record.Stage, salesPerson))

	s.logger.Info("interaction recorded",
		"dealer_code", record.DealerCode,
		"entity_type", entityType,
		"stage", record.Stage,
		"sales_person", salesPerson)

	return record, nil
}

func (s *Service) HistoryForDealer(ctx context.Context, dealerCode string, limit, offset int) ([]*InteractionRecord, error) {
	records, err := s.history.ListByDealer(ctx, dealerCode, limit, offset)
	if err != nil {
		s.logger.Error("history listing failed", "error", err, "dealer_code", dealerCode)
		return nil, err
	}
	return records, nil
}

func (s *Service) SummaryForDealer(ctx context.Context, dealerCode string) (*DealerSummary, error) {
	return s.summary.GetByDealerCode(ctx, dealerCode)
}

// ---- internals ----

// validate enforces the stage-derived required-field rules. Status and stage
// are required regardless of stage.
func (s *Service) validate(entityType string, dto RecordInteractionDTO) error {
	var missing []string

	if strings.TrimSpace(dto.DealerCode) == "" {
		missing = append(missing, "dealer_code")
	}
	if strings.TrimSpace(dto.Status) == "" {
		missing = append(missing, "status")
	}
	if strings.TrimSpace(dto.Stage) == "" {
		missing = append(missing, "stage")
		return ValidationError{Fields: missing}
	}
	if !s.vocab.IsValidStage(entityType, dto.Stage) {
		return ErrInvalidStage
	}

	c := DeriveVisibility(s.vocab, entityType, dto.Stage)

	if c.CustomerFeedback.Required && strings.TrimSpace(dto.CustomerFeedback) == "" {
		missing = append(missing, "customer_feedback")
	}
	if c.NextAction.Required && strings.TrimSpace(dto.NextAction) == "" {
		missing = append(missing, "next_action")
	}
	if c.NextCallDate.Required && strings.TrimSpace(dto.NextCallDate) == "" {
		missing = append(missing, "next_call_date")
	}

	if c.NotInterestedSection && strings.TrimSpace(dto.NotInterestedReason) == "" {
		missing = append(missing, "not_interested_reason")
	}

	if c.PaymentEnquirySection {
		result := strings.TrimSpace(dto.PaymentEnquiryResult)
		if !strings.EqualFold(result, "Yes") && !strings.EqualFold(result, "No") {
			missing = append(missing, "payment_enquiry_result")
		} else if strings.EqualFold(result, "No") {
			if strings.TrimSpace(dto.NextCollectionDate) == "" {
				missing = append(missing, "next_collection_date")
			}
			if strings.TrimSpace(dto.PaymentEnquiryReason) == "" {
				missing = append(missing, "payment_enquiry_reason")
			}
		}
	}

	if len(missing) > 0 {
		return ValidationError{Fields: missing}
	}
	return nil
}

// buildRecord resolves the persisted field values by stage-specific
// precedence and constructs the immutable history row.
func (s *Service) buildRecord(entityType string, dto RecordInteractionDTO, salesPerson string, now time.Time) *InteractionRecord {
	c := DeriveVisibility(s.vocab, entityType, dto.Stage)

	// Remarks precedence: not-interested reason > payment-enquiry "No"
	// reason > order-closed site feedback > plain customer feedback.
	remarks := dto.CustomerFeedback
	if c.NotInterestedSection {
		remarks = dto.NotInterestedReason
	} else if c.PaymentEnquirySection && strings.EqualFold(dto.PaymentEnquiryResult, "No") {
		remarks = dto.PaymentEnquiryReason
	}

	// Next follow-up precedence: payment-enquiry "No" collection date >
	// plain next-call date.
	nextDate := dto.NextCallDate
	if c.PaymentEnquirySection && strings.EqualFold(dto.PaymentEnquiryResult, "No") {
		nextDate = dto.NextCollectionDate
	}

	nextAction := dto.NextAction
	if !c.NextAction.Visible {
		nextAction = ""
	}

	value := dto.ValueOfOrder
	if entityType == EntitySite && strings.EqualFold(dto.Stage, SiteStageOrderClosed) {
		// Business override: a closed site order never carries an order value.
		value = nil
	} else if !c.ValueOfOrder.Visible {
		value = nil
	}

	orderQty, orderProducts := dto.OrderQty, dto.OrderProducts
	if !c.OrderQty.Visible {
		orderQty = ""
		orderProducts = ""
	}

	return &InteractionRecord{
		ID:               uuid.New().String(),
		DealerCode:       dto.DealerCode,
		DealerName:       dto.DealerName,
		Area:             dto.Area,
		EntityType:       entityType,
		Stage:            dto.Stage,
		Status:           dto.Status,
		Remarks:          remarks,
		NextAction:       nextAction,
		NextFollowUpDate: nextDate,
		OrderQty:         orderQty,
		OrderProducts:    orderProducts,
		ValueOfOrder:     value,
		PaymentEnquiry:   dto.PaymentEnquiryResult,
		SalesPersonName:  salesPerson,
		CreatedAt:        now,
	}
}

func (s *Service) buildSummary(record *InteractionRecord, entityType string, now time.Time) *DealerSummary {
	summary := &DealerSummary{
		DealerCode:       record.DealerCode,
		DealerName:       record.DealerName,
		Area:             record.Area,
		EntityType:       record.EntityType,
		Stage:            record.Stage,
		Status:           record.Status,
		Remarks:          record.Remarks,
		NextAction:       record.NextAction,
		NextFollowUpDate: record.NextFollowUpDate,
		OrderQty:         record.OrderQty,
		OrderProducts:    record.OrderProducts,
		ValueOfOrder:     record.ValueOfOrder,
		SalesPersonName:  record.SalesPersonName,
		LastActionAt:     now,
	}
	if IsTerminalStage(entityType, record.Stage) {
		summary.CompletedAt = &now
	}
	return summary
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "event_type", event.EventType(), "error", err)
	}
}

package interaction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/rahadianw/dealer-crm/internal/core/events"
)

// Mock history repository for testing
type mockHistoryRepository struct {
	records       []*InteractionRecord
	returnError   bool
	errorToReturn error
}

func (m *mockHistoryRepository) Insert(ctx context.Context, record *InteractionRecord) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockHistoryRepository) ListByDealer(ctx context.Context, dealerCode string, limit, offset int) ([]*InteractionRecord, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	var out []*InteractionRecord
	for _, r := range m.records {
		if r.DealerCode == dealerCode {
			out = append(out, r)
		}
	}
	return out, nil
}

// Mock summary repository for testing
type mockSummaryRepository struct {
	summaries     map[string]*DealerSummary
	returnError   bool
	errorToReturn error
}

func newMockSummaryRepository() *mockSummaryRepository {
	return &mockSummaryRepository{summaries: make(map[string]*DealerSummary)}
}

func (m *mockSummaryRepository) Upsert(ctx context.Context, summary *DealerSummary) error {
	if m.returnError {
		return m.errorToReturn
	}
	m.summaries[summary.DealerCode] = summary
	return nil
}

func (m *mockSummaryRepository) GetByDealerCode(ctx context.Context, dealerCode string) (*DealerSummary, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if s, ok := m.summaries[dealerCode]; ok {
		return s, nil
	}
	return nil, ErrSummaryNotFound
}

type capturingPublisher struct {
	published []events.Event
}

func (m *capturingPublisher) Publish(ctx context.Context, event events.Event) error {
	m.published = append(m.published, event)
	return nil
}

var _ = ginkgo.Describe("InteractionService", func() {
	var (
		service *Service
		history *mockHistoryRepository
		summary *mockSummaryRepository
		bus     *capturingPublisher
		clock   time.Time
	)

	ginkgo.BeforeEach(func() {
		history = &mockHistoryRepository{}
		summary = newMockSummaryRepository()
		bus = &capturingPublisher{}
		clock = time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC)

		service = NewService(history, summary, NewStageVocabulary(nil), bus, slog.Default())
		service.now = func() time.Time { return clock }
	})

	followUpDTO := func() RecordInteractionDTO {
		return RecordInteractionDTO{
			DealerCode:       "DLR-001",
			DealerName:       "Shree Traders",
			Area:             "East Zone",
			Status:           "Active",
			Stage:            StageFollowUp,
			CustomerFeedback: "asked for revised quote",
			NextAction:       "send quote",
			NextCallDate:     "2026-03-12",
		}
	}

	ginkgo.Describe("RecordInteraction", func() {
		ginkgo.It("appends a history row and overwrites the summary", func() {
			record, err := service.RecordInteraction(context.Background(), followUpDTO(), "Ravi Kumar")

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(record.ID).ToNot(gomega.BeEmpty())
			gomega.Expect(history.records).To(gomega.HaveLen(1))

			s := summary.summaries["DLR-001"]
			gomega.Expect(s).ToNot(gomega.BeNil())
			gomega.Expect(s.Stage).To(gomega.Equal(StageFollowUp))
			gomega.Expect(s.LastActionAt).To(gomega.Equal(clock))
			gomega.Expect(s.CompletedAt).To(gomega.BeNil())
		})

		ginkgo.It("publishes an interaction event on success", func() {
			_, err := service.RecordInteraction(context.Background(), followUpDTO(), "Ravi Kumar")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(bus.published).To(gomega.HaveLen(1))
			gomega.Expect(bus.published[0].EventType()).To(gomega.Equal(events.InteractionRecordedEvent))
		})

		ginkgo.It("defaults a missing entity type to Dealer/Distributor", func() {
			record, err := service.RecordInteraction(context.Background(), followUpDTO(), "Ravi Kumar")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(record.EntityType).To(gomega.Equal(EntityDealer))
		})

		ginkgo.It("rejects an unknown entity type", func() {
			dto := followUpDTO()
			dto.EntityType = "Warehouse"
			_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidEntityType))
		})

		ginkgo.It("rejects a stage outside the entity vocabulary", func() {
			dto := followUpDTO()
			dto.EntityType = EntitySite
			dto.Stage = StagePaymentEnquiry
			_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidStage))
		})

		ginkgo.Context("required-field validation", func() {
			ginkgo.It("lists every missing field for the default contract", func() {
				dto := RecordInteractionDTO{DealerCode: "DLR-001", Status: "Active", Stage: StageCall}

				_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")

				var verr ValidationError
				gomega.Expect(errors.As(err, &verr)).To(gomega.BeTrue())
				gomega.Expect(verr.Fields).To(gomega.ConsistOf("customer_feedback", "next_action", "next_call_date"))
				gomega.Expect(history.records).To(gomega.BeEmpty())
			})

			ginkgo.It("requires the not-interested reason on Not Interested", func() {
				dto := RecordInteractionDTO{DealerCode: "DLR-001", Status: "Active", Stage: StageNotInterested}

				_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")

				var verr ValidationError
				gomega.Expect(errors.As(err, &verr)).To(gomega.BeTrue())
				gomega.Expect(verr.Fields).To(gomega.ConsistOf("not_interested_reason"))
			})

			ginkgo.It("requires the collection date and reason only for a No enquiry result", func() {
				dto := RecordInteractionDTO{DealerCode: "DLR-001", Status: "Active", Stage: StagePaymentEnquiry, PaymentEnquiryResult: "No"}

				_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")

				var verr ValidationError
				gomega.Expect(errors.As(err, &verr)).To(gomega.BeTrue())
				gomega.Expect(verr.Fields).To(gomega.ConsistOf("next_collection_date", "payment_enquiry_reason"))

				dto.PaymentEnquiryResult = "Yes"
				_, err = service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("rejects an enquiry result outside Yes/No", func() {
				dto := RecordInteractionDTO{DealerCode: "DLR-001", Status: "Active", Stage: StagePaymentEnquiry, PaymentEnquiryResult: "Maybe"}

				_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")

				var verr ValidationError
				gomega.Expect(errors.As(err, &verr)).To(gomega.BeTrue())
				gomega.Expect(verr.Fields).To(gomega.ConsistOf("payment_enquiry_result"))
			})
		})

		ginkgo.Context("field resolution", func() {
			ginkgo.It("persists the not-interested reason as the remarks", func() {
				dto := RecordInteractionDTO{
					DealerCode:          "DLR-001",
					Status:              "Active",
					Stage:               StageNotInterested,
					CustomerFeedback:    "should be ignored",
					NotInterestedReason: "switched to competitor",
				}

				record, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(record.Remarks).To(gomega.Equal("switched to competitor"))
			})

			ginkgo.It("uses the collection date and reason for a No enquiry result", func() {
				dto := RecordInteractionDTO{
					DealerCode:           "DLR-001",
					Status:               "Active",
					Stage:                StagePaymentEnquiry,
					NextCallDate:         "2026-03-12",
					PaymentEnquiryResult: "No",
					NextCollectionDate:   "2026-03-20",
					PaymentEnquiryReason: "cheque bounced",
				}

				record, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(record.Remarks).To(gomega.Equal("cheque bounced"))
				gomega.Expect(record.NextFollowUpDate).To(gomega.Equal("2026-03-20"))
			})

			ginkgo.It("nulls the order value for a closed site order even when submitted", func() {
				value := 125000.0
				dto := RecordInteractionDTO{
					DealerCode:       "SITE-009",
					Status:           "Active",
					EntityType:       EntitySite,
					Stage:            SiteStageOrderClosed,
					CustomerFeedback: "order finalized on site",
					OrderQty:         "40",
					OrderProducts:    "cement, rebar",
					ValueOfOrder:     &value,
				}

				record, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(record.ValueOfOrder).To(gomega.BeNil())
				gomega.Expect(record.OrderQty).To(gomega.Equal("40"))
			})

			ginkgo.It("keeps the order value for a dealer Order Received", func() {
				value := 98000.0
				dto := RecordInteractionDTO{
					DealerCode:       "DLR-001",
					Status:           "Active",
					Stage:            StageOrderReceived,
					CustomerFeedback: "confirmed over phone",
					ValueOfOrder:     &value,
				}

				record, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(record.ValueOfOrder).To(gomega.HaveValue(gomega.Equal(98000.0)))
			})

			ginkgo.It("drops hidden fields submitted against the contract", func() {
				value := 500.0
				dto := followUpDTO()
				dto.OrderQty = "10"
				dto.OrderProducts = "paint"
				dto.ValueOfOrder = &value

				record, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(record.OrderQty).To(gomega.BeEmpty())
				gomega.Expect(record.OrderProducts).To(gomega.BeEmpty())
				gomega.Expect(record.ValueOfOrder).To(gomega.BeNil())
			})

			ginkgo.It("stamps the summary completion on a terminal stage", func() {
				dto := RecordInteractionDTO{
					DealerCode:       "DLR-001",
					Status:           "Active",
					Stage:            StageOrderReceived,
					CustomerFeedback: "final order placed",
				}

				_, err := service.RecordInteraction(context.Background(), dto, "Ravi Kumar")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(summary.summaries["DLR-001"].CompletedAt).To(gomega.HaveValue(gomega.Equal(clock)))
			})
		})

		ginkgo.Context("persistence ordering", func() {
			ginkgo.It("leaves the summary untouched when the history insert fails", func() {
				history.returnError = true
				history.errorToReturn = errors.New("disk full")

				_, err := service.RecordInteraction(context.Background(), followUpDTO(), "Ravi Kumar")

				gomega.Expect(err).To(gomega.MatchError("disk full"))
				gomega.Expect(summary.summaries).To(gomega.BeEmpty())
			})

			ginkgo.It("returns a partial persistence error when only the summary fails", func() {
				summary.returnError = true
				summary.errorToReturn = errors.New("lock timeout")

				record, err := service.RecordInteraction(context.Background(), followUpDTO(), "Ravi Kumar")

				var perr *PartialPersistenceError
				gomega.Expect(errors.As(err, &perr)).To(gomega.BeTrue())
				gomega.Expect(perr.DealerCode).To(gomega.Equal("DLR-001"))
				gomega.Expect(record).ToNot(gomega.BeNil())
				gomega.Expect(history.records).To(gomega.HaveLen(1))
				gomega.Expect(bus.published).To(gomega.BeEmpty())
			})
		})
	})

	ginkgo.Describe("Visibility", func() {
		ginkgo.It("rejects unknown entity types", func() {
			_, err := service.Visibility("Warehouse", StageFollowUp)
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidEntityType))
		})

		ginkgo.It("rejects stages outside the vocabulary", func() {
			_, err := service.Visibility(EntityDealer, "Teleportation")
			gomega.Expect(err).To(gomega.MatchError(ErrInvalidStage))
		})

		ginkgo.It("returns the zero contract for an unselected stage", func() {
			c, err := service.Visibility(EntityDealer, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c).To(gomega.Equal(VisibilityContract{}))
		})
	})

	ginkgo.Describe("Stages", func() {
		ginkgo.It("appends config-supplied stages to the dealer vocabulary only", func() {
			service = NewService(history, summary, NewStageVocabulary([]string{"Site Survey"}), bus, slog.Default())

			gomega.Expect(service.Stages(EntityDealer)).To(gomega.ContainElement("Site Survey"))
			gomega.Expect(service.Stages(EntitySite)).ToNot(gomega.ContainElement("Site Survey"))
		})
	})
})

package dealer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/rahadianw/dealer-crm/internal/session"
)

// Stub service with scripted outcomes for handler tests
type stubDealerService struct {
	registered  *Dealer
	registerErr error
	found       *Dealer
	getErr      error
	listed      []*Dealer
	listErr     error
}

func (s *stubDealerService) Register(ctx context.Context, dto RegisterDealerDTO, salesPerson string) (*Dealer, error) {
	return s.registered, s.registerErr
}

func (s *stubDealerService) GetByCode(ctx context.Context, dealerCode string) (*Dealer, error) {
	return s.found, s.getErr
}

func (s *stubDealerService) ListBySalesPerson(ctx context.Context, salesPerson string, limit, offset int) ([]*Dealer, error) {
	return s.listed, s.listErr
}

func (s *stubDealerService) ListAll(ctx context.Context, limit, offset int) ([]*Dealer, error) {
	return s.listed, s.listErr
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeErrorEnvelope(rec *httptest.ResponseRecorder) errorEnvelope {
	var env errorEnvelope
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(gomega.Succeed())
	return env
}

var _ = ginkgo.Describe("Dealer Handler", func() {
	var (
		svc     *stubDealerService
		handler *Handler
		caller  session.SessionUser
	)

	ginkgo.BeforeEach(func() {
		svc = &stubDealerService{}
		handler = NewHandler(svc)
		caller = session.SessionUser{
			Username:        "ravi",
			Role:            "sales",
			SalesPersonName: "Ravi Kumar",
		}
	})

	authedRequest := func(method, target string, body []byte) *http.Request {
		req := httptest.NewRequest(method, target, bytes.NewReader(body))
		return req.WithContext(session.ContextWithUser(req.Context(), caller))
	}

	ginkgo.Describe("Register", func() {
		ginkgo.It("returns 201 with the stored dealer", func() {
			svc.registered = &Dealer{DealerCode: "DLR-EAST-001", DealerName: "Eastern Traders"}
			body, _ := json.Marshal(RegisterDealerDTO{DealerName: "Eastern Traders"})

			rec := httptest.NewRecorder()
			handler.Register(rec, authedRequest(http.MethodPost, "/api/v1/dealers", body))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			var got Dealer
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(gomega.Succeed())
			gomega.Expect(got.DealerCode).To(gomega.Equal("DLR-EAST-001"))
		})

		ginkgo.It("rejects callers without a session", func() {
			body, _ := json.Marshal(RegisterDealerDTO{DealerName: "Eastern Traders"})
			rec := httptest.NewRecorder()
			handler.Register(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dealers", bytes.NewReader(body)))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeErrorEnvelope(rec).Error.Code).To(gomega.Equal("INVALID_TOKEN"))
		})

		ginkgo.It("rejects a malformed body", func() {
			rec := httptest.NewRecorder()
			handler.Register(rec, authedRequest(http.MethodPost, "/api/v1/dealers", []byte("{not json")))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(decodeErrorEnvelope(rec).Error.Code).To(gomega.Equal("VALIDATION_FAILED"))
		})

		ginkgo.It("rejects a payload without a dealer name", func() {
			body, _ := json.Marshal(RegisterDealerDTO{Area: "East"})
			rec := httptest.NewRecorder()
			handler.Register(rec, authedRequest(http.MethodPost, "/api/v1/dealers", body))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
			env := decodeErrorEnvelope(rec)
			gomega.Expect(env.Error.Type).To(gomega.Equal("VALIDATION_ERROR"))
			gomega.Expect(env.Error.Message).To(gomega.ContainSubstring("dealer_name"))
		})

		ginkgo.It("maps a duplicate code to 409", func() {
			svc.registerErr = ErrDealerExists
			body, _ := json.Marshal(RegisterDealerDTO{DealerCode: "DLR-EAST-001", DealerName: "Eastern Traders"})

			rec := httptest.NewRecorder()
			handler.Register(rec, authedRequest(http.MethodPost, "/api/v1/dealers", body))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusConflict))
			gomega.Expect(decodeErrorEnvelope(rec).Error.Code).To(gomega.Equal("DEALER_ALREADY_EXISTS"))
		})

		ginkgo.It("maps unknown service errors to an opaque 500", func() {
			svc.registerErr = errors.New("connection refused")
			body, _ := json.Marshal(RegisterDealerDTO{DealerName: "Eastern Traders"})

			rec := httptest.NewRecorder()
			handler.Register(rec, authedRequest(http.MethodPost, "/api/v1/dealers", body))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
			env := decodeErrorEnvelope(rec)
			gomega.Expect(env.Error.Code).To(gomega.Equal("PERSISTENCE_FAILED"))
			gomega.Expect(env.Error.Message).NotTo(gomega.ContainSubstring("connection refused"))
		})
	})

	ginkgo.Describe("Get", func() {
		newRouter := func() *chi.Mux {
			r := chi.NewRouter()
			r.Get("/dealers/{code}", handler.Get)
			return r
		}

		ginkgo.It("returns the dealer for a known code", func() {
			svc.found = &Dealer{DealerCode: "DLR-WEST-002", DealerName: "Western Supplies"}

			rec := httptest.NewRecorder()
			newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dealers/DLR-WEST-002", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var got Dealer
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(gomega.Succeed())
			gomega.Expect(got.DealerName).To(gomega.Equal("Western Supplies"))
		})

		ginkgo.It("returns 404 for an unknown code", func() {
			svc.getErr = ErrDealerNotFound

			rec := httptest.NewRecorder()
			newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dealers/DLR-NOPE-999", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNotFound))
			gomega.Expect(decodeErrorEnvelope(rec).Error.Code).To(gomega.Equal("DEALER_NOT_FOUND"))
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("returns the caller's dealers with paging metadata", func() {
			svc.listed = []*Dealer{{DealerCode: "DLR-EAST-001"}}

			rec := httptest.NewRecorder()
			handler.List(rec, authedRequest(http.MethodGet, "/api/v1/dealers?limit=10", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			var got struct {
				Dealers []*Dealer `json:"dealers"`
				Limit   int       `json:"limit"`
			}
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(gomega.Succeed())
			gomega.Expect(got.Dealers).To(gomega.HaveLen(1))
			gomega.Expect(got.Limit).To(gomega.Equal(10))
		})
	})
})

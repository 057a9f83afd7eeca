package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// Stub service with scripted outcomes for handler tests
type stubSessionService struct {
	loginResult *LoginResult
	loginErr    error
	logoutErr   error
	grantErr    error
	claims      *Claims
	claimsErr   error
}

func (s *stubSessionService) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubSessionService) Restore(ctx context.Context, token string) (*LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubSessionService) Logout(ctx context.Context, username string) error {
	return s.logoutErr
}

func (s *stubSessionService) CheckLoginAccess(ctx context.Context, username string) bool {
	return true
}

func (s *stubSessionService) RequestAccess(ctx context.Context, username string) error {
	return nil
}

func (s *stubSessionService) GrantAccess(ctx context.Context, username, grantedBy string) error {
	return s.grantErr
}

func (s *stubSessionService) RejectAccess(ctx context.Context, username string) error {
	return s.grantErr
}

func (s *stubSessionService) ValidateSessionToken(tokenString string) (*Claims, error) {
	return s.claims, s.claimsErr
}

func (s *stubSessionService) GetAccount(ctx context.Context, username string) (*UserAccount, error) {
	return nil, ErrRecordNotFound
}

func (s *stubSessionService) ListSessionLogs(ctx context.Context, filter LogFilterDTO) ([]*SessionRecord, error) {
	return nil, nil
}

var _ = ginkgo.Describe("SessionHandler", func() {
	var (
		handler *Handler
		stub    *stubSessionService
	)

	postJSON := func(target string, body interface{}, fn http.HandlerFunc) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	ginkgo.BeforeEach(func() {
		stub = &stubSessionService{}
		handler = NewHandler(stub)
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns the token and user on success", func() {
			stub.loginResult = &LoginResult{
				Token: "signed-token",
				User:  SessionUser{Username: "salesA", Role: "sales", Tabs: DefaultTabs},
			}

			rec := postJSON("/api/v1/auth/login", LoginDTO{Username: "salesA", Password: "pw"}, handler.Login)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			var resp loginResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Success).To(gomega.BeTrue())
			gomega.Expect(resp.Token).To(gomega.Equal("signed-token"))
		})

		ginkgo.It("maps invalid credentials to 401 without the access-denied flag", func() {
			stub.loginErr = ErrInvalidCredentials

			rec := postJSON("/api/v1/auth/login", LoginDTO{Username: "salesA", Password: "wrong"}, handler.Login)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))

			var resp loginResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.Success).To(gomega.BeFalse())
			gomega.Expect(resp.AccessDenied).To(gomega.BeFalse())
		})

		ginkgo.It("maps the daily access block to 403 with the access-denied flag", func() {
			stub.loginErr = ErrAccessDenied

			rec := postJSON("/api/v1/auth/login", LoginDTO{Username: "salesA", Password: "pw"}, handler.Login)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

			var resp loginResponse
			gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
			gomega.Expect(resp.AccessDenied).To(gomega.BeTrue())
		})

		ginkgo.It("maps validation errors to 400", func() {
			stub.loginErr = ValidationError{Msg: "user_name is required"}

			rec := postJSON("/api/v1/auth/login", LoginDTO{}, handler.Login)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("GrantAccess", func() {
		adminCtx := func(req *http.Request) *http.Request {
			return req.WithContext(ContextWithUser(req.Context(), SessionUser{Username: "adminA", Role: RoleAdmin}))
		}

		ginkgo.It("maps a missing pending request to 409", func() {
			stub.grantErr = ErrNoPendingRequest

			payload, _ := json.Marshal(AccessDecisionDTO{Username: "salesA"})
			req := adminCtx(httptest.NewRequest(http.MethodPost, "/api/v1/auth/access-grant", bytes.NewReader(payload)))
			rec := httptest.NewRecorder()
			handler.GrantAccess(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusConflict))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			gomega.Expect(ok).To(gomega.BeTrue())
			w.Header().Set("X-User", user.Username)
			w.WriteHeader(http.StatusOK)
		})

		ginkgo.It("rejects requests without a bearer token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dealers", nil)
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects an invalid token", func() {
			stub.claimsErr = ErrInvalidToken

			req := httptest.NewRequest(http.MethodGet, "/api/v1/dealers", nil)
			req.Header.Set("Authorization", "Bearer garbage")
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("loads the session user into the request context", func() {
			stub.claims = &Claims{
				Username:    "salesA",
				Role:        "sales",
				Tabs:        DefaultTabs,
				LoginTimeMs: time.Now().UnixMilli(),
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/dealers", nil)
			req.Header.Set("Authorization", "Bearer good-token")
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Header().Get("X-User")).To(gomega.Equal("salesA"))
		})
	})

	ginkgo.Describe("RequireAdmin", func() {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		ginkgo.It("blocks non-admin users", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/session-logs", nil)
			req = req.WithContext(ContextWithUser(req.Context(), SessionUser{Username: "salesA", Role: "sales"}))
			rec := httptest.NewRecorder()
			handler.RequireAdmin(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("admits admin users", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/session-logs", nil)
			req = req.WithContext(ContextWithUser(req.Context(), SessionUser{Username: "adminA", Role: RoleAdmin}))
			rec := httptest.NewRecorder()
			handler.RequireAdmin(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})
})

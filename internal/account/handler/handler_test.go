package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gavel/internal/account/models"
	"gavel/internal/account/service"
	"gavel/internal/account/store"
	"gavel/internal/authz"
	"gavel/internal/platform/middleware"
	"gavel/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type HandlerSuite struct {
	suite.Suite

	accounts  *store.InMemory
	router    chi.Router
	principal domain.Principal
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.accounts = store.NewInMemory()
	s.principal = domain.Principal{
		ID:           domain.PrincipalID(uuid.New()),
		Email:        "mod@example.com",
		Capabilities: []string{"manage:accounts", "terminate:accounts"},
	}

	svc := service.New(
		authz.NewCapabilityAuthorizer(),
		s.accounts,
		service.WithLogger(testLogger()),
	)
	h := New(svc, testLogger())

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), s.principal)))
		})
	})
	h.Register(s.router)
}

func (s *HandlerSuite) seedAccount() *models.Account {
	account := models.New(domain.AccountID(uuid.New()), "seller@example.com", nil, time.Now().UTC())
	s.Require().NoError(s.accounts.Create(context.Background(), account))
	return account
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestTerminate() {
	account := s.seedAccount()

	rec := s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/terminate",
		`{"reason": "fraudulent listings", "permanent": false}`)

	s.Require().Equal(http.StatusOK, rec.Code)
	var result service.Result
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal(models.StatusTerminated, result.Account.Status)
	s.Empty(result.Warnings)
}

func (s *HandlerSuite) TestTerminateWithoutReason() {
	account := s.seedAccount()

	rec := s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/terminate",
		`{"reason": "", "permanent": true}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestTerminateUnknownAccount() {
	rec := s.do(http.MethodPost, "/accounts/"+uuid.NewString()+"/terminate",
		`{"reason": "fraud", "permanent": false}`)

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestTerminateMalformedID() {
	rec := s.do(http.MethodPost, "/accounts/not-a-uuid/terminate",
		`{"reason": "fraud", "permanent": false}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestReactivatePermanentTermination() {
	account := s.seedAccount()

	rec := s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/terminate",
		`{"reason": "fraud", "permanent": true}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/reactivate", "")
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "permanent")
}

func (s *HandlerSuite) TestSuspendThenReactivate() {
	account := s.seedAccount()

	rec := s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/suspend",
		`{"reason": "payment dispute"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/reactivate", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var result service.Result
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal(models.StatusActive, result.Account.Status)
	s.Nil(result.Account.SuspensionReason)
}

func (s *HandlerSuite) TestForbiddenWithoutCapability() {
	account := s.seedAccount()
	s.principal.Capabilities = []string{"manage:products"}

	rec := s.do(http.MethodPost, "/accounts/"+account.ID.String()+"/terminate",
		`{"reason": "fraud", "permanent": false}`)

	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestGet() {
	account := s.seedAccount()

	rec := s.do(http.MethodGet, "/accounts/"+account.ID.String(), "")

	s.Require().Equal(http.StatusOK, rec.Code)
	var got models.Account
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(account.ID, got.ID)
}

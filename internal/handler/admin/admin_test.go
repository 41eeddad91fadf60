package admin

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

	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOffers struct {
	created  []service.OfferInput
	updated  map[uuid.UUID]service.OfferInput
	statuses map[uuid.UUID]domain.OfferStatus
	filter   repository.OfferFilter
	rescored int
}

func newFakeOffers() *fakeOffers {
	return &fakeOffers{updated: map[uuid.UUID]service.OfferInput{}, statuses: map[uuid.UUID]domain.OfferStatus{}}
}

func (f *fakeOffers) Create(_ context.Context, in service.OfferInput) (*service.ScoredOffer, error) {
	f.created = append(f.created, in)
	return &service.ScoredOffer{Offer: domain.Offer{ID: uuid.New(), Title: in.Title}}, nil
}

func (f *fakeOffers) Update(_ context.Context, id uuid.UUID, in service.OfferInput) (*service.ScoredOffer, error) {
	f.updated[id] = in
	return &service.ScoredOffer{Offer: domain.Offer{ID: id, Title: in.Title}}, nil
}

func (f *fakeOffers) SetStatus(_ context.Context, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error) {
	f.statuses[id] = status
	return &domain.Offer{ID: id, Status: status}, nil
}

func (f *fakeOffers) Get(_ context.Context, id uuid.UUID) (*service.ScoredOffer, error) {
	return nil, domain.ErrNotFound("offer", id.String())
}

func (f *fakeOffers) List(_ context.Context, filter repository.OfferFilter) ([]domain.Offer, error) {
	f.filter = filter
	return []domain.Offer{}, nil
}

func (f *fakeOffers) RescoreAll(context.Context) (int, error) {
	f.rescored++
	return 7, nil
}

func offerRouter(f *fakeOffers) chi.Router {
	h := NewOfferAdminHandler(f)
	r := chi.NewRouter()
	r.Get("/admin/offers", h.ListOffers)
	r.Get("/admin/offers/{id}", h.GetOffer)
	r.Post("/admin/offers", h.CreateOffer)
	r.Put("/admin/offers/{id}", h.UpdateOffer)
	r.Patch("/admin/offers/{id}/status", h.UpdateOfferStatus)
	r.Post("/admin/offers/rescore", h.RescoreAll)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- Offer Admin Tests ---

func TestCreateOffer(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)

	body := `{"operator_id":"` + uuid.NewString() + `","title":"Welcome","product_type":"casino","terms":{"match_percent":1,"max_bonus":200}}`
	w := do(router, http.MethodPost, "/admin/offers", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, f.created, 1)
	assert.Equal(t, 200.0, f.created[0].Terms.MaxBonus)
}

func TestCreateOffer_Validation(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)

	tests := map[string]string{
		"missing operator": `{"title":"Welcome","product_type":"casino","terms":{}}`,
		"bad product":      `{"operator_id":"` + uuid.NewString() + `","title":"W","product_type":"arcade","terms":{}}`,
		"bad status":       `{"operator_id":"` + uuid.NewString() + `","title":"W","product_type":"casino","status":"archived","terms":{}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/admin/offers", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.created)
}

func TestUpdateOffer_OperatorOptional(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)
	id := uuid.New()

	w := do(router, http.MethodPut, "/admin/offers/"+id.String(), `{"title":"Renamed","product_type":"poker","terms":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", f.updated[id].Title)

	w = do(router, http.MethodPut, "/admin/offers/"+id.String(), `{"product_type":"poker"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateOfferStatus(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)
	id := uuid.New()

	w := do(router, http.MethodPatch, "/admin/offers/"+id.String()+"/status", `{"status":"paused"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OfferStatusPaused, f.statuses[id])

	w = do(router, http.MethodPatch, "/admin/offers/"+id.String()+"/status", `{"status":"deleted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOffers_Filters(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)
	opID := uuid.New()

	w := do(router, http.MethodGet, "/admin/offers?status=expired&operator_id="+opID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.OfferStatusExpired, f.filter.Status)
	assert.Equal(t, opID, f.filter.OperatorID)
	assert.JSONEq(t, `[]`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/admin/offers?status=gone", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/admin/offers?operator_id=x", "").Code)
}

func TestRescoreAndGet(t *testing.T) {
	f := newFakeOffers()
	router := offerRouter(f)

	w := do(router, http.MethodPost, "/admin/offers/rescore", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rescored":7}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/admin/offers/"+uuid.NewString(), "").Code)
}

// --- Operator Admin Tests ---

type fakeOperators struct {
	ops []domain.Operator
}

func (f *fakeOperators) Create(_ context.Context, in service.OperatorInput) (*domain.Operator, error) {
	op := domain.Operator{ID: uuid.New(), Name: in.Name, Website: in.Website}
	f.ops = append(f.ops, op)
	return &op, nil
}

func (f *fakeOperators) List(context.Context) ([]domain.Operator, error) { return f.ops, nil }

func TestOperators(t *testing.T) {
	f := &fakeOperators{}
	h := NewOperatorAdminHandler(f)

	w := httptest.NewRecorder()
	h.CreateOperator(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Bet House","website":"https://bethouse.example"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.CreateOperator(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"X","website":"not a url"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ListOperators(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var ops []domain.Operator
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ops))
	require.Len(t, ops, 1)
	assert.Equal(t, "Bet House", ops[0].Name)
}

// --- Auth Admin Tests ---

type fakeAccounts struct {
	lastLogin service.LoginInput
}

func (f *fakeAccounts) Login(_ context.Context, in service.LoginInput) (*service.LoginResult, error) {
	f.lastLogin = in
	if in.Password != "right-password" {
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	return &service.LoginResult{Token: "tok", Email: in.Email, Role: auth.RoleAdmin}, nil
}

func (f *fakeAccounts) CreateAdmin(_ context.Context, in service.CreateAdminInput) (*domain.AdminUser, error) {
	return &domain.AdminUser{ID: uuid.New(), Email: in.Email, PasswordHash: "hash", Role: in.Role}, nil
}

func TestLogin(t *testing.T) {
	accounts := &fakeAccounts{}
	h := NewAuthAdminHandler(accounts, nil, noopLogger())

	r := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"ops@example.com","password":"right-password"}`))
	r.Header.Set("X-Forwarded-For", "198.51.100.4")
	w := httptest.NewRecorder()
	h.Login(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "198.51.100.4", accounts.lastLogin.IP)

	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"ops@example.com","password":"wrong"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"email":"not-an-email","password":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAdmin_HidesPasswordHash(t *testing.T) {
	h := NewAuthAdminHandler(&fakeAccounts{}, nil, noopLogger())

	w := httptest.NewRecorder()
	h.CreateAdmin(w, httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(`{"email":"new@example.com","password":"long-enough-pass","role":"viewer"}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "hash")

	w = httptest.NewRecorder()
	h.CreateAdmin(w, httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(`{"email":"new@example.com","password":"short","role":"viewer"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueIngestToken(t *testing.T) {
	mgr := auth.NewIngestTokenManager(strings.Repeat("s", 32), time.Hour)
	h := NewAuthAdminHandler(&fakeAccounts{}, mgr, noopLogger())

	w := httptest.NewRecorder()
	h.IssueIngestToken(w, httptest.NewRequest(http.MethodPost, "/admin/ingest-tokens", strings.NewReader(`{"client":"scraper-eu"}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Token  string   `json:"token"`
		Scopes []string `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{auth.ScopeIngestOffers}, body.Scopes)

	tok, err := mgr.Validate(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "scraper-eu", tok.Sub)
	assert.True(t, tok.HasScope(auth.ScopeIngestOffers))

	w = httptest.NewRecorder()
	h.IssueIngestToken(w, httptest.NewRequest(http.MethodPost, "/admin/ingest-tokens", strings.NewReader(`{"client":"x","scopes":["offers:delete"]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueIngestToken_NotConfigured(t *testing.T) {
	h := NewAuthAdminHandler(&fakeAccounts{}, nil, noopLogger())
	w := httptest.NewRecorder()
	h.IssueIngestToken(w, httptest.NewRequest(http.MethodPost, "/admin/ingest-tokens", strings.NewReader(`{"client":"x"}`)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

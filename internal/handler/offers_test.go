package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRanker struct {
	intent domain.Intent
	limit  int
	calls  int
}

func (f *fakeRanker) Catalog(_ context.Context, intent domain.Intent, limit int) (*service.Recommendation, error) {
	f.intent, f.limit = intent, limit
	f.calls++
	return &service.Recommendation{Offers: []domain.RankedOffer{}}, nil
}

func (f *fakeRanker) Recommend(_ context.Context, intent domain.Intent) (*service.Recommendation, error) {
	f.intent = intent
	f.calls++
	score := 91.0
	return &service.Recommendation{
		Offers:     []domain.RankedOffer{{Offer: domain.Offer{Title: "best", ValueScore: &score}, ValueScore: score}},
		Considered: 4,
		Matched:    1,
	}, nil
}

type fakeReader struct {
	offer *service.ScoredOffer
}

func (f *fakeReader) Get(_ context.Context, id uuid.UUID) (*service.ScoredOffer, error) {
	if f.offer == nil || f.offer.Offer.ID != id {
		return nil, domain.ErrNotFound("offer", id.String())
	}
	return f.offer, nil
}

func newOfferRouter(ranker *fakeRanker, reader *fakeReader, rl *guard.RateLimiter) chi.Router {
	h := NewOfferHandler(ranker, reader, 100)
	r := chi.NewRouter()
	r.Get("/offers", h.ListOffers)
	r.Get("/offers/{id}", h.GetOffer)
	r.Post("/offers/preview", h.Preview)
	r.With(RateLimit(rl)).Post("/recommendations", h.Recommend)
	return r
}

// --- Catalog Tests ---

func TestListOffers_ParsesIntent(t *testing.T) {
	ranker := &fakeRanker{}
	router := newOfferRouter(ranker, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))

	r := httptest.NewRequest(http.MethodGet, "/offers?budget=250&product_type=casino&games=slots,%20blackjack&preferences=low%20wagering&user_status=existing&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ranker.intent.Budget)
	assert.Equal(t, 250.0, *ranker.intent.Budget)
	assert.Equal(t, "casino", ranker.intent.ProductType)
	assert.Equal(t, []string{"slots", "blackjack"}, ranker.intent.Games)
	assert.Equal(t, []string{"low wagering"}, ranker.intent.Preferences)
	assert.Equal(t, domain.UserStatusExisting, ranker.intent.UserStatus)
	assert.Equal(t, 5, ranker.limit)
}

func TestListOffers_RejectsBadQuery(t *testing.T) {
	for _, q := range []string{"budget=lots", "limit=-1", "user_status=vip", "budget=-5"} {
		t.Run(q, func(t *testing.T) {
			ranker := &fakeRanker{}
			router := newOfferRouter(ranker, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offers?"+q, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, ranker.calls)
		})
	}
}

func TestGetOffer(t *testing.T) {
	id := uuid.New()
	reader := &fakeReader{offer: &service.ScoredOffer{Offer: domain.Offer{ID: id, Title: "Welcome"}}}
	router := newOfferRouter(&fakeRanker{}, reader, guard.NewRateLimiter(10, time.Minute))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offers/"+id.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Welcome"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offers/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offers/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Preview Tests ---

func TestPreview(t *testing.T) {
	router := newOfferRouter(&fakeRanker{}, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))

	body := `{"raw_terms":{"match_percent":"100%","max_bonus":"200","wagering_requirement":"10x"}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers/preview", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var got service.PreviewResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 100.0, got.Budget)
	assert.InDelta(t, 65.0, got.Calculation.ValueScore, 0.001)
	assert.Equal(t, "Good", got.Rating.Label)
}

func TestPreview_RequiresTerms(t *testing.T) {
	router := newOfferRouter(&fakeRanker{}, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers/preview", strings.NewReader(`{"budget":50}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Recommendation Tests ---

func TestRecommend(t *testing.T) {
	ranker := &fakeRanker{}
	router := newOfferRouter(ranker, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))

	body := `{"budget":50,"product_type":"casino","preferences":["fast cashout"]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var got service.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Offers, 1)
	assert.Equal(t, 4, got.Considered)
	assert.Equal(t, 50.0, *ranker.intent.Budget)
}

func TestRecommend_InvalidIntent(t *testing.T) {
	ranker := &fakeRanker{}
	router := newOfferRouter(ranker, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(`{"currency":"euro"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, ranker.calls)
}

func TestRecommend_CurrencyMustBeISOCode(t *testing.T) {
	tests := []struct {
		body string
		want int
	}{
		{`{"currency":"EUR"}`, http.StatusOK},
		{`{"currency":"E1R"}`, http.StatusBadRequest},
		{`{"currency":"eur"}`, http.StatusBadRequest},
		{`{}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			router := newOfferRouter(&fakeRanker{}, &fakeReader{}, guard.NewRateLimiter(10, time.Minute))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "ISO 4217")
			}
		})
	}
}

func TestRecommend_RateLimited(t *testing.T) {
	router := newOfferRouter(&fakeRanker{}, &fakeReader{}, guard.NewRateLimiter(2, time.Minute))

	codes := []int{}
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(`{}`))
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Another client is unaffected.
	r := httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(`{}`))
	r.Header.Set("X-Forwarded-For", "203.0.113.8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OfferRanker answers catalog and recommendation queries.
type OfferRanker interface {
	Catalog(ctx context.Context, intent domain.Intent, limit int) (*service.Recommendation, error)
	Recommend(ctx context.Context, intent domain.Intent) (*service.Recommendation, error)
}

// OfferReader loads a single offer with its valuation.
type OfferReader interface {
	Get(ctx context.Context, id uuid.UUID) (*service.ScoredOffer, error)
}

// OfferHandler serves the public catalog, offer detail, live preview and
// recommendation endpoints.
type OfferHandler struct {
	ranker        OfferRanker
	reader        OfferReader
	defaultBudget float64
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(ranker OfferRanker, reader OfferReader, defaultBudget float64) *OfferHandler {
	return &OfferHandler{ranker: ranker, reader: reader, defaultBudget: defaultBudget}
}

// ListOffers handles GET /offers. The query string carries an optional intent:
// budget, product_type, games and preferences (comma separated), user_status
// and limit.
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	intent, limit, err := intentFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	rec, err := h.ranker.Catalog(r.Context(), intent, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rec)
}

// GetOffer handles GET /offers/{id}.
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid offer id"))
		return
	}

	offer, err := h.reader.Get(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, offer)
}

// Preview handles POST /offers/preview. Nothing is persisted.
func (h *OfferHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var in service.PreviewInput
	if err := DecodeJSON(r, &in); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := service.Preview(in, h.defaultBudget)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Recommend handles POST /recommendations with a structured intent body.
func (h *OfferHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var intent domain.Intent
	if err := DecodeAndValidate(r, &intent); err != nil {
		RespondError(w, err)
		return
	}

	rec, err := h.ranker.Recommend(r.Context(), intent)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rec)
}

func intentFromQuery(r *http.Request) (domain.Intent, int, error) {
	q := r.URL.Query()
	intent := domain.Intent{
		Currency:      q.Get("currency"),
		Location:      q.Get("location"),
		ProductType:   q.Get("product_type"),
		Games:         splitParam(q.Get("games")),
		UserStatus:    domain.UserStatus(q.Get("user_status")),
		Preferences:   splitParam(q.Get("preferences")),
		RiskTolerance: q.Get("risk_tolerance"),
	}

	if v := q.Get("budget"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return intent, 0, domain.ErrValidation("budget must be a number")
		}
		intent.Budget = &b
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return intent, 0, domain.ErrValidation("limit must be a non-negative integer")
		}
		limit = n
	}

	if err := Validate(&intent); err != nil {
		return intent, 0, err
	}
	return intent, limit, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RateLimit rejects callers over the limiter's budget, keyed by client IP.
func RateLimit(rl *guard.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res := rl.Check(r.Context(), ClientIP(r)); !res.Allowed {
				w.Header().Set("Retry-After", "60")
				RespondError(w, domain.ErrRateLimited(res.Reason))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/guard"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/google/uuid"
)

// OfferIngester upserts scraped offers.
type OfferIngester interface {
	Ingest(ctx context.Context, in service.IngestInput) (*service.ScoredOffer, bool, error)
}

// IngestHandler accepts scraper batches over HTTP.
type IngestHandler struct {
	ingester OfferIngester
	dedup    *guard.IdempotencyGuard
	logger   *slog.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingester OfferIngester, dedup *guard.IdempotencyGuard, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{ingester: ingester, dedup: dedup, logger: logger}
}

type ingestBatch struct {
	Offers []service.IngestInput `json:"offers" validate:"required,min=1,max=100,dive"`
}

type ingestResult struct {
	OfferID    uuid.UUID     `json:"offer_id"`
	Title      string        `json:"title"`
	Inserted   bool          `json:"inserted"`
	ValueScore float64       `json:"value_score"`
	Rating     domain.Rating `json:"rating"`
}

type ingestResponse struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Results  []ingestResult `json:"results"`
}

// IngestOffers handles POST /ingest/offers. A repeated Idempotency-Key from
// the same client is rejected with 409; a failed batch releases its key for retry.
func (h *IngestHandler) IngestOffers(w http.ResponseWriter, r *http.Request) {
	client := ""
	if tok := auth.IngestTokenFromContext(r.Context()); tok != nil {
		client = tok.Sub
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		key = client + "/" + key
	}
	if res := h.dedup.Check(r.Context(), key); !res.Allowed {
		RespondError(w, domain.ErrConflict(res.Reason))
		return
	}

	var batch ingestBatch
	if err := DecodeAndValidate(r, &batch); err != nil {
		h.dedup.Remove(key)
		RespondError(w, err)
		return
	}

	resp := ingestResponse{Results: make([]ingestResult, 0, len(batch.Offers))}
	for _, in := range batch.Offers {
		scored, inserted, err := h.ingester.Ingest(r.Context(), in)
		if err != nil {
			h.dedup.Remove(key)
			h.logger.Error("ingest offer failed", "title", in.Title, "operator", in.Operator, "error", err)
			RespondError(w, err)
			return
		}
		if inserted {
			resp.Inserted++
		} else {
			resp.Updated++
		}
		resp.Results = append(resp.Results, ingestResult{
			OfferID:    scored.Offer.ID,
			Title:      scored.Offer.Title,
			Inserted:   inserted,
			ValueScore: scored.Calculation.ValueScore,
			Rating:     scored.Rating,
		})
	}

	h.logger.Info("ingest batch processed", "client", client, "inserted", resp.Inserted, "updated", resp.Updated)
	RespondJSON(w, http.StatusOK, resp)
}

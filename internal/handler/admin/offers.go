package admin

import (
	"context"
	"net/http"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/handler"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/attaboy/bonusvalue/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OfferManager is the write side of the offer catalog.
type OfferManager interface {
	Create(ctx context.Context, in service.OfferInput) (*service.ScoredOffer, error)
	Update(ctx context.Context, id uuid.UUID, in service.OfferInput) (*service.ScoredOffer, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error)
	Get(ctx context.Context, id uuid.UUID) (*service.ScoredOffer, error)
	List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, error)
	RescoreAll(ctx context.Context) (int, error)
}

// OfferAdminHandler handles admin offer management.
type OfferAdminHandler struct {
	offers OfferManager
}

// NewOfferAdminHandler creates a new OfferAdminHandler.
func NewOfferAdminHandler(offers OfferManager) *OfferAdminHandler {
	return &OfferAdminHandler{offers: offers}
}

// ListOffers handles GET /admin/offers. Unlike the public catalog it includes
// paused and expired offers; filter with ?status= and ?operator_id=.
func (h *OfferAdminHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	var filter repository.OfferFilter
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = domain.OfferStatus(s)
		if err := domain.ValidateOfferStatus(filter.Status); err != nil {
			handler.RespondError(w, domain.ErrValidation(err.Error()))
			return
		}
	}
	if s := r.URL.Query().Get("operator_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			handler.RespondError(w, domain.ErrValidation("invalid operator_id"))
			return
		}
		filter.OperatorID = id
	}

	offers, err := h.offers.List(r.Context(), filter)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, offers)
}

// GetOffer handles GET /admin/offers/{id}.
func (h *OfferAdminHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := offerID(w, r)
	if !ok {
		return
	}
	offer, err := h.offers.Get(r.Context(), id)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, offer)
}

// CreateOffer handles POST /admin/offers.
func (h *OfferAdminHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var in service.OfferInput
	if err := handler.DecodeAndValidate(r, &in); err != nil {
		handler.RespondError(w, err)
		return
	}

	offer, err := h.offers.Create(r.Context(), in)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, offer)
}

// UpdateOffer handles PUT /admin/offers/{id}.
func (h *OfferAdminHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := offerID(w, r)
	if !ok {
		return
	}
	var in service.OfferInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	// The path names the offer; operator_id may be omitted.
	if err := handler.ValidatePartial(&in, "Title", "ProductType", "Status"); err != nil {
		handler.RespondError(w, err)
		return
	}

	offer, err := h.offers.Update(r.Context(), id, in)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, offer)
}

// UpdateOfferStatus handles PATCH /admin/offers/{id}/status.
func (h *OfferAdminHandler) UpdateOfferStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := offerID(w, r)
	if !ok {
		return
	}
	var input struct {
		Status domain.OfferStatus `json:"status" validate:"required,oneof=active paused expired"`
	}
	if err := handler.DecodeAndValidate(r, &input); err != nil {
		handler.RespondError(w, err)
		return
	}

	offer, err := h.offers.SetStatus(r.Context(), id, input.Status)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, offer)
}

// RescoreAll handles POST /admin/offers/rescore.
func (h *OfferAdminHandler) RescoreAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.offers.RescoreAll(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]int{"rescored": n})
}

func offerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid offer id"))
		return uuid.Nil, false
	}
	return id, true
}

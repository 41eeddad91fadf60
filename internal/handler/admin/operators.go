package admin

import (
	"context"
	"net/http"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/handler"
	"github.com/attaboy/bonusvalue/internal/service"
)

// OperatorManager creates and lists operators.
type OperatorManager interface {
	Create(ctx context.Context, in service.OperatorInput) (*domain.Operator, error)
	List(ctx context.Context) ([]domain.Operator, error)
}

// OperatorAdminHandler handles admin operator management.
type OperatorAdminHandler struct {
	operators OperatorManager
}

// NewOperatorAdminHandler creates a new OperatorAdminHandler.
func NewOperatorAdminHandler(operators OperatorManager) *OperatorAdminHandler {
	return &OperatorAdminHandler{operators: operators}
}

// ListOperators handles GET /admin/operators.
func (h *OperatorAdminHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	ops, err := h.operators.List(r.Context())
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, ops)
}

// CreateOperator handles POST /admin/operators.
func (h *OperatorAdminHandler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var in service.OperatorInput
	if err := handler.DecodeAndValidate(r, &in); err != nil {
		handler.RespondError(w, err)
		return
	}

	op, err := h.operators.Create(r.Context(), in)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, op)
}

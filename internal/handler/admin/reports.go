package admin

import (
	"net/http"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/handler"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/google/uuid"
)

// ReportsHandler serves catalog reports for the back office.
type ReportsHandler struct {
	db repository.DBTX
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(db repository.DBTX) *ReportsHandler {
	return &ReportsHandler{db: db}
}

// GetDashboardStats handles GET /admin/reports/dashboard.
func (h *ReportsHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	type stats struct {
		TotalOffers   int     `json:"total_offers"`
		ActiveOffers  int     `json:"active_offers"`
		PausedOffers  int     `json:"paused_offers"`
		ExpiredOffers int     `json:"expired_offers"`
		Operators     int     `json:"operators"`
		AvgScore      float64 `json:"avg_active_score"`
		PendingEvents int     `json:"pending_outbox_events"`
	}

	var s stats
	err := h.db.QueryRow(r.Context(), `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'paused'),
		       COUNT(*) FILTER (WHERE status = 'expired'),
		       COALESCE(ROUND(AVG(value_score) FILTER (WHERE status = 'active'), 1), 0)::float8
		FROM offers`).Scan(&s.TotalOffers, &s.ActiveOffers, &s.PausedOffers, &s.ExpiredOffers, &s.AvgScore)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("offer stats", err))
		return
	}

	if err := h.db.QueryRow(r.Context(), `SELECT COUNT(*) FROM operators`).Scan(&s.Operators); err != nil {
		handler.RespondError(w, domain.ErrInternal("operator count", err))
		return
	}
	if err := h.db.QueryRow(r.Context(), `
		SELECT COUNT(*) FROM event_outbox WHERE "publishedAt" IS NULL`).Scan(&s.PendingEvents); err != nil {
		handler.RespondError(w, domain.ErrInternal("outbox count", err))
		return
	}

	handler.RespondJSON(w, http.StatusOK, s)
}

// GetOperatorReport handles GET /admin/reports/operators: active offer count
// and score spread per operator, best average first.
func (h *ReportsHandler) GetOperatorReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(r.Context(), `
		SELECT op.id, op.name,
		       COUNT(o.id),
		       COALESCE(ROUND(AVG(o.value_score), 1), 0)::float8,
		       COALESCE(MAX(o.value_score), 0)::float8
		FROM operators op
		LEFT JOIN offers o ON o.operator_id = op.id AND o.status = 'active'
		GROUP BY op.id, op.name
		ORDER BY 4 DESC, op.name ASC`)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("query report", err))
		return
	}
	defer rows.Close()

	type operatorSummary struct {
		OperatorID   uuid.UUID `json:"operator_id"`
		Name         string    `json:"name"`
		ActiveOffers int       `json:"active_offers"`
		AvgScore     float64   `json:"avg_score"`
		BestScore    float64   `json:"best_score"`
	}

	summaries := []operatorSummary{}
	for rows.Next() {
		var s operatorSummary
		if err := rows.Scan(&s.OperatorID, &s.Name, &s.ActiveOffers, &s.AvgScore, &s.BestScore); err != nil {
			handler.RespondError(w, domain.ErrInternal("scan report", err))
			return
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		handler.RespondError(w, domain.ErrInternal("read report", err))
		return
	}

	handler.RespondJSON(w, http.StatusOK, summaries)
}

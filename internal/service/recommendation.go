package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/metrics"
	"github.com/attaboy/bonusvalue/internal/recommend"
	"github.com/attaboy/bonusvalue/internal/repository"
)

// Ranking sources, used as the metrics label.
const (
	SourceCatalog        = "catalog"
	SourceRecommendation = "recommendation"
)

// RecommendationService answers catalog and recommendation queries from the
// active offer catalog. Scores are the ones persisted at write time.
type RecommendationService struct {
	db     repository.DBTX
	offers repository.OfferRepository
	limit  int
	logger *slog.Logger
}

// NewRecommendationService creates a RecommendationService returning at most
// limit offers per recommendation.
func NewRecommendationService(db repository.DBTX, offers repository.OfferRepository, limit int, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{db: db, offers: offers, limit: limit, logger: logger}
}

// Recommendation is the answer to one structured intent. Excluded counts the
// offers the intent filtered out, keyed by the first constraint they failed.
type Recommendation struct {
	Offers     []domain.RankedOffer `json:"offers"`
	Considered int                  `json:"considered"`
	Matched    int                  `json:"matched"`
	Excluded   map[string]int       `json:"excluded,omitempty"`
}

// Recommend returns the top offers for intent.
func (s *RecommendationService) Recommend(ctx context.Context, intent domain.Intent) (*Recommendation, error) {
	return s.rank(ctx, intent, s.limit, SourceRecommendation)
}

// Catalog returns the full ranked catalog narrowed by intent. limit <= 0 returns everything.
func (s *RecommendationService) Catalog(ctx context.Context, intent domain.Intent, limit int) (*Recommendation, error) {
	return s.rank(ctx, intent, limit, SourceCatalog)
}

func (s *RecommendationService) rank(ctx context.Context, intent domain.Intent, limit int, source string) (*Recommendation, error) {
	offers, err := s.offers.List(ctx, s.db, repository.OfferFilter{Status: domain.OfferStatusActive})
	if err != nil {
		return nil, domain.ErrInternal("load catalog", err)
	}

	start := time.Now()
	matched := recommend.Filter(offers, intent)
	ranked := recommend.Top(recommend.Rank(matched, intent), limit)
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	metrics.RecommendTotal.WithLabelValues(source).Inc()
	metrics.FilterResults.WithLabelValues("pass").Add(float64(len(matched)))
	metrics.FilterResults.WithLabelValues("fail").Add(float64(len(offers) - len(matched)))

	if ranked == nil {
		ranked = []domain.RankedOffer{}
	}

	var excluded map[string]int
	if len(matched) < len(offers) {
		excluded = make(map[string]int)
		for _, o := range offers {
			if why := recommend.Reason(o, intent); why != "" {
				excluded[why]++
			}
		}
	}

	s.logger.Debug("ranking served",
		"source", source,
		"considered", len(offers),
		"matched", len(matched),
		"returned", len(ranked),
	)
	return &Recommendation{Offers: ranked, Considered: len(offers), Matched: len(matched), Excluded: excluded}, nil
}

package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewOfferScoredEvent records a freshly persisted value score for an offer.
func NewOfferScoredEvent(offer *Offer, rating Rating) OutboxDraft {
	var score, ev float64
	if offer.ValueScore != nil {
		score = *offer.ValueScore
	}
	if offer.ExpectedValue != nil {
		ev = *offer.ExpectedValue
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"offer_id":       offer.ID.String(),
		"operator_id":    offer.OperatorID.String(),
		"value_score":    score,
		"expected_value": ev,
		"rating":         rating.Label,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateOffer,
		AggregateID:   offer.ID.String(),
		EventType:     EventOfferScored,
		PartitionKey:  offer.OperatorID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewOfferStatusEvent records an offer being activated, paused or expired.
func NewOfferStatusEvent(offerID, operatorID uuid.UUID, status OfferStatus) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"offer_id": offerID.String(),
		"status":   string(status),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateOffer,
		AggregateID:   offerID.String(),
		EventType:     EventOfferStatusChanged,
		PartitionKey:  operatorID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

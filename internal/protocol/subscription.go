package protocol

import "time"

// Subscription describes what a client wants to be notified about.
// It is immutable once created; a new Subscribe call replaces the
// stored descriptor rather than mutating it.
type Subscription struct {
	Symbols            []string  `json:"symbols"`
	NotificationTypes  []string  `json:"notification_types"`
	PriceThreshold     *float64  `json:"price_threshold,omitempty"`
	SentimentThreshold *float64  `json:"sentiment_threshold,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewSubscription records a subscription request. Symbol and type
// slices are copied so later caller mutations cannot leak in.
func NewSubscription(symbols, notificationTypes []string, priceThreshold, sentimentThreshold *float64) Subscription {
	return Subscription{
		Symbols:            append([]string(nil), symbols...),
		NotificationTypes:  append([]string(nil), notificationTypes...),
		PriceThreshold:     priceThreshold,
		SentimentThreshold: sentimentThreshold,
		CreatedAt:          time.Now().UTC(),
	}
}

// Payload renders the descriptor as the data map of a subscribe
// message. Replaying a stored subscription produces a payload
// identical to the original subscribe, which keeps recovery
// idempotent from the server's perspective.
func (s Subscription) Payload() map[string]any {
	payload := map[string]any{
		"symbols":            append([]string(nil), s.Symbols...),
		"notification_types": append([]string(nil), s.NotificationTypes...),
	}
	if s.PriceThreshold != nil {
		payload["price_threshold"] = *s.PriceThreshold
	}
	if s.SentimentThreshold != nil {
		payload["sentiment_threshold"] = *s.SentimentThreshold
	}
	return payload
}

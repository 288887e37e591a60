package protocol

import (
	"reflect"
	"testing"
)

func TestNewSubscription_CopiesSlices(t *testing.T) {
	symbols := []string{"AAPL", "MSFT"}
	types := []string{"price_alert"}

	sub := NewSubscription(symbols, types, nil, nil)

	symbols[0] = "TSLA"
	types[0] = "sentiment_change"

	if sub.Symbols[0] != "AAPL" {
		t.Errorf("Symbols[0] = %s, caller mutation leaked in", sub.Symbols[0])
	}
	if sub.NotificationTypes[0] != "price_alert" {
		t.Errorf("NotificationTypes[0] = %s, caller mutation leaked in", sub.NotificationTypes[0])
	}
}

func TestSubscription_Payload(t *testing.T) {
	price := 150.0
	sentiment := 0.3
	sub := NewSubscription([]string{"AAPL", "MSFT"}, []string{"price_alert"}, &price, &sentiment)

	payload := sub.Payload()

	if !reflect.DeepEqual(payload["symbols"], []string{"AAPL", "MSFT"}) {
		t.Errorf("symbols = %v", payload["symbols"])
	}
	if !reflect.DeepEqual(payload["notification_types"], []string{"price_alert"}) {
		t.Errorf("notification_types = %v", payload["notification_types"])
	}
	if payload["price_threshold"] != 150.0 {
		t.Errorf("price_threshold = %v, want 150", payload["price_threshold"])
	}
	if payload["sentiment_threshold"] != 0.3 {
		t.Errorf("sentiment_threshold = %v, want 0.3", payload["sentiment_threshold"])
	}
}

func TestSubscription_PayloadOmitsUnsetThresholds(t *testing.T) {
	sub := NewSubscription([]string{"AAPL"}, []string{"price_alert"}, nil, nil)
	payload := sub.Payload()

	if _, ok := payload["price_threshold"]; ok {
		t.Error("price_threshold should be absent when unset")
	}
	if _, ok := payload["sentiment_threshold"]; ok {
		t.Error("sentiment_threshold should be absent when unset")
	}
}

func TestSubscription_PayloadStable(t *testing.T) {
	// Replay must produce a payload identical to the original subscribe.
	sub := NewSubscription([]string{"AAPL", "MSFT"}, []string{"price_alert", "sentiment_change"}, nil, nil)

	first := sub.Payload()
	second := sub.Payload()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("payloads differ: %v vs %v", first, second)
	}
}

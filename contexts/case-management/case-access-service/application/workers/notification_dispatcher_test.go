package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lexcase/contexts/case-management/case-access-service/ports"
)

func TestDispatcherRejectsMalformedPayload(t *testing.T) {
	dispatcher := NotificationDispatcher{}

	err := dispatcher.handleNotification(context.Background(), ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "case.access.requested",
		Data:      json.RawMessage(`{"recipient_id":`),
	})
	if err == nil {
		t.Fatalf("malformed payload should fail")
	}

	err = dispatcher.handleNotification(context.Background(), ports.EventEnvelope{
		EventID:   "evt-2",
		EventType: "case.access.requested",
		Data:      json.RawMessage(`{"case_id":"case-1"}`),
	})
	if err == nil {
		t.Fatalf("payload without recipient should fail")
	}
}

func TestDispatcherAcceptsRelayedEnvelope(t *testing.T) {
	data, err := json.Marshal(map[string]string{
		"case_id":      "case-1",
		"lawyer_id":    "lawyer-1",
		"recipient_id": "client-1",
		"grant_status": "pending",
	})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	dispatcher := NotificationDispatcher{}
	err = dispatcher.handleNotification(context.Background(), ports.EventEnvelope{
		EventID:    "evt-1",
		EventType:  "case.access.requested",
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("well-formed envelope should dispatch: %v", err)
	}
}

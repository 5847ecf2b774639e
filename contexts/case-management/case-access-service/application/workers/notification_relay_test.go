package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexcase/contexts/case-management/case-access-service/adapters/memory"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type recordingPublisher struct {
	published []ports.EventEnvelope
	topics    []string
	fail      bool
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, eventID string) {
	t.Helper()
	grant := entities.AccessGrant{
		GrantID:     "grant-" + eventID,
		CaseID:      "case-" + eventID,
		LawyerID:    "lawyer-1",
		Status:      entities.GrantStatusPending,
		RequestedAt: time.Now().UTC(),
	}
	notification := ports.AccessNotification{
		EventID:     eventID,
		EventType:   "case.access.requested",
		CaseID:      grant.CaseID,
		LawyerID:    grant.LawyerID,
		RecipientID: "client-1",
		GrantStatus: "pending",
		OccurredAt:  time.Now().UTC(),
	}
	if err := store.CreateGrant(context.Background(), grant, notification); err != nil {
		t.Fatalf("seed outbox: %v", err)
	}
}

func TestRelayPublishesAndMarksSent(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1")
	seedOutbox(t, store, "evt-2")

	publisher := &recordingPublisher{}
	relay := NotificationRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(publisher.published))
	}
	for _, topic := range publisher.topics {
		if topic != "case.access.notifications" {
			t.Fatalf("unexpected topic %s", topic)
		}
	}
	if publisher.published[0].EventID != "evt-1" || publisher.published[0].EventType != "case.access.requested" {
		t.Fatalf("unexpected envelope: %+v", publisher.published[0])
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("relayed messages should be marked sent, got %d pending", len(pending))
	}
}

func TestRelayLeavesMessagePendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "evt-1")

	relay := NotificationRelay{
		Outbox:    store,
		Publisher: &recordingPublisher{fail: true},
		Clock:     store,
	}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed message must stay pending for the next cycle, got %d", len(pending))
	}
}

func TestRelayIdleCycle(t *testing.T) {
	store := memory.NewStore(nil)
	relay := NotificationRelay{
		Outbox:    store,
		Publisher: &recordingPublisher{},
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle cycle should be a no-op: %v", err)
	}
}

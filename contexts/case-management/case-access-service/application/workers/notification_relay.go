package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// NotificationRelay drains the access-notification outbox and publishes the
// envelopes to the event bus, where downstream channels (email, in-app)
// deliver them to case owners and lawyers. Publishing is at-least-once;
// consumers dedupe on event id.
type NotificationRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r NotificationRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = "case.access.notifications"
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("notification outbox list failed",
			"event", "case_access_outbox_list_failed",
			"module", "case-management/case-access-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("notification payload decode failed",
				"event", "case_access_outbox_decode_failed",
				"module", "case-management/case-access-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("notification publish failed",
				"event", "case_access_outbox_publish_failed",
				"module", "case-management/case-access-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, now); err != nil {
			logger.Error("notification mark sent failed",
				"event", "case_access_outbox_mark_sent_failed",
				"module", "case-management/case-access-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("notification relay cycle completed",
			"event", "case_access_outbox_relay_completed",
			"module", "case-management/case-access-service",
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}

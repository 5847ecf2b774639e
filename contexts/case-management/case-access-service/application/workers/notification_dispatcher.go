package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/ports"
)

const (
	accessNotificationsTopic = "case.access.notifications"
	defaultConsumerGroup     = "case-access-notifications-cg"
)

// NotificationDispatcher consumes relayed access notifications and hands
// them to the delivery channel. Delivery is currently the structured audit
// log; duplicate envelopes are harmless because recipients key on event id.
type NotificationDispatcher struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Logger        *slog.Logger
}

type accessNotificationPayload struct {
	CaseID      string `json:"case_id"`
	LawyerID    string `json:"lawyer_id"`
	RecipientID string `json:"recipient_id"`
	GrantStatus string `json:"grant_status"`
}

func (d NotificationDispatcher) Start(ctx context.Context) error {
	group := d.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}
	return d.Subscriber.Subscribe(ctx, accessNotificationsTopic, group, d.handleNotification)
}

func (d NotificationDispatcher) handleNotification(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(d.Logger)

	var payload accessNotificationPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode access notification payload: %w", err)
	}
	if payload.RecipientID == "" {
		return fmt.Errorf("access notification missing recipient_id")
	}

	logger.Info("access notification dispatched",
		"event", "case_access_notification_dispatched",
		"module", "case-management/case-access-service",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"case_id", payload.CaseID,
		"lawyer_id", payload.LawyerID,
		"recipient_id", payload.RecipientID,
		"grant_status", payload.GrantStatus,
	)
	return nil
}

package ports

import (
	"context"
	"encoding/json"
	"time"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts case/grant/outbox identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// CaseUpdate carries the mutable case fields; nil means keep current value.
type CaseUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Status      *entities.CaseStatus
}

// CaseStore encapsulates case persistence. The access engine owns the rules
// applied to this data, never the storage itself.
type CaseStore interface {
	GetCase(ctx context.Context, caseID string) (entities.Case, error)
	CreateCase(ctx context.Context, c entities.Case) error
	UpdateCase(ctx context.Context, caseID string, update CaseUpdate, updatedAt time.Time) (entities.Case, error)
	ListCaseIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	ListAllCaseIDs(ctx context.Context) ([]string, error)
	ListCasesByIDs(ctx context.Context, caseIDs []string) ([]entities.Case, error)
}

// GrantFilter narrows grant listings. Zero-value fields match everything.
type GrantFilter struct {
	CaseID   string
	LawyerID string
	Statuses []entities.GrantStatus
}

// AccessNotification is the outbound payload persisted to the outbox in the
// same transaction as the grant write, later relayed to the event bus so the
// affected party (case owner or requesting lawyer) can be notified.
type AccessNotification struct {
	EventID     string
	EventType   string
	CaseID      string
	LawyerID    string
	RecipientID string
	GrantStatus string
	OccurredAt  time.Time
}

// GrantStore owns grant persistence and the atomicity guarantees the access
// request workflow depends on.
type GrantStore interface {
	// GetActiveGrant returns the single pending or approved grant for the
	// pair, if one exists.
	GetActiveGrant(ctx context.Context, caseID string, lawyerID string) (entities.AccessGrant, bool, error)

	ListGrants(ctx context.Context, filter GrantFilter) ([]entities.AccessGrant, error)

	// CreateGrant atomically persists a pending grant and its notification.
	// The at-most-one-active-grant invariant must hold under concurrent
	// writers: a conflicting active grant yields ErrAlreadyHasAccess
	// (approved) or ErrDuplicateRequest (pending), never a second row.
	CreateGrant(ctx context.Context, grant entities.AccessGrant, notification AccessNotification) error

	// TransitionGrant is the compare-and-set primitive: the write succeeds
	// only if the grant status still equals expected at write time, and the
	// notification is persisted in the same transaction. A lost race yields
	// ErrNoPendingRequest.
	TransitionGrant(
		ctx context.Context,
		grantID string,
		expected entities.GrantStatus,
		next entities.GrantStatus,
		decidedBy string,
		decidedAt time.Time,
		notification AccessNotification,
	) (entities.AccessGrant, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope is the canonical integration event shape carried on the bus.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

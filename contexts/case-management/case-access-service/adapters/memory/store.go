package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// Store is an in-memory adapter implementing the case/grant ports for local
// runtime and tests. It is not intended as production persistence.
type Store struct {
	mu          sync.RWMutex
	cases       map[string]entities.Case
	grants      map[string]entities.AccessGrant
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
	logger      *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		cases:       make(map[string]entities.Case),
		grants:      make(map[string]entities.AccessGrant),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) GetCase(_ context.Context, caseID string) (entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[caseID]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return c, nil
}

func (s *Store) CreateCase(_ context.Context, c entities.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.CaseID]; exists {
		return domainerrors.ErrStoreInvariantBroke
	}
	s.cases[c.CaseID] = c
	return nil
}

func (s *Store) UpdateCase(_ context.Context, caseID string, update ports.CaseUpdate, updatedAt time.Time) (entities.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[caseID]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.Category != nil {
		c.Category = *update.Category
	}
	if update.Status != nil {
		c.Status = *update.Status
	}
	c.UpdatedAt = updatedAt.UTC()
	s.cases[caseID] = c
	return c, nil
}

func (s *Store) ListCaseIDsByOwner(_ context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for _, c := range s.cases {
		if c.OwnerID == ownerID {
			ids = append(ids, c.CaseID)
		}
	}
	return ids, nil
}

func (s *Store) ListAllCaseIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.cases))
	for id := range s.cases {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) ListCasesByIDs(_ context.Context, caseIDs []string) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Case, 0, len(caseIDs))
	for _, id := range caseIDs {
		if c, ok := s.cases[id]; ok {
			items = append(items, c)
		}
	}
	return items, nil
}

func (s *Store) GetActiveGrant(_ context.Context, caseID string, lawyerID string) (entities.AccessGrant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, found := s.activeGrantLocked(caseID, lawyerID)
	return grant, found, nil
}

func (s *Store) ListGrants(_ context.Context, filter ports.GrantFilter) ([]entities.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make(map[entities.GrantStatus]struct{}, len(filter.Statuses))
	for _, status := range filter.Statuses {
		statuses[status] = struct{}{}
	}

	items := make([]entities.AccessGrant, 0)
	for _, g := range s.grants {
		if filter.CaseID != "" && g.CaseID != filter.CaseID {
			continue
		}
		if filter.LawyerID != "" && g.LawyerID != filter.LawyerID {
			continue
		}
		if len(statuses) > 0 {
			if _, ok := statuses[g.Status]; !ok {
				continue
			}
		}
		items = append(items, g)
	}
	return items, nil
}

func (s *Store) CreateGrant(_ context.Context, grant entities.AccessGrant, notification ports.AccessNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A single critical section approximates the partial unique index:
	// duplicate-check and insert cannot interleave with another writer.
	if existing, found := s.activeGrantLocked(grant.CaseID, grant.LawyerID); found {
		if existing.Status == entities.GrantStatusApproved {
			return domainerrors.ErrAlreadyHasAccess
		}
		return domainerrors.ErrDuplicateRequest
	}
	if _, exists := s.grants[grant.GrantID]; exists {
		return domainerrors.ErrStoreInvariantBroke
	}

	s.grants[grant.GrantID] = grant
	if err := s.appendNotificationLocked(notification); err != nil {
		delete(s.grants, grant.GrantID)
		return err
	}

	s.logger.Info("grant and notification persisted in memory store",
		"event", "memory_create_grant",
		"module", "case-management/case-access-service",
		"layer", "adapter",
		"grant_id", grant.GrantID,
		"case_id", grant.CaseID,
		"lawyer_id", grant.LawyerID,
	)
	return nil
}

func (s *Store) TransitionGrant(
	_ context.Context,
	grantID string,
	expected entities.GrantStatus,
	next entities.GrantStatus,
	decidedBy string,
	decidedAt time.Time,
	notification ports.AccessNotification,
) (entities.AccessGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, ok := s.grants[grantID]
	if !ok || grant.Status != expected {
		// Compare-and-set failed: a concurrent decider or withdrawal won.
		return entities.AccessGrant{}, domainerrors.ErrNoPendingRequest
	}

	stamped := decidedAt.UTC()
	grant.Status = next
	grant.DecidedAt = &stamped
	grant.DecidedBy = decidedBy
	s.grants[grantID] = grant

	if err := s.appendNotificationLocked(notification); err != nil {
		return entities.AccessGrant{}, err
	}
	return grant, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrStoreInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("cas-%d", value), nil
}

// Notifications exposes queued outbox messages for test assertions.
func (s *Store) Notifications() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if msg, ok := s.outbox[id]; ok {
			events = append(events, msg)
		}
	}
	return events
}

func (s *Store) activeGrantLocked(caseID string, lawyerID string) (entities.AccessGrant, bool) {
	for _, g := range s.grants {
		if g.CaseID == caseID && g.LawyerID == lawyerID && g.Active() {
			return g, true
		}
	}
	return entities.AccessGrant{}, false
}

func (s *Store) appendNotificationLocked(notification ports.AccessNotification) error {
	data, err := json.Marshal(map[string]string{
		"case_id":      notification.CaseID,
		"lawyer_id":    notification.LawyerID,
		"recipient_id": notification.RecipientID,
		"grant_status": notification.GrantStatus,
	})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:       notification.EventID,
		EventType:     notification.EventType,
		OccurredAt:    notification.OccurredAt.UTC(),
		SourceService: "case-access-service",
		SchemaVersion: 1,
		PartitionKey:  notification.CaseID,
		Data:          data,
	})
	if err != nil {
		return err
	}

	s.outbox[notification.EventID] = ports.OutboxMessage{
		OutboxID:  notification.EventID,
		EventType: notification.EventType,
		Payload:   payload,
		CreatedAt: notification.OccurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, notification.EventID)
	return nil
}

package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository implements the case/grant/outbox ports on PostgreSQL. The
// at-most-one-active-grant invariant is backed by a partial unique index on
// (case_id, lawyer_id) WHERE status IN ('pending','approved'); grant
// transitions use conditional updates so terminal states are never
// overwritten by a racing decider.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	var row caseModel
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateCase(ctx context.Context, c entities.Case) error {
	row := caseModelFromEntity(c)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrStoreInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateCase(
	ctx context.Context,
	caseID string,
	update ports.CaseUpdate,
	updatedAt time.Time,
) (entities.Case, error) {
	fields := map[string]any{"updated_at": updatedAt.UTC()}
	if update.Title != nil {
		fields["title"] = *update.Title
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.Category != nil {
		fields["category"] = *update.Category
	}
	if update.Status != nil {
		fields["status"] = string(*update.Status)
	}

	result := r.db.WithContext(ctx).
		Model(&caseModel{}).
		Where("case_id = ?", caseID).
		Updates(fields)
	if result.Error != nil {
		return entities.Case{}, result.Error
	}
	if result.RowsAffected == 0 {
		// The case vanished between the authorization read and this write;
		// surfaced with the same not-found shape as any other absence.
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}

	return r.GetCase(ctx, caseID)
}

func (r *Repository) ListCaseIDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&caseModel{}).
		Where("owner_id = ?", ownerID).
		Pluck("case_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ListAllCaseIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&caseModel{}).
		Pluck("case_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ListCasesByIDs(ctx context.Context, caseIDs []string) ([]entities.Case, error) {
	if len(caseIDs) == 0 {
		return []entities.Case{}, nil
	}

	var rows []caseModel
	err := r.db.WithContext(ctx).
		Where("case_id IN ?", caseIDs).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetActiveGrant(ctx context.Context, caseID string, lawyerID string) (entities.AccessGrant, bool, error) {
	var row grantModel
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND lawyer_id = ? AND status IN ?", caseID, lawyerID, activeStatuses()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AccessGrant{}, false, nil
		}
		return entities.AccessGrant{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListGrants(ctx context.Context, filter ports.GrantFilter) ([]entities.AccessGrant, error) {
	tx := r.db.WithContext(ctx).Model(&grantModel{})
	if filter.CaseID != "" {
		tx = tx.Where("case_id = ?", filter.CaseID)
	}
	if filter.LawyerID != "" {
		tx = tx.Where("lawyer_id = ?", filter.LawyerID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		tx = tx.Where("status IN ?", statuses)
	}

	var rows []grantModel
	if err := tx.Order("requested_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.AccessGrant, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateGrant(ctx context.Context, grant entities.AccessGrant, notification ports.AccessNotification) error {
	payload, err := notificationPayload(notification)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := grantModelFromEntity(grant)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		outboxRow := outboxModel{
			OutboxID:  notification.EventID,
			EventType: notification.EventType,
			Payload:   payload,
			Status:    outboxStatusPending,
			CreatedAt: notification.OccurredAt.UTC(),
		}
		if err := tx.Create(&outboxRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrStoreInvariantBroke
			}
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return err
	}

	// The partial unique index rejected a second active grant for the pair.
	// Re-read the winner to report which conflict the caller hit.
	existing, found, lookupErr := r.GetActiveGrant(ctx, grant.CaseID, grant.LawyerID)
	if lookupErr != nil {
		return lookupErr
	}
	if found && existing.Status == entities.GrantStatusApproved {
		return domainerrors.ErrAlreadyHasAccess
	}
	return domainerrors.ErrDuplicateRequest
}

func (r *Repository) TransitionGrant(
	ctx context.Context,
	grantID string,
	expected entities.GrantStatus,
	next entities.GrantStatus,
	decidedBy string,
	decidedAt time.Time,
	notification ports.AccessNotification,
) (entities.AccessGrant, error) {
	payload, err := notificationPayload(notification)
	if err != nil {
		return entities.AccessGrant{}, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditional update is the compare-and-set: zero rows means the
		// grant left the expected status first and the caller lost the race.
		result := tx.
			Model(&grantModel{}).
			Where("grant_id = ? AND status = ?", grantID, string(expected)).
			Updates(map[string]any{
				"status":     string(next),
				"decided_at": decidedAt.UTC(),
				"decided_by": decidedBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrNoPendingRequest
		}

		outboxRow := outboxModel{
			OutboxID:  notification.EventID,
			EventType: notification.EventType,
			Payload:   payload,
			Status:    outboxStatusPending,
			CreatedAt: notification.OccurredAt.UTC(),
		}
		if err := tx.Create(&outboxRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrStoreInvariantBroke
			}
			return err
		}
		return nil
	})
	if err != nil {
		return entities.AccessGrant{}, err
	}

	var row grantModel
	if err := r.db.WithContext(ctx).Where("grant_id = ?", grantID).First(&row).Error; err != nil {
		return entities.AccessGrant{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreInvariantBroke
	}
	return nil
}

type caseModel struct {
	CaseID      string    `gorm:"column:case_id;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	Category    string    `gorm:"column:category"`
	Status      string    `gorm:"column:status"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (caseModel) TableName() string {
	return "cases"
}

func caseModelFromEntity(c entities.Case) caseModel {
	return caseModel{
		CaseID:      c.CaseID,
		OwnerID:     c.OwnerID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (m caseModel) toEntity() entities.Case {
	return entities.Case{
		CaseID:      m.CaseID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Status:      entities.CaseStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type grantModel struct {
	GrantID     string     `gorm:"column:grant_id;primaryKey"`
	CaseID      string     `gorm:"column:case_id"`
	LawyerID    string     `gorm:"column:lawyer_id"`
	Status      string     `gorm:"column:status"`
	RequestedAt time.Time  `gorm:"column:requested_at"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	DecidedBy   string     `gorm:"column:decided_by"`
}

func (grantModel) TableName() string {
	return "case_access_grants"
}

func grantModelFromEntity(g entities.AccessGrant) grantModel {
	row := grantModel{
		GrantID:     g.GrantID,
		CaseID:      g.CaseID,
		LawyerID:    g.LawyerID,
		Status:      string(g.Status),
		RequestedAt: g.RequestedAt.UTC(),
		DecidedBy:   g.DecidedBy,
	}
	if g.DecidedAt != nil {
		stamped := g.DecidedAt.UTC()
		row.DecidedAt = &stamped
	}
	return row
}

func (m grantModel) toEntity() entities.AccessGrant {
	grant := entities.AccessGrant{
		GrantID:     m.GrantID,
		CaseID:      m.CaseID,
		LawyerID:    m.LawyerID,
		Status:      entities.GrantStatus(m.Status),
		RequestedAt: m.RequestedAt.UTC(),
		DecidedBy:   m.DecidedBy,
	}
	if m.DecidedAt != nil {
		stamped := m.DecidedAt.UTC()
		grant.DecidedAt = &stamped
	}
	return grant
}

type outboxModel struct {
	OutboxID  string     `gorm:"column:outbox_id;primaryKey"`
	EventType string     `gorm:"column:event_type"`
	Payload   []byte     `gorm:"column:payload"`
	Status    string     `gorm:"column:status"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "case_access_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:  m.OutboxID,
		EventType: m.EventType,
		Payload:   append([]byte(nil), m.Payload...),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func activeStatuses() []string {
	return []string{
		string(entities.GrantStatusPending),
		string(entities.GrantStatusApproved),
	}
}

func notificationPayload(notification ports.AccessNotification) ([]byte, error) {
	data, err := json.Marshal(map[string]string{
		"case_id":      notification.CaseID,
		"lawyer_id":    notification.LawyerID,
		"recipient_id": notification.RecipientID,
		"grant_status": notification.GrantStatus,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(ports.EventEnvelope{
		EventID:       notification.EventID,
		EventType:     notification.EventType,
		OccurredAt:    notification.OccurredAt.UTC(),
		SourceService: "case-access-service",
		SchemaVersion: 1,
		PartitionKey:  notification.CaseID,
		Data:          data,
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package billing

import (
	"fmt"
	"time"

	"github.com/tabletour/tabletour/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store provides DB operations used by the billing service. Lookups that find
// nothing return gorm.ErrRecordNotFound. UpdateFields is a conditional
// single-row update: it applies only while the row still has currentStatus,
// so a concurrent writer revival and the sweep cannot clobber each other.
type Store interface {
	FindLive(kind Kind) ([]Record, error)
	FindByTuple(kind Kind, ownerRef, targetRef uint, statuses []string) (*Record, error)
	Insert(kind Kind, ownerRef, targetRef uint, fields map[string]any) (uint, error)
	UpdateFields(kind Kind, id uint, currentStatus string, fields map[string]any) (bool, error)
	GetCustomerID(userID uint) (string, error)
	SaveCustomerID(userID uint, providerCustomerID, email string) error
	Ping() error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a billing store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// recordRow is the scan target shared by all four tables; owner and target
// columns are aliased into owner_ref/target_ref per kindSpec.
type recordRow struct {
	ID                     uint
	OwnerRef               uint
	TargetRef              uint
	ExternalSubscriptionID string
	Status                 string
	RequestedAt            *time.Time
	StartDate              *time.Time
	EndDate                *time.Time
	CancelledAt            *time.Time
}

func selectColumns(spec kindSpec) string {
	return fmt.Sprintf(
		"id, %s AS owner_ref, %s AS target_ref, external_subscription_id, status, requested_at, start_date, end_date, cancelled_at",
		spec.ownerColumn, spec.targetColumn,
	)
}

func (row *recordRow) toRecord(kind Kind) Record {
	return Record{
		ID:                     row.ID,
		Kind:                   kind,
		OwnerRef:               row.OwnerRef,
		TargetRef:              row.TargetRef,
		ExternalSubscriptionID: row.ExternalSubscriptionID,
		Status:                 row.Status,
		RequestedAt:            row.RequestedAt,
		StartDate:              row.StartDate,
		EndDate:                row.EndDate,
		CancelledAt:            row.CancelledAt,
	}
}

func (s *gormStore) FindLive(kind Kind) ([]Record, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	err = s.db.Table(spec.table).
		Select(selectColumns(spec)).
		Where("status IN ?", []string{models.BillingStatusPending, models.BillingStatusActive}).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord(kind))
	}
	return records, nil
}

func (s *gormStore) FindByTuple(kind Kind, ownerRef, targetRef uint, statuses []string) (*Record, error) {
	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	err = s.db.Table(spec.table).
		Select(selectColumns(spec)).
		Where(fmt.Sprintf("%s = ? AND %s = ?", spec.ownerColumn, spec.targetColumn), ownerRef, targetRef).
		Where("status IN ?", statuses).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	rec := rows[0].toRecord(kind)
	return &rec, nil
}

func (s *gormStore) Insert(kind Kind, ownerRef, targetRef uint, fields map[string]any) (uint, error) {
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	values := map[string]any{
		spec.ownerColumn:  ownerRef,
		spec.targetColumn: targetRef,
		"created_at":      now,
		"updated_at":      now,
	}
	for k, v := range fields {
		values[k] = v
	}

	if err := s.db.Table(spec.table).Create(values).Error; err != nil {
		return 0, err
	}

	// Map-based creates do not report the generated id; re-read the row.
	rec, err := s.FindByTuple(kind, ownerRef, targetRef, []string{models.BillingStatusPending})
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (s *gormStore) UpdateFields(kind Kind, id uint, currentStatus string, fields map[string]any) (bool, error) {
	spec, err := specFor(kind)
	if err != nil {
		return false, err
	}

	values := map[string]any{"updated_at": time.Now()}
	for k, v := range fields {
		values[k] = v
	}

	tx := s.db.Table(spec.table).
		Where("id = ? AND status = ?", id, currentStatus).
		Updates(values)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (s *gormStore) GetCustomerID(userID uint) (string, error) {
	var customer models.BillingCustomer
	err := s.db.Where("user_id = ? AND provider = ?", userID, models.BillingProviderStripe).
		First(&customer).Error
	if err != nil {
		return "", err
	}
	return customer.ProviderCustomerID, nil
}

func (s *gormStore) SaveCustomerID(userID uint, providerCustomerID, email string) error {
	customer := &models.BillingCustomer{
		UserID:             userID,
		Provider:           models.BillingProviderStripe,
		ProviderCustomerID: providerCustomerID,
		Email:              email,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "provider"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_customer_id",
			"email",
			"updated_at",
		}),
	}).Create(customer).Error
}

func (s *gormStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

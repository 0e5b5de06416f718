package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// memStore is an in-memory Store with the same lookup and conditional-update
// semantics as the GORM implementation.
type memStore struct {
	mu          sync.Mutex
	nextID      uint
	records     map[Kind][]*memRecord
	customers   map[uint]string
	findLiveErr map[Kind]error
	pingErr     error
}

type memRecord struct {
	Record
	payload map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		records:     make(map[Kind][]*memRecord),
		customers:   make(map[uint]string),
		findLiveErr: make(map[Kind]error),
	}
}

// seed inserts a record directly, bypassing the writer.
func (m *memStore) seed(rec Record) *memRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	stored := &memRecord{Record: rec, payload: make(map[string]any)}
	m.records[rec.Kind] = append(m.records[rec.Kind], stored)
	return stored
}

func (m *memStore) get(kind Kind, id uint) *memRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records[kind] {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (m *memStore) count(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[kind])
}

func (m *memStore) FindLive(kind Kind) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.findLiveErr[kind]; err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range m.records[kind] {
		if rec.Status == "pending" || rec.Status == "active" {
			out = append(out, rec.Record)
		}
	}
	return out, nil
}

func (m *memStore) FindByTuple(kind Kind, ownerRef, targetRef uint, statuses []string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records[kind]
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		if rec.OwnerRef != ownerRef || rec.TargetRef != targetRef {
			continue
		}
		for _, status := range statuses {
			if rec.Status == status {
				copied := rec.Record
				return &copied, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) Insert(kind Kind, ownerRef, targetRef uint, fields map[string]any) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec := &memRecord{
		Record:  Record{ID: m.nextID, Kind: kind, OwnerRef: ownerRef, TargetRef: targetRef},
		payload: make(map[string]any),
	}
	applyFields(rec, fields)
	m.records[kind] = append(m.records[kind], rec)
	return rec.ID, nil
}

func (m *memStore) UpdateFields(kind Kind, id uint, currentStatus string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records[kind] {
		if rec.ID != id {
			continue
		}
		if rec.Status != currentStatus {
			return false, nil
		}
		applyFields(rec, fields)
		return true, nil
	}
	return false, nil
}

func (m *memStore) GetCustomerID(userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.customers[userID]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return id, nil
}

func (m *memStore) SaveCustomerID(userID uint, providerCustomerID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[userID] = providerCustomerID
	return nil
}

func (m *memStore) Ping() error {
	return m.pingErr
}

func applyFields(rec *memRecord, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "status":
			rec.Status = v.(string)
		case "external_subscription_id":
			rec.ExternalSubscriptionID = v.(string)
		case "requested_at":
			rec.RequestedAt = toTimePtr(v)
		case "start_date":
			rec.StartDate = toTimePtr(v)
		case "end_date":
			rec.EndDate = toTimePtr(v)
		case "cancelled_at":
			rec.CancelledAt = toTimePtr(v)
		default:
			rec.payload[k] = v
		}
	}
}

func toTimePtr(v any) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

// fakeProvider is a scriptable ProviderClient. Unknown subscription and
// customer ids behave like the provider's resource_missing responses.
type fakeProvider struct {
	mu sync.Mutex

	subs    map[string]*ProviderSubscription
	subErrs map[string]error
	queried []string

	customers         map[string]*ProviderCustomer
	customerLookupErr error
	createdCustomers  int

	sessions   []CheckoutSessionParams
	sessionURL string
	sessionErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		subs:       make(map[string]*ProviderSubscription),
		subErrs:    make(map[string]error),
		customers:  make(map[string]*ProviderCustomer),
		sessionURL: "https://checkout.example.com/c/session",
	}
}

func (p *fakeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queried = append(p.queried, subscriptionID)
	if err := p.subErrs[subscriptionID]; err != nil {
		return nil, err
	}
	sub, ok := p.subs[subscriptionID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (p *fakeProvider) GetCustomer(ctx context.Context, customerID string) (*ProviderCustomer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.customerLookupErr != nil {
		return nil, p.customerLookupErr
	}
	customer, ok := p.customers[customerID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copied := *customer
	return &copied, nil
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, email, name string) (*ProviderCustomer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createdCustomers++
	customer := &ProviderCustomer{ID: fmt.Sprintf("cus_new_%d", p.createdCustomers), Email: email}
	p.customers[customer.ID] = customer
	return customer, nil
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*ProviderCheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	p.sessions = append(p.sessions, params)
	return &ProviderCheckoutSession{ID: "cs_test_1", URL: p.sessionURL}, nil
}

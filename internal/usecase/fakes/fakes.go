// Package fakes provides in-memory implementations of the usecase interfaces
// for tests that need stateful collaborators.
package fakes

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iho/orgconf/internal/domain"
	"github.com/iho/orgconf/internal/usecase"
)

// FakeLocationOracle is a LocationOracle backed by
// in-memory fixtures.
type FakeLocationOracle struct {
	Countries []domain.Country
	States    map[string][]domain.State
	Cities    map[string][]domain.City // keyed by "CC/SC"
	Postal    []domain.PostalRecord
	// CityPostal maps a city name to the postal codes it owns.
	CityPostal map[string][]string

	GetCountriesFunc       func(ctx context.Context) ([]domain.Country, error)
	GetStatesFunc          func(ctx context.Context, countryCode string) ([]domain.State, error)
	GetCitiesFunc          func(ctx context.Context, countryCode, stateCode string) ([]domain.City, error)
	SearchPostalByCityFunc func(ctx context.Context, cityName string) ([]domain.PostalRecord, error)
	SearchPostalByCodeFunc func(ctx context.Context, code string) ([]domain.PostalRecord, error)
}

// NewFakeLocationOracle returns an oracle with a small India/US dataset.
func NewFakeLocationOracle() *FakeLocationOracle {
	return &FakeLocationOracle{
		Countries: []domain.Country{
			{Code: "IN", Name: "India"},
			{Code: "US", Name: "United States"},
		},
		States: map[string][]domain.State{
			"IN": {
				{Code: "KA", Name: "Karnataka", CountryCode: "IN"},
				{Code: "MH", Name: "Maharashtra", CountryCode: "IN"},
			},
			"US": {
				{Code: "CA", Name: "California", CountryCode: "US"},
			},
		},
		Cities: map[string][]domain.City{
			"IN/KA": {
				{Name: "Bengaluru", StateCode: "KA", CountryCode: "IN"},
				{Name: "Mysuru", StateCode: "KA", CountryCode: "IN"},
			},
			"IN/MH": {
				{Name: "Mumbai", StateCode: "MH", CountryCode: "IN"},
			},
			"US/CA": {
				{Name: "San Francisco", StateCode: "CA", CountryCode: "US"},
			},
		},
		Postal: []domain.PostalRecord{
			{Code: "560001", Area: "Bangalore G.P.O.", Circle: "Karnataka", District: "Bengaluru Urban", SubDistrict: "Bangalore North"},
			{Code: "570001", Area: "Mysore H.O.", Circle: "Karnataka", District: "Mysuru", SubDistrict: "Mysuru"},
			{Code: "400001", Area: "Mumbai G.P.O.", Circle: "Maharashtra", District: "Mumbai", SubDistrict: "Mumbai"},
		},
		CityPostal: map[string][]string{
			"Bengaluru": {"560001"},
			"Mysuru":    {"570001"},
			"Mumbai":    {"400001"},
		},
	}
}

func (m *FakeLocationOracle) GetCountries(ctx context.Context) ([]domain.Country, error) {
	if m.GetCountriesFunc != nil {
		return m.GetCountriesFunc(ctx)
	}
	return m.Countries, nil
}

func (m *FakeLocationOracle) GetStates(ctx context.Context, countryCode string) ([]domain.State, error) {
	if m.GetStatesFunc != nil {
		return m.GetStatesFunc(ctx, countryCode)
	}
	return m.States[countryCode], nil
}

func (m *FakeLocationOracle) GetCities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error) {
	if m.GetCitiesFunc != nil {
		return m.GetCitiesFunc(ctx, countryCode, stateCode)
	}
	return m.Cities[countryCode+"/"+stateCode], nil
}

func (m *FakeLocationOracle) SearchPostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error) {
	if m.SearchPostalByCityFunc != nil {
		return m.SearchPostalByCityFunc(ctx, cityName)
	}
	var out []domain.PostalRecord
	for _, code := range m.CityPostal[cityName] {
		for _, rec := range m.Postal {
			if rec.Code == code {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (m *FakeLocationOracle) SearchPostalByCode(ctx context.Context, code string) ([]domain.PostalRecord, error) {
	if m.SearchPostalByCodeFunc != nil {
		return m.SearchPostalByCodeFunc(ctx, code)
	}
	var out []domain.PostalRecord
	for _, rec := range m.Postal {
		if rec.Code == code {
			out = append(out, rec)
		}
	}
	return out, nil
}

// FakeDependentData is an in-memory implementation of DependentDataChecker and
// DependentDataResetter.
type FakeDependentData struct {
	mu           sync.Mutex
	transactions map[string]bool
	masters      map[string]bool
	ResetCalls   int

	HasTransactionsFunc    func(ctx context.Context, entityID string) (bool, error)
	HasMasterRecordsFunc   func(ctx context.Context, entityID string) (bool, error)
	ResetDependentDataFunc func(ctx context.Context, tx usecase.Transaction, entityID string) (domain.ResetReport, error)
}

func NewFakeDependentData() *FakeDependentData {
	return &FakeDependentData{
		transactions: make(map[string]bool),
		masters:      make(map[string]bool),
	}
}

// SetTransactions marks whether entityID has transactions.
func (m *FakeDependentData) SetTransactions(entityID string, has bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[entityID] = has
}

// SetMasters marks whether entityID has master records.
func (m *FakeDependentData) SetMasters(entityID string, has bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masters[entityID] = has
}

func (m *FakeDependentData) HasTransactions(ctx context.Context, entityID string) (bool, error) {
	if m.HasTransactionsFunc != nil {
		return m.HasTransactionsFunc(ctx, entityID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[entityID], nil
}

func (m *FakeDependentData) HasMasterRecords(ctx context.Context, entityID string) (bool, error) {
	if m.HasMasterRecordsFunc != nil {
		return m.HasMasterRecordsFunc(ctx, entityID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.masters[entityID], nil
}

func (m *FakeDependentData) ResetDependentData(ctx context.Context, tx usecase.Transaction, entityID string) (domain.ResetReport, error) {
	m.mu.Lock()
	m.ResetCalls++
	m.mu.Unlock()
	if m.ResetDependentDataFunc != nil {
		return m.ResetDependentDataFunc(ctx, tx, entityID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	report := domain.ResetReport{}
	if m.transactions[entityID] {
		report.TransactionsDeleted = 1
	}
	if m.masters[entityID] {
		report.MastersDeleted = 1
	}
	delete(m.transactions, entityID)
	delete(m.masters, entityID)
	return report, nil
}

// FakeEntityRepository is an in-memory implementation of EntityRepository.
type FakeEntityRepository struct {
	mu       sync.RWMutex
	entities map[string]*domain.Entity

	CreateTxFunc         func(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) error
	UpdateTxFunc         func(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Entity, error)
	ListSiblingNamesFunc func(ctx context.Context, kind domain.EntityKind, parentID string) ([]domain.SiblingName, error)
	UpdateAnchorTxFunc   func(ctx context.Context, tx usecase.Transaction, id string, field domain.AnchorField, value domain.Date, updatedAt time.Time) error
}

func NewFakeEntityRepository() *FakeEntityRepository {
	return &FakeEntityRepository{
		entities: make(map[string]*domain.Entity),
	}
}

// Put stores an entity directly.
func (m *FakeEntityRepository) Put(entity *domain.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[entity.ID] = entity
}

func (m *FakeEntityRepository) CreateTx(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, entity)
	}
	m.Put(entity)
	return nil
}

func (m *FakeEntityRepository) UpdateTx(ctx context.Context, tx usecase.Transaction, entity *domain.Entity) error {
	if m.UpdateTxFunc != nil {
		return m.UpdateTxFunc(ctx, tx, entity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[entity.ID]; !ok {
		return domain.ErrEntityNotFound
	}
	m.entities[entity.ID] = entity
	return nil
}

func (m *FakeEntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entities[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, domain.ErrEntityNotFound
}

func (m *FakeEntityRepository) List(ctx context.Context, kind domain.EntityKind, parentID string, limit, offset int) ([]*domain.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entity
	for _, e := range m.entities {
		if e.Kind == kind && (parentID == "" || e.ParentID == parentID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *FakeEntityRepository) ListSiblingNames(ctx context.Context, kind domain.EntityKind, parentID string) ([]domain.SiblingName, error) {
	if m.ListSiblingNamesFunc != nil {
		return m.ListSiblingNamesFunc(ctx, kind, parentID)
	}
	entities, _ := m.List(ctx, kind, parentID, 0, 0)
	names := make([]domain.SiblingName, 0, len(entities))
	for _, e := range entities {
		names = append(names, domain.SiblingName{ID: e.ID, Name: e.Name})
	}
	return names, nil
}

func (m *FakeEntityRepository) UpdateAnchorTx(ctx context.Context, tx usecase.Transaction, id string, field domain.AnchorField, value domain.Date, updatedAt time.Time) error {
	if m.UpdateAnchorTxFunc != nil {
		return m.UpdateAnchorTxFunc(ctx, tx, id, field, value, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return domain.ErrEntityNotFound
	}
	e.Anchors = e.Anchors.With(field, value)
	e.UpdatedAt = updatedAt
	return nil
}

// FakeSessionStore is an in-memory SessionStore with compare-and-set saves.
type FakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionState

	// BeforeSave runs before the revision check, e.g. to simulate a
	// concurrent writer.
	BeforeSave func(id string)
	SaveFunc   func(ctx context.Context, session *domain.SessionState, expectedRevision int64, ttl time.Duration) error
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{
		sessions: make(map[string]*domain.SessionState),
	}
}

func (m *FakeSessionStore) Create(ctx context.Context, session *domain.SessionState, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *FakeSessionStore) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *FakeSessionStore) Save(ctx context.Context, session *domain.SessionState, expectedRevision int64, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session, expectedRevision, ttl)
	}
	if m.BeforeSave != nil {
		m.BeforeSave(session.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if current.Revision != expectedRevision {
		return domain.ErrStaleSession
	}
	m.sessions[session.ID] = session.Clone()
	return nil
}

// Bump advances the stored revision as a concurrent writer would.
func (m *FakeSessionStore) Bump(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Revision++
	}
}

func (m *FakeSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// FakeOutboxRepository is an in-memory implementation of OutboxRepository.
type FakeOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewFakeOutboxRepository() *FakeOutboxRepository {
	return &FakeOutboxRepository{}
}

func (m *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			t := publishedAt
			e.PublishedAt = &t
		}
	}
	return nil
}

func (m *FakeOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// FakeAuditRepository is an in-memory implementation of AuditRepository.
type FakeAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog

	CreateTxFunc func(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error
}

func NewFakeAuditRepository() *FakeAuditRepository {
	return &FakeAuditRepository{}
}

func (m *FakeAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *FakeAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.Logs {
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Action != "" && !strings.EqualFold(l.Action, filter.Action) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// FakeTransactionManager is an in-memory implementation of TransactionManager.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu         sync.Mutex
	Committed  int
	RolledBack int
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &FakeTransaction{}
	tx.CommitFunc = func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !tx.done {
			tx.done = true
			m.Committed++
		}
		return nil
	}
	tx.RollbackFunc = func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !tx.done {
			tx.done = true
			m.RolledBack++
		}
		return nil
	}
	return tx, nil
}

// FakeTransaction is an in-memory implementation of Transaction.
type FakeTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	done bool
}

func (m *FakeTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *FakeTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// FakeIDGenerator is an in-memory implementation of IDGenerator.
type FakeIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{}
}

func (m *FakeIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// FakeIdempotencyStore is an in-memory implementation of IdempotencyStore.
type FakeIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func (m *FakeIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *FakeIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

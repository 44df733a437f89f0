package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridebook/internal/domain"
	"ridebook/internal/gateway"
	"ridebook/internal/redis"
	"ridebook/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide seeds a ride into the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return m.GetByID(ctx, id)
}

func (m *MockRideRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.PassengerID == passengerID && r.RetiredAt.IsZero() {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID && r.RetiredAt.IsZero() {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockRideRepository) CountPendingByPassenger(ctx context.Context, passengerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, r := range m.rides {
		if r.PassengerID == passengerID && r.Status == domain.RideStatusPending && r.RetiredAt.IsZero() {
			count++
		}
	}
	return count, nil
}

func (m *MockRideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	UpdateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver seeds a driver into the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// GetDriver returns the stored driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDriverRepository) ListAvailable(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Driver
	for _, d := range m.drivers {
		if d.Approval == domain.DriverApprovalApproved && d.IsAvailable && d.RetiredAt.IsZero() {
			copy := *d
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].VehicleName < result[j].VehicleName })
	return result, nil
}

func (m *MockDriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[driver.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	UpdateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment seeds a payment into the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Reference == payment.Reference {
			return repository.ErrDuplicate
		}
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.Reference == reference {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Payment, error) {
	return m.GetByReference(ctx, reference)
}

func (m *MockPaymentRepository) GetPendingByRideForUpdate(ctx context.Context, rideID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.Payment
	for _, p := range m.payments {
		if p.RideID == rideID && p.Status == domain.PaymentStatusPending {
			if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
				latest = p
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (m *MockPaymentRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range m.payments {
		if p.RideID == rideID {
			copy := *p
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

// ──────────────────────────────────────────────
// MOCK RATING REPOSITORY
// ──────────────────────────────────────────────

// MockRatingRepository is a mock implementation of RatingRepository.
type MockRatingRepository struct {
	mu      sync.RWMutex
	ratings map[string]*domain.Rating // keyed by ride ID

	CreateCallCount int32
	CreateError     error
}

// NewMockRatingRepository creates a new mock rating repository.
func NewMockRatingRepository() *MockRatingRepository {
	return &MockRatingRepository{
		ratings: make(map[string]*domain.Rating),
	}
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ratings[rating.RideID]; ok {
		return repository.ErrDuplicate
	}
	copy := *rating
	m.ratings[rating.RideID] = &copy
	return nil
}

func (m *MockRatingRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rating, ok := m.ratings[rideID]
	if !ok {
		return nil, nil
	}
	copy := *rating
	return &copy, nil
}

func (m *MockRatingRepository) AverageForDriver(ctx context.Context, driverID string) (float64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum, count int
	for _, r := range m.ratings {
		if r.DriverID == driverID {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// ──────────────────────────────────────────────
// MOCK AUDIT LOG REPOSITORY
// ──────────────────────────────────────────────

// MockAuditLogRepository is a mock implementation of AuditLogRepository.
type MockAuditLogRepository struct {
	mu      sync.RWMutex
	Entries []*domain.AuditLog

	CreateError error
}

// NewMockAuditLogRepository creates a new mock audit log repository.
func NewMockAuditLogRepository() *MockAuditLogRepository {
	return &MockAuditLogRepository{}
}

func (m *MockAuditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *entry
	m.Entries = append(m.Entries, &copy)
	return nil
}

// EntryCount returns the number of recorded entries.
func (m *MockAuditLogRepository) EntryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Entries)
}

// LastEntry returns the most recent entry, nil if none.
func (m *MockAuditLogRepository) LastEntry() *domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs transactional functions against the in-memory mocks.
// A single mutex serializes transactions, which stands in for the row locks
// the ForUpdate reads take in Postgres: of two concurrent conflicting
// operations, one observes the other's committed writes.
type MockTxManager struct {
	mu sync.Mutex
	Tx *repository.Tx

	// BeginError aborts WithinTx before fn runs.
	BeginError error
}

// NewMockTxManager creates a MockTxManager over fresh mock repositories.
func NewMockTxManager() (*MockTxManager, *MockRideRepository, *MockDriverRepository, *MockPaymentRepository, *MockRatingRepository, *MockAuditLogRepository) {
	rides := NewMockRideRepository()
	drivers := NewMockDriverRepository()
	payments := NewMockPaymentRepository()
	ratings := NewMockRatingRepository()
	audits := NewMockAuditLogRepository()
	m := &MockTxManager{
		Tx: &repository.Tx{
			Rides:     rides,
			Drivers:   drivers,
			Payments:  payments,
			Ratings:   ratings,
			AuditLogs: audits,
		},
	}
	return m, rides, drivers, payments, ratings, audits
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *repository.Tx) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.Tx)
}

// ──────────────────────────────────────────────
// MOCK GATEWAY CLIENT
// ──────────────────────────────────────────────

// MockGateway is a mock implementation of the gateway Client.
type MockGateway struct {
	InitializeFunc func(ctx context.Context, req gateway.InitializeRequest) (string, error)
	VerifyFunc     func(ctx context.Context, reference string) (*gateway.VerifyResult, error)

	InitializeCallCount int32
	VerifyCallCount     int32

	mu              sync.Mutex
	InitializeCalls []gateway.InitializeRequest
}

func (m *MockGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (string, error) {
	atomic.AddInt32(&m.InitializeCallCount, 1)
	m.mu.Lock()
	m.InitializeCalls = append(m.InitializeCalls, req)
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, req)
	}
	return "https://checkout.example/" + req.Reference, nil
}

func (m *MockGateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	atomic.AddInt32(&m.VerifyCallCount, 1)
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	return &gateway.VerifyResult{Success: true, Status: "success"}, nil
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockDriverCache is an in-memory stand-in for the available-driver cache.
type MockDriverCache struct {
	mu      sync.Mutex
	entries []redis.CachedDriver
	set     bool

	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	GetError error
	SetError error
}

func (m *MockDriverCache) GetAvailable(ctx context.Context) ([]redis.CachedDriver, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, nil
	}
	return append([]redis.CachedDriver(nil), m.entries...), nil
}

func (m *MockDriverCache) SetAvailable(ctx context.Context, drivers []redis.CachedDriver) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]redis.CachedDriver(nil), drivers...)
	m.set = true
	return nil
}

func (m *MockDriverCache) InvalidateAvailable(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.set = false
	return nil
}

// MockLockStore is an in-memory stand-in for the reference lock.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[reference] {
		return false, nil
	}
	m.locks[reference] = true
	return true, nil
}

func (m *MockLockStore) ReleaseReferenceLock(ctx context.Context, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, reference)
	return nil
}

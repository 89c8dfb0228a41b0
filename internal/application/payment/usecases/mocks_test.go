package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/domain/rate"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// =============================================================================
// Payment repository
// =============================================================================

type mockPaymentRepository struct {
	CreateFunc               func(ctx context.Context, p *payment.Payment) error
	SaveAddressFunc          func(ctx context.Context, p *payment.Payment) error
	GetByIDFunc              func(ctx context.Context, id uint) (*payment.Payment, error)
	GetByIDForUpdateFunc     func(ctx context.Context, id uint) (*payment.Payment, error)
	GetByAddressFunc         func(ctx context.Context, address string) (*payment.Payment, error)
	GetByTransactionHashFunc func(ctx context.Context, hash string) (*payment.Payment, error)
	FindUnconfirmedFunc      func(ctx context.Context) ([]*payment.Payment, error)
	FindUnpaidFunc           func(ctx context.Context) ([]*payment.Payment, error)
	FindStaleFunc            func(ctx context.Context, updatedBefore time.Time) ([]*payment.Payment, error)
	SaveLedgerFunc           func(ctx context.Context, p *payment.Payment, changed []*payment.Transaction) error
	SaveStateFunc            func(ctx context.Context, p *payment.Payment, from vo.PaymentState) error
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepository) SaveAddress(ctx context.Context, p *payment.Payment) error {
	if m.SaveAddressFunc != nil {
		return m.SaveAddressFunc(ctx, p)
	}
	return nil
}

func (m *mockPaymentRepository) GetByID(ctx context.Context, id uint) (*payment.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (m *mockPaymentRepository) GetByIDForUpdate(ctx context.Context, id uint) (*payment.Payment, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockPaymentRepository) GetByAddress(ctx context.Context, address string) (*payment.Payment, error) {
	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (m *mockPaymentRepository) GetByTransactionHash(ctx context.Context, hash string) (*payment.Payment, error) {
	if m.GetByTransactionHashFunc != nil {
		return m.GetByTransactionHashFunc(ctx, hash)
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (m *mockPaymentRepository) FindUnconfirmed(ctx context.Context) ([]*payment.Payment, error) {
	if m.FindUnconfirmedFunc != nil {
		return m.FindUnconfirmedFunc(ctx)
	}
	return nil, nil
}

func (m *mockPaymentRepository) FindUnpaid(ctx context.Context) ([]*payment.Payment, error) {
	if m.FindUnpaidFunc != nil {
		return m.FindUnpaidFunc(ctx)
	}
	return nil, nil
}

func (m *mockPaymentRepository) FindStale(ctx context.Context, updatedBefore time.Time) ([]*payment.Payment, error) {
	if m.FindStaleFunc != nil {
		return m.FindStaleFunc(ctx, updatedBefore)
	}
	return nil, nil
}

func (m *mockPaymentRepository) SaveLedger(ctx context.Context, p *payment.Payment, changed []*payment.Transaction) error {
	if m.SaveLedgerFunc != nil {
		return m.SaveLedgerFunc(ctx, p, changed)
	}
	return nil
}

func (m *mockPaymentRepository) SaveState(ctx context.Context, p *payment.Payment, from vo.PaymentState) error {
	if m.SaveStateFunc != nil {
		return m.SaveStateFunc(ctx, p, from)
	}
	return nil
}

// memoryStore backs a mockPaymentRepository with a map and enforces the state compare-and-set.
type memoryStore struct {
	mu          sync.Mutex
	payments    map[uint]*payment.Payment
	states      map[uint]vo.PaymentState
	ledgerSaves int
}

func newMemoryRepository(payments ...*payment.Payment) (*mockPaymentRepository, *memoryStore) {
	store := &memoryStore{
		payments: make(map[uint]*payment.Payment),
		states:   make(map[uint]vo.PaymentState),
	}
	for _, p := range payments {
		store.payments[p.ID()] = p
		store.states[p.ID()] = p.State()
	}

	repo := &mockPaymentRepository{
		GetByIDFunc: func(ctx context.Context, id uint) (*payment.Payment, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			p, ok := store.payments[id]
			if !ok {
				return nil, errors.NewNotFoundError("payment not found")
			}
			return p, nil
		},
		FindUnconfirmedFunc: func(ctx context.Context) ([]*payment.Payment, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			var out []*payment.Payment
			for id, p := range store.payments {
				if store.states[id].IsUnconfirmed() {
					out = append(out, p)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
			return out, nil
		},
		SaveLedgerFunc: func(ctx context.Context, p *payment.Payment, changed []*payment.Transaction) error {
			store.mu.Lock()
			defer store.mu.Unlock()
			store.ledgerSaves++
			return nil
		},
		SaveStateFunc: func(ctx context.Context, p *payment.Payment, from vo.PaymentState) error {
			store.mu.Lock()
			defer store.mu.Unlock()
			if store.states[p.ID()] != from {
				return errors.NewConflictError("payment state changed concurrently")
			}
			store.states[p.ID()] = p.State()
			return nil
		},
	}
	return repo, store
}

func (s *memoryStore) state(id uint) vo.PaymentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

// =============================================================================
// Blockchain
// =============================================================================

type mockAdapter struct {
	mu                    sync.Mutex
	CreateAddressFunc     func(ctx context.Context, paymentID uint) (string, error)
	FetchTransactionsFunc func(ctx context.Context, address string) ([]payment.ObservedTransaction, error)
	fetchCalls            int
}

func (m *mockAdapter) SubunitToMain(subunits decimal.Decimal) decimal.Decimal {
	return subunits.Shift(-8)
}

func (m *mockAdapter) MainToSubunit(main decimal.Decimal) decimal.Decimal {
	return main.Shift(8)
}

func (m *mockAdapter) CreateAddress(ctx context.Context, paymentID uint) (string, error) {
	if m.CreateAddressFunc != nil {
		return m.CreateAddressFunc(ctx, paymentID)
	}
	return "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", nil
}

func (m *mockAdapter) FetchTransactions(ctx context.Context, address string) ([]payment.ObservedTransaction, error) {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.FetchTransactionsFunc != nil {
		return m.FetchTransactionsFunc(ctx, address)
	}
	return nil, nil
}

func (m *mockAdapter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls
}

type mockRegistry map[vo.CoinType]blockchain.Adapter

func (r mockRegistry) AdapterFor(coinType vo.CoinType) (blockchain.Adapter, error) {
	a, ok := r[coinType]
	if !ok {
		return nil, &blockchain.AdapterError{CoinType: coinType, Op: "lookup", Err: fmt.Errorf("coin not enabled")}
	}
	return a, nil
}

// =============================================================================
// Rates
// =============================================================================

type mockRateProvider struct {
	LatestPriceFunc func(ctx context.Context, coinType vo.CoinType, currency string) (decimal.Decimal, error)
}

func (m *mockRateProvider) LatestPrice(ctx context.Context, coinType vo.CoinType, currency string) (decimal.Decimal, error) {
	if m.LatestPriceFunc != nil {
		return m.LatestPriceFunc(ctx, coinType, currency)
	}
	return decimal.Zero, exchangerate.ErrConversionUnavailable
}

func fixedRate(cents int64) *mockRateProvider {
	return &mockRateProvider{
		LatestPriceFunc: func(ctx context.Context, coinType vo.CoinType, currency string) (decimal.Decimal, error) {
			return decimal.NewFromInt(cents), nil
		},
	}
}

type mockPriceFetcher struct {
	FetchPricesFunc func(ctx context.Context, coinTypes []vo.CoinType, currency string) (map[vo.CoinType]decimal.Decimal, error)
}

func (m *mockPriceFetcher) FetchPrices(ctx context.Context, coinTypes []vo.CoinType, currency string) (map[vo.CoinType]decimal.Decimal, error) {
	return m.FetchPricesFunc(ctx, coinTypes, currency)
}

type mockRateRepository struct {
	CreateFunc    func(ctx context.Context, r *rate.ConversionRate) error
	GetLatestFunc func(ctx context.Context, coinType vo.CoinType, currency string) (*rate.ConversionRate, error)
}

func (m *mockRateRepository) Create(ctx context.Context, r *rate.ConversionRate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	return nil
}

func (m *mockRateRepository) GetLatest(ctx context.Context, coinType vo.CoinType, currency string) (*rate.ConversionRate, error) {
	if m.GetLatestFunc != nil {
		return m.GetLatestFunc(ctx, coinType, currency)
	}
	return nil, nil
}

// =============================================================================
// Infrastructure doubles
// =============================================================================

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLocker struct {
	mu     sync.Mutex
	held   map[uint]bool
	denied map[uint]bool
}

func newMockLocker(denied ...uint) *mockLocker {
	l := &mockLocker{held: map[uint]bool{}, denied: map[uint]bool{}}
	for _, id := range denied {
		l.denied[id] = true
	}
	return l
}

func (l *mockLocker) TryLock(ctx context.Context, paymentID uint) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied[paymentID] || l.held[paymentID] {
		return nil, false, nil
	}
	l.held[paymentID] = true
	return func() {
		l.mu.Lock()
		delete(l.held, paymentID)
		l.mu.Unlock()
	}, true, nil
}

type recordingHook struct {
	mu     sync.Mutex
	events map[uint][]vo.PaymentEvent
}

func newRecordingHook() *recordingHook {
	return &recordingHook{events: map[uint][]vo.PaymentEvent{}}
}

func (h *recordingHook) AfterTransition(ctx context.Context, p *payment.Payment, event vo.PaymentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[p.ID()] = append(h.events[p.ID()], event)
}

func (h *recordingHook) eventsOf(id uint) []vo.PaymentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[id]
}

// =============================================================================
// Logger
// =============================================================================

type mockLogger struct{}

func newMockLogger() logger.Interface {
	return &mockLogger{}
}

func (m *mockLogger) With(args ...any) logger.Interface               { return m }
func (m *mockLogger) Named(name string) logger.Interface              { return m }
func (m *mockLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

// =============================================================================
// Fixtures
// =============================================================================

func testSettings() Settings {
	return Settings{
		DefaultCurrency: "USD",
		Currencies:      []string{"USD"},
		ExpireAfter:     15 * time.Minute,
		FetchTimeout:    time.Second,
		Concurrency:     2,
		Confirmations:   map[vo.CoinType]int{vo.CoinTypeBTC: 3},
	}
}

type paymentFixture struct {
	id           uint
	state        vo.PaymentState
	price        int64
	createdAt    time.Time
	noAddress    bool
	transactions []*payment.Transaction
}

func buildPayment(f paymentFixture) *payment.Payment {
	ref, _ := vo.NewPayableRef("invoice", fmt.Sprintf("%d", f.id))
	if f.state == "" {
		f.state = vo.PaymentStatePending
	}
	if f.price == 0 {
		f.price = 1000
	}
	if f.createdAt.IsZero() {
		f.createdAt = time.Now().UTC()
	}
	var address *string
	if !f.noAddress {
		a := fmt.Sprintf("1BvBMSEYstWetqTFn5Au4m4GFg7xJaNV%02d", f.id)
		address = &a
	}
	return payment.ReconstructPaymentWithParams(payment.PaymentReconstructParams{
		ID:             f.id,
		Payable:        ref,
		CoinType:       vo.CoinTypeBTC,
		Price:          vo.NewMoney(f.price, "USD"),
		Reason:         "test",
		Address:        address,
		CoinAmountDue:  decimal.NewFromInt(f.price * 1000),
		CoinConversion: decimal.NewFromInt(100000),
		State:          f.state,
		Transactions:   f.transactions,
		Version:        1,
		CreatedAt:      f.createdAt,
		UpdatedAt:      f.createdAt,
	})
}

func storedTx(paymentID uint, hash string, confirmations int, sats int64, rateCents int64) *payment.Transaction {
	return payment.ReconstructTransaction(payment.TransactionReconstructParams{
		PaymentID:      paymentID,
		Hash:           hash,
		Confirmations:  confirmations,
		EstimatedValue: decimal.NewFromInt(sats),
		CoinConversion: decimal.NewFromInt(rateCents),
	})
}

func observedTx(hash string, confirmations int, sats int64) payment.ObservedTransaction {
	return payment.ObservedTransaction{Hash: hash, Confirmations: confirmations, EstimatedValue: decimal.NewFromInt(sats)}
}

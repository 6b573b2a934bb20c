package transaction

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/numerator"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/domain/session"
)

// --- Mocks ---

type mockTxManager struct{}

func (mockTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockTransactionRepo struct {
	transactions map[id.ID]*Transaction
	positions    []Position
}

func newMockTransactionRepo() *mockTransactionRepo {
	return &mockTransactionRepo{transactions: make(map[id.ID]*Transaction)}
}

func (r *mockTransactionRepo) Create(ctx context.Context, t *Transaction, positions []Position) error {
	r.transactions[t.ID] = t
	r.positions = append(r.positions, positions...)
	return nil
}

func (r *mockTransactionRepo) GetByID(ctx context.Context, transactionID id.ID) (*Transaction, error) {
	t, ok := r.transactions[transactionID]
	if !ok {
		return nil, apperror.NewNotFound("transaction", transactionID)
	}
	return t, nil
}

func (r *mockTransactionRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]Transaction, error) {
	var result []Transaction
	for _, t := range r.transactions {
		if t.SessionID == sessionID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *mockTransactionRepo) ListPositionsByTransaction(ctx context.Context, transactionID id.ID) ([]Position, error) {
	var result []Position
	for _, p := range r.positions {
		if p.TransactionID == transactionID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *mockTransactionRepo) ListPositionsBySession(ctx context.Context, sessionID id.ID) ([]Position, error) {
	var result []Position
	for _, p := range r.positions {
		if p.SessionID == sessionID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *mockTransactionRepo) CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error) {
	total := types.Zero()
	for _, p := range r.positions {
		if p.SessionID == sessionID {
			total = total.Add(p.SignedAmount())
		}
	}
	return total, nil
}

type mockSessionRepo struct {
	sessions map[id.ID]*session.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[id.ID]*session.Session)}
}

func (r *mockSessionRepo) Create(ctx context.Context, s *session.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *mockSessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*session.Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("session", sessionID)
	}
	return s, nil
}

func (r *mockSessionRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*session.Session, error) {
	return r.GetByID(ctx, sessionID)
}

func (r *mockSessionRepo) FindOpenByCashdesk(ctx context.Context, cashdeskID id.ID) (*session.Session, error) {
	return nil, nil
}

func (r *mockSessionRepo) Update(ctx context.Context, s *session.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *mockSessionRepo) ListActive(ctx context.Context) ([]session.Session, error) {
	return nil, nil
}

func (r *mockSessionRepo) ListByCashdesk(ctx context.Context, cashdeskID id.ID) ([]session.Session, error) {
	return nil, nil
}

type mockProductRepo struct {
	products map[id.ID]*product.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[id.ID]*product.Product)}
}

func (r *mockProductRepo) Create(ctx context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *mockProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (r *mockProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *mockProductRepo) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	var result []product.Product
	for _, p := range r.products {
		if activeOnly && !p.Active {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

type mockAuditor struct {
	actions []string
}

func (m *mockAuditor) Record(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error {
	m.actions = append(m.actions, action)
	return nil
}

// --- Fixture ---

type fixture struct {
	service  *Service
	repo     *mockTransactionRepo
	sessions *mockSessionRepo
	products *mockProductRepo
	audit    *mockAuditor

	sess   *session.Session
	ticket *product.Product
	drink  *product.Product
	actor  id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:     newMockTransactionRepo(),
		sessions: newMockSessionRepo(),
		products: newMockProductRepo(),
		audit:    &mockAuditor{},
		actor:    id.New(),
	}

	f.sess = session.NewSession(id.New(), id.New(), f.actor, types.Zero())
	require.NoError(t, f.sessions.Create(context.Background(), f.sess))

	f.ticket = product.New("TICKET", "Entrance ticket", types.MustMoney("10.00"))
	f.drink = product.New("DRINK", "Drink token", types.MustMoney("2.50"))
	require.NoError(t, f.products.Create(context.Background(), f.ticket))
	require.NoError(t, f.products.Create(context.Background(), f.drink))

	seq := 0
	numbers := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			seq++
			return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), seq), nil
		},
	}

	f.service = NewService(f.repo, f.sessions, f.products, numbers, f.audit, mockTxManager{})
	return f
}

func (f *fixture) sell(t *testing.T, productIDs ...id.ID) *Receipt {
	t.Helper()
	lines := make([]SaleLine, 0, len(productIDs))
	for _, pid := range productIDs {
		lines = append(lines, SaleLine{ProductID: pid})
	}
	receipt, err := f.service.RecordSale(context.Background(), f.sess.ID, lines, f.actor)
	require.NoError(t, err)
	return receipt
}

// --- Tests ---

func TestRecordSale(t *testing.T) {
	f := newFixture(t)

	receipt := f.sell(t, f.ticket.ID, f.drink.ID)

	assert.Equal(t, fmt.Sprintf("RCP-%d-00001", time.Now().Year()), receipt.Transaction.ReceiptNumber)
	assert.Equal(t, f.actor, receipt.Transaction.ActorID)
	require.Len(t, receipt.Positions, 2)
	assert.True(t, receipt.Total.Equal(types.MustMoney("12.50")))

	for _, p := range receipt.Positions {
		assert.Equal(t, TypeSale, p.Type)
		assert.Nil(t, p.Reverses)
	}

	// Sale-time price is captured; a later price change stays out of the receipt
	f.ticket.Price = types.MustMoney("99.00")
	stored, err := f.service.Get(context.Background(), receipt.Transaction.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(types.MustMoney("12.50")))
}

func TestRecordSale_EndedSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sess.End(f.actor, types.Zero()))

	_, err := f.service.RecordSale(context.Background(), f.sess.ID,
		[]SaleLine{{ProductID: f.ticket.ID}}, f.actor)

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSessionEnded, appErr.Code)
	assert.Empty(t, f.repo.positions)
}

func TestRecordSale_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	f.ticket.Active = false

	_, err := f.service.RecordSale(context.Background(), f.sess.ID,
		[]SaleLine{{ProductID: f.ticket.ID}}, f.actor)

	require.Error(t, err)
	assert.Empty(t, f.repo.positions)
}

func TestReverseSession(t *testing.T) {
	f := newFixture(t)
	first := f.sell(t, f.ticket.ID)
	second := f.sell(t, f.drink.ID, f.drink.ID)

	receipt, err := f.service.ReverseSession(context.Background(), f.sess.ID, f.actor)
	require.NoError(t, err)

	// One reversal per original, opposite sense, same product and price
	require.Len(t, receipt.Positions, 3)
	originals := make(map[id.ID]Position)
	for _, p := range append(first.Positions, second.Positions...) {
		originals[p.ID] = p
	}
	for _, rev := range receipt.Positions {
		assert.Equal(t, TypeReversal, rev.Type)
		require.NotNil(t, rev.Reverses)
		orig, ok := originals[*rev.Reverses]
		require.True(t, ok)
		assert.Equal(t, orig.ProductID, rev.ProductID)
		assert.True(t, orig.Price.Equal(rev.Price))
		delete(originals, *rev.Reverses)
	}
	assert.Empty(t, originals, "every sale position must be reversed exactly once")

	assert.True(t, receipt.Total.Equal(types.MustMoney("-15.00")))

	// Cash effect of the session is back to zero
	cash, err := f.repo.CashTotalBySession(context.Background(), f.sess.ID)
	require.NoError(t, err)
	assert.True(t, cash.IsZero())
}

func TestReverseSession_AlreadyReversedFailsWhole(t *testing.T) {
	f := newFixture(t)
	receipt := f.sell(t, f.ticket.ID)
	f.sell(t, f.drink.ID)

	_, err := f.service.ReverseTransaction(context.Background(), receipt.Transaction.ID, f.actor)
	require.NoError(t, err)
	positionsBefore := len(f.repo.positions)

	// The first receipt is already reversed: nothing else may be touched
	_, err = f.service.ReverseSession(context.Background(), f.sess.ID, f.actor)
	require.Error(t, err)
	assert.True(t, apperror.IsFlow(err))
	assert.Len(t, f.repo.positions, positionsBefore)
}

func TestReverseSession_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.ReverseSession(context.Background(), f.sess.ID, f.actor)
	require.Error(t, err)
	assert.True(t, apperror.IsFlow(err))
}

func TestReverseTransaction(t *testing.T) {
	f := newFixture(t)
	first := f.sell(t, f.ticket.ID)
	second := f.sell(t, f.drink.ID)

	receipt, err := f.service.ReverseTransaction(context.Background(), first.Transaction.ID, f.actor)
	require.NoError(t, err)
	require.Len(t, receipt.Positions, 1)
	assert.Equal(t, first.Positions[0].ID, *receipt.Positions[0].Reverses)

	// The other receipt is untouched and still reversible
	_, err = f.service.ReverseTransaction(context.Background(), second.Transaction.ID, f.actor)
	require.NoError(t, err)
}

func TestReverseTransaction_DoubleReversal(t *testing.T) {
	f := newFixture(t)
	receipt := f.sell(t, f.ticket.ID)

	_, err := f.service.ReverseTransaction(context.Background(), receipt.Transaction.ID, f.actor)
	require.NoError(t, err)
	positionsBefore := len(f.repo.positions)

	_, err = f.service.ReverseTransaction(context.Background(), receipt.Transaction.ID, f.actor)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeAlreadyReversed, appErr.Code)
	assert.Len(t, f.repo.positions, positionsBefore)
}

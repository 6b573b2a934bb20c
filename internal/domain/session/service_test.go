package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/ledger"
)

// --- Mocks ---

type mockTxManager struct{}

func (mockTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockSessionRepo struct {
	sessions map[id.ID]*Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[id.ID]*Session)}
}

func (r *mockSessionRepo) Create(ctx context.Context, s *Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *mockSessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperror.NewNotFound("session", sessionID)
	}
	return s, nil
}

func (r *mockSessionRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*Session, error) {
	return r.GetByID(ctx, sessionID)
}

func (r *mockSessionRepo) FindOpenByCashdesk(ctx context.Context, cashdeskID id.ID) (*Session, error) {
	for _, s := range r.sessions {
		if s.CashdeskID == cashdeskID && s.IsOpen() {
			return s, nil
		}
	}
	return nil, nil
}

func (r *mockSessionRepo) Update(ctx context.Context, s *Session) error {
	if _, ok := r.sessions[s.ID]; !ok {
		return apperror.NewNotFound("session", s.ID)
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *mockSessionRepo) ListActive(ctx context.Context) ([]Session, error) {
	var result []Session
	for _, s := range r.sessions {
		if s.IsOpen() {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *mockSessionRepo) ListByCashdesk(ctx context.Context, cashdeskID id.ID) ([]Session, error) {
	var result []Session
	for _, s := range r.sessions {
		if s.CashdeskID == cashdeskID {
			result = append(result, *s)
		}
	}
	return result, nil
}

type mockLedgerRepo struct {
	movements []ledger.Movement
}

func (r *mockLedgerRepo) Append(ctx context.Context, movements []ledger.Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *mockLedgerRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]ledger.Movement, error) {
	var result []ledger.Movement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *mockLedgerRepo) SumBySession(ctx context.Context, sessionID id.ID) ([]ledger.Stock, error) {
	totals := make(map[id.ID]int)
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			totals[m.ItemID] += m.Amount
		}
	}
	var result []ledger.Stock
	for itemID, total := range totals {
		result = append(result, ledger.Stock{ItemID: itemID, Total: total})
	}
	return result, nil
}

func (r *mockLedgerRepo) SumBySessionItem(ctx context.Context, sessionID, itemID id.ID) (int, error) {
	total := 0
	for _, m := range r.movements {
		if m.SessionID == sessionID && m.ItemID == itemID {
			total += m.Amount
		}
	}
	return total, nil
}

func (r *mockLedgerRepo) SumAtTime(ctx context.Context, sessionID id.ID, at time.Time) ([]ledger.Stock, error) {
	totals := make(map[id.ID]int)
	for _, m := range r.movements {
		if m.SessionID == sessionID && !m.CreatedAt.After(at) {
			totals[m.ItemID] += m.Amount
		}
	}
	var result []ledger.Stock
	for itemID, total := range totals {
		result = append(result, ledger.Stock{ItemID: itemID, Total: total})
	}
	return result, nil
}

type mockCashdeskRepo struct {
	desks map[id.ID]*cashdesk.Cashdesk
}

func newMockCashdeskRepo() *mockCashdeskRepo {
	return &mockCashdeskRepo{desks: make(map[id.ID]*cashdesk.Cashdesk)}
}

func (r *mockCashdeskRepo) Create(ctx context.Context, c *cashdesk.Cashdesk) error {
	r.desks[c.ID] = c
	return nil
}

func (r *mockCashdeskRepo) GetByID(ctx context.Context, cashdeskID id.ID) (*cashdesk.Cashdesk, error) {
	d, ok := r.desks[cashdeskID]
	if !ok {
		return nil, apperror.NewNotFound("cashdesk", cashdeskID)
	}
	return d, nil
}

func (r *mockCashdeskRepo) GetForUpdate(ctx context.Context, cashdeskID id.ID) (*cashdesk.Cashdesk, error) {
	return r.GetByID(ctx, cashdeskID)
}

func (r *mockCashdeskRepo) GetByCode(ctx context.Context, code string) (*cashdesk.Cashdesk, error) {
	for _, d := range r.desks {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, apperror.NewNotFound("cashdesk", code)
}

func (r *mockCashdeskRepo) Update(ctx context.Context, c *cashdesk.Cashdesk) error {
	r.desks[c.ID] = c
	return nil
}

func (r *mockCashdeskRepo) List(ctx context.Context, activeOnly bool) ([]cashdesk.Cashdesk, error) {
	var result []cashdesk.Cashdesk
	for _, d := range r.desks {
		if activeOnly && !d.Active {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

type mockItemRepo struct {
	items map[id.ID]*item.Item
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[id.ID]*item.Item)}
}

func (r *mockItemRepo) Create(ctx context.Context, i *item.Item) error {
	r.items[i.ID] = i
	return nil
}

func (r *mockItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	i, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return i, nil
}

func (r *mockItemRepo) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	for _, i := range r.items {
		if i.Code == code {
			return i, nil
		}
	}
	return nil, apperror.NewNotFound("item", code)
}

func (r *mockItemRepo) GetByIDs(ctx context.Context, itemIDs []id.ID) (map[id.ID]*item.Item, error) {
	result := make(map[id.ID]*item.Item, len(itemIDs))
	for _, itemID := range itemIDs {
		i, ok := r.items[itemID]
		if !ok {
			return nil, apperror.NewNotFound("item", itemID)
		}
		result[itemID] = i
	}
	return result, nil
}

func (r *mockItemRepo) Update(ctx context.Context, i *item.Item) error {
	r.items[i.ID] = i
	return nil
}

func (r *mockItemRepo) List(ctx context.Context) ([]item.Item, error) {
	var result []item.Item
	for _, i := range r.items {
		result = append(result, *i)
	}
	return result, nil
}

type mockCashTotals struct {
	total types.Money
}

func (m *mockCashTotals) CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error) {
	return m.total, nil
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
	service    *Service
	sessions   *mockSessionRepo
	ledgerRepo *mockLedgerRepo
	desks      *mockCashdeskRepo
	itemRepo   *mockItemRepo
	cashTotals *mockCashTotals
	audit      *mockAuditor

	desk  *cashdesk.Cashdesk
	token *item.Item
	band  *item.Item
	actor id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessions:   newMockSessionRepo(),
		ledgerRepo: &mockLedgerRepo{},
		desks:      newMockCashdeskRepo(),
		itemRepo:   newMockItemRepo(),
		cashTotals: &mockCashTotals{total: types.Zero()},
		audit:      &mockAuditor{},
		actor:      id.New(),
	}

	f.desk = cashdesk.New("DESK-1", "Main desk")
	require.NoError(t, f.desks.Create(context.Background(), f.desk))

	f.token = item.New("TOKEN", "Drink token")
	f.band = item.New("BAND", "Wristband")
	require.NoError(t, f.itemRepo.Create(context.Background(), f.token))
	require.NoError(t, f.itemRepo.Create(context.Background(), f.band))

	txm := mockTxManager{}
	f.service = NewService(
		f.sessions,
		ledger.NewService(f.ledgerRepo),
		f.desks,
		item.NewService(f.itemRepo, txm),
		f.cashTotals,
		f.audit,
		txm,
	)
	return f
}

func (f *fixture) open(t *testing.T, movements ...InitialMovement) *Session {
	t.Helper()
	sess, err := f.service.Open(context.Background(), OpenInput{
		CashdeskID:       f.desk.ID,
		OperatorID:       id.New(),
		CashBefore:       types.MustMoney("100.00"),
		InitialMovements: movements,
	}, f.actor)
	require.NoError(t, err)
	return sess
}

// --- Tests ---

func TestOpen_RecordsInitialStock(t *testing.T) {
	f := newFixture(t)

	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 50})

	assert.Equal(t, StateOpen, sess.State())

	stock, err := f.service.CurrentStock(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stock[f.token.ID])

	assert.Equal(t, []string{"open"}, f.audit.actions)
}

func TestOpen_DeskOccupied(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	_, err := f.service.Open(context.Background(), OpenInput{
		CashdeskID: f.desk.ID,
		OperatorID: id.New(),
		CashBefore: types.Zero(),
	}, f.actor)

	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDeskOccupied, appErr.Code)
}

func TestOpen_InactiveDesk(t *testing.T) {
	f := newFixture(t)
	f.desk.Active = false

	_, err := f.service.Open(context.Background(), OpenInput{
		CashdeskID: f.desk.ID,
		OperatorID: id.New(),
		CashBefore: types.Zero(),
	}, f.actor)

	require.Error(t, err)
	assert.True(t, apperror.IsState(err))
}

func TestOpen_UnknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Open(context.Background(), OpenInput{
		CashdeskID:       f.desk.ID,
		OperatorID:       id.New(),
		CashBefore:       types.Zero(),
		InitialMovements: []InitialMovement{{ItemID: id.New(), Amount: 5}},
	}, f.actor)

	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	// Nothing may be persisted when item resolution fails
	assert.Empty(t, f.ledgerRepo.movements)
}

func TestResupply(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 50})

	err := f.service.Resupply(context.Background(), sess.ID,
		[]InitialMovement{{ItemID: f.token.ID, Amount: 10}}, f.actor)
	require.NoError(t, err)

	stock, err := f.service.CurrentStock(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stock[f.token.ID])
}

func TestResupply_RejectsNonPositiveAmounts(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t)

	err := f.service.Resupply(context.Background(), sess.ID,
		[]InitialMovement{{ItemID: f.token.ID, Amount: -5}}, f.actor)
	require.Error(t, err)

	err = f.service.Resupply(context.Background(), sess.ID,
		[]InitialMovement{{ItemID: f.token.ID, Amount: 0}}, f.actor)
	require.Error(t, err)
}

func TestResupply_EndedSession(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t)

	_, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("100.00"),
	}, f.actor)
	require.NoError(t, err)

	err = f.service.Resupply(context.Background(), sess.ID,
		[]InitialMovement{{ItemID: f.token.ID, Amount: 10}}, f.actor)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSessionEnded, appErr.Code)
}

func TestEnd_ReconcilesCountedStock(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 50})

	require.NoError(t, f.service.Resupply(context.Background(), sess.ID,
		[]InitialMovement{{ItemID: f.token.ID, Amount: 10}}, f.actor))

	f.cashTotals.total = types.MustMoney("40.00")

	summary, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("140.00"),
		Counted:   []CountedItem{{ItemID: f.token.ID, Amount: 40}},
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, StateEnded, summary.State)
	assert.True(t, summary.CashInSales.Equal(types.MustMoney("40.00")))
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 60, summary.Items[0].Expected)
	assert.Equal(t, 40, summary.Items[0].Counted)
	assert.Equal(t, -20, summary.Items[0].Delta)

	// The correcting movement closes the gap and is dated after the end
	stock, err := f.ledgerRepo.SumBySessionItem(context.Background(), sess.ID, f.token.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stock)

	last := f.ledgerRepo.movements[len(f.ledgerRepo.movements)-1]
	assert.Equal(t, -20, last.Amount)
	assert.True(t, last.CreatedAt.After(*f.sessions.sessions[sess.ID].EndedAt))
}

func TestEnd_RepeatedCountsAppendNothing(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 50})

	_, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("100.00"),
		Counted:   []CountedItem{{ItemID: f.token.ID, Amount: 40}},
	}, f.actor)
	require.NoError(t, err)
	movementsAfterEnd := len(f.ledgerRepo.movements)

	// Re-submitting the counts the ledger already reflects is a no-op
	// on the ledger, but it still counts as a correction pass.
	summary, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("100.00"),
		Counted:   []CountedItem{{ItemID: f.token.ID, Amount: 40}},
	}, f.actor)
	require.NoError(t, err)

	assert.Equal(t, StateCorrected, summary.State)
	assert.Equal(t, 1, summary.Corrections)
	assert.Len(t, f.ledgerRepo.movements, movementsAfterEnd)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 0, summary.Items[0].Delta)

	assert.Equal(t, []string{"open", "end", "correct"}, f.audit.actions)
}

func TestEnd_CorrectionAdjustsStock(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 50})

	_, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("100.00"),
		Counted:   []CountedItem{{ItemID: f.token.ID, Amount: 40}},
	}, f.actor)
	require.NoError(t, err)

	// The recount found 45, not 40: only the 5 difference is appended
	summary, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("105.00"),
		Counted:   []CountedItem{{ItemID: f.token.ID, Amount: 45}},
	}, f.actor)
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	assert.Equal(t, 40, summary.Items[0].Expected)
	assert.Equal(t, 5, summary.Items[0].Delta)

	stock, err := f.ledgerRepo.SumBySessionItem(context.Background(), sess.ID, f.token.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, stock)
}

func TestEnd_RejectsNegativeCash(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t)

	_, err := f.service.End(context.Background(), EndInput{
		SessionID: sess.ID,
		CashAfter: types.MustMoney("-1.00"),
	}, f.actor)
	require.Error(t, err)
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t)

	other := cashdesk.New("DESK-2", "Side desk")
	require.NoError(t, f.desks.Create(context.Background(), other))

	require.NoError(t, f.service.Move(context.Background(), sess.ID, other.ID, f.actor))
	assert.Equal(t, other.ID, f.sessions.sessions[sess.ID].CashdeskID)
}

func TestMove_TargetOccupied(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t)

	other := cashdesk.New("DESK-2", "Side desk")
	require.NoError(t, f.desks.Create(context.Background(), other))
	_, err := f.service.Open(context.Background(), OpenInput{
		CashdeskID: other.ID,
		OperatorID: id.New(),
		CashBefore: types.Zero(),
	}, f.actor)
	require.NoError(t, err)

	err = f.service.Move(context.Background(), sess.ID, other.ID, f.actor)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestListActiveWithStock(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, InitialMovement{ItemID: f.token.ID, Amount: 25})

	active, err := f.service.ListActiveWithStock(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, sess.ID, active[0].Session.ID)
	require.Len(t, active[0].Stock, 1)
	assert.Equal(t, 25, active[0].Stock[0].Total)
}

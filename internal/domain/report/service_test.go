package report

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/domain/session"
)

// --- Mocks ---

type mockTxManager struct{}

func (mockTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockSessionRepo struct {
	sessions map[id.ID]*session.Session
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

type mockArtifactRepo struct {
	artifacts []Artifact
}

func (r *mockArtifactRepo) Create(ctx context.Context, a *Artifact) error {
	r.artifacts = append(r.artifacts, *a)
	return nil
}

func (r *mockArtifactRepo) GetLatestBySession(ctx context.Context, sessionID id.ID) (*Artifact, error) {
	var forSession []Artifact
	for _, a := range r.artifacts {
		if a.SessionID == sessionID {
			forSession = append(forSession, a)
		}
	}
	if len(forSession) == 0 {
		return nil, apperror.NewNotFound("report artifact", sessionID)
	}
	sort.Slice(forSession, func(i, j int) bool {
		return forSession[i].CreatedAt.After(forSession[j].CreatedAt)
	})
	return &forSession[0], nil
}

func (r *mockArtifactRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]Artifact, error) {
	var result []Artifact
	for _, a := range r.artifacts {
		if a.SessionID == sessionID {
			result = append(result, a)
		}
	}
	return result, nil
}

type mockLedgerRepo struct{}

func (mockLedgerRepo) Append(ctx context.Context, movements []ledger.Movement) error { return nil }

func (mockLedgerRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]ledger.Movement, error) {
	return nil, nil
}

func (mockLedgerRepo) SumBySession(ctx context.Context, sessionID id.ID) ([]ledger.Stock, error) {
	return []ledger.Stock{{ItemID: id.New(), ItemName: "Drink token", Total: 40}}, nil
}

func (mockLedgerRepo) SumBySessionItem(ctx context.Context, sessionID, itemID id.ID) (int, error) {
	return 0, nil
}

func (mockLedgerRepo) SumAtTime(ctx context.Context, sessionID id.ID, at time.Time) ([]ledger.Stock, error) {
	return nil, nil
}

type mockCashTotals struct{}

func (mockCashTotals) CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error) {
	return types.MustMoney("40.00"), nil
}

type mockRenderer struct {
	calls int
	fail  bool
}

func (m *mockRenderer) Render(ctx context.Context, snapshot *Snapshot) (string, error) {
	m.calls++
	if m.fail {
		return "", fmt.Errorf("printer on fire")
	}
	return fmt.Sprintf("artifact-%d.json", m.calls), nil
}

// --- Fixture ---

type fixture struct {
	service  *Service
	sessions *mockSessionRepo
	repo     *mockArtifactRepo
	renderer *mockRenderer
	sess     *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessions: &mockSessionRepo{sessions: make(map[id.ID]*session.Session)},
		repo:     &mockArtifactRepo{},
		renderer: &mockRenderer{},
	}

	f.sess = session.NewSession(id.New(), id.New(), id.New(), types.Zero())
	require.NoError(t, f.sessions.Create(context.Background(), f.sess))

	f.service = NewService(
		f.repo,
		f.sessions,
		ledger.NewService(mockLedgerRepo{}),
		mockCashTotals{},
		f.renderer,
		mockTxManager{},
	)
	return f
}

func (f *fixture) end(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sess.End(id.New(), types.MustMoney("40.00")))
}

// --- Tests ---

func TestNeedsReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Open session never needs a report
	needs, err := f.service.NeedsReport(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.False(t, needs)

	// Ended session with no artifact does
	f.end(t)
	needs, err = f.service.NeedsReport(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.True(t, needs)

	// Generation satisfies the need
	_, err = f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)
	needs, err = f.service.NeedsReport(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.False(t, needs)

	// A correction pass makes the artifact stale again
	time.Sleep(time.Millisecond)
	require.NoError(t, f.sess.Correct(id.New(), types.MustMoney("45.00")))
	needs, err = f.service.NeedsReport(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestGenerate_OpenSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Generate(context.Background(), f.sess.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsState(err))
	assert.Zero(t, f.renderer.calls)
}

func TestGenerate_ReturnsCurrentArtifact(t *testing.T) {
	f := newFixture(t)
	f.end(t)
	ctx := context.Background()

	first, err := f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, f.sess.UpdatedAt, first.SessionStateAt)

	// Unchanged session: no re-render, same artifact back
	second, err := f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.renderer.calls)
	assert.Equal(t, first.ID, second.ID)
}

func TestGenerate_RegeneratesAfterCorrection(t *testing.T) {
	f := newFixture(t)
	f.end(t)
	ctx := context.Background()

	first, err := f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	require.NoError(t, f.sess.Correct(id.New(), types.MustMoney("45.00")))

	second, err := f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, f.renderer.calls)
	assert.True(t, second.SessionStateAt.After(first.SessionStateAt))

	// Both artifacts stay recorded; regeneration never rewrites history
	all, err := f.repo.ListBySession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGenerate_RendererFailureLeavesNoArtifact(t *testing.T) {
	f := newFixture(t)
	f.end(t)
	f.renderer.fail = true
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.sess.ID)
	require.Error(t, err)
	assert.Empty(t, f.repo.artifacts)

	// The retry after the renderer recovers succeeds
	f.renderer.fail = false
	_, err = f.service.Generate(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Len(t, f.repo.artifacts, 1)
}

func TestRecordArtifact_RequiresRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RecordArtifact(context.Background(), f.sess.ID, "", time.Now())
	require.Error(t, err)
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashpoint/internal/core/id"
)

type mockRepo struct {
	movements []Movement
}

func (r *mockRepo) Append(ctx context.Context, movements []Movement) error {
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *mockRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]Movement, error) {
	var result []Movement
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *mockRepo) SumBySession(ctx context.Context, sessionID id.ID) ([]Stock, error) {
	totals := make(map[id.ID]int)
	for _, m := range r.movements {
		if m.SessionID == sessionID {
			totals[m.ItemID] += m.Amount
		}
	}
	var result []Stock
	for itemID, total := range totals {
		result = append(result, Stock{ItemID: itemID, Total: total})
	}
	return result, nil
}

func (r *mockRepo) SumBySessionItem(ctx context.Context, sessionID, itemID id.ID) (int, error) {
	total := 0
	for _, m := range r.movements {
		if m.SessionID == sessionID && m.ItemID == itemID {
			total += m.Amount
		}
	}
	return total, nil
}

func (r *mockRepo) SumAtTime(ctx context.Context, sessionID id.ID, at time.Time) ([]Stock, error) {
	totals := make(map[id.ID]int)
	for _, m := range r.movements {
		if m.SessionID == sessionID && !m.CreatedAt.After(at) {
			totals[m.ItemID] += m.Amount
		}
	}
	var result []Stock
	for itemID, total := range totals {
		result = append(result, Stock{ItemID: itemID, Total: total})
	}
	return result, nil
}

func TestRecord_StockIsLedgerSum(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	sessionID := id.New()
	itemID := id.New()
	actorID := id.New()

	require.NoError(t, svc.Record(ctx, []Movement{
		NewMovement(sessionID, itemID, 50, actorID),
	}))
	require.NoError(t, svc.Record(ctx, []Movement{
		NewMovement(sessionID, itemID, 10, actorID),
		NewMovement(sessionID, itemID, -20, actorID),
	}))

	stock, err := svc.CurrentStock(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 40, stock[itemID])

	single, err := svc.StockOf(ctx, sessionID, itemID)
	require.NoError(t, err)
	assert.Equal(t, 40, single)

	history, err := svc.History(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestRecord_Validation(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	sessionID := id.New()
	itemID := id.New()
	actorID := id.New()

	cases := []struct {
		name     string
		movement Movement
	}{
		{"zero amount", NewMovement(sessionID, itemID, 0, actorID)},
		{"nil session", NewMovement(id.Nil(), itemID, 5, actorID)},
		{"nil item", NewMovement(sessionID, id.Nil(), 5, actorID)},
		{"nil actor", NewMovement(sessionID, itemID, 5, id.Nil())},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Record(ctx, []Movement{tc.movement})
			require.Error(t, err)
			assert.Empty(t, repo.movements, "invalid batches must not be persisted")
		})
	}
}

func TestRecord_EmptyBatch(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	require.NoError(t, svc.Record(context.Background(), nil))
	assert.Empty(t, repo.movements)
}

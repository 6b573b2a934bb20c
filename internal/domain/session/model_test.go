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
)

func TestSessionLifecycle(t *testing.T) {
	sess := NewSession(id.New(), id.New(), id.New(), types.MustMoney("100.00"))

	assert.Equal(t, StateOpen, sess.State())
	assert.True(t, sess.IsOpen())
	require.NoError(t, sess.Validate(context.Background()))

	closer := id.New()
	require.NoError(t, sess.End(closer, types.MustMoney("250.00")))

	assert.Equal(t, StateEnded, sess.State())
	assert.False(t, sess.IsOpen())
	require.NotNil(t, sess.EndedAt)
	require.NotNil(t, sess.CashAfter)
	assert.True(t, sess.CashAfter.Equal(types.MustMoney("250.00")))
	assert.Equal(t, &closer, sess.ClosedByID)
	assert.Equal(t, 0, sess.Corrections)

	// A second end pass on an ended session is illegal at the model level
	err := sess.End(closer, types.MustMoney("300.00"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSessionEnded, appErr.Code)
}

func TestSessionCorrect(t *testing.T) {
	sess := NewSession(id.New(), id.New(), id.New(), types.Zero())

	// Correcting an open session is illegal
	err := sess.Correct(id.New(), types.Zero())
	require.Error(t, err)
	assert.True(t, apperror.IsState(err))

	require.NoError(t, sess.End(id.New(), types.MustMoney("10.00")))
	firstEnd := *sess.EndedAt
	firstVersion := sess.Version

	time.Sleep(time.Millisecond)

	other := id.New()
	require.NoError(t, sess.Correct(other, types.MustMoney("12.00")))

	assert.Equal(t, StateCorrected, sess.State())
	assert.Equal(t, 1, sess.Corrections)
	assert.Equal(t, &other, sess.ClosedByID)
	assert.True(t, sess.CashAfter.Equal(types.MustMoney("12.00")))
	assert.True(t, sess.EndedAt.After(firstEnd))
	assert.Greater(t, sess.Version, firstVersion)

	// Every further pass keeps counting
	require.NoError(t, sess.Correct(other, types.MustMoney("12.00")))
	assert.Equal(t, 2, sess.Corrections)
	assert.Equal(t, StateCorrected, sess.State())
}

func TestSessionMoveTo(t *testing.T) {
	sess := NewSession(id.New(), id.New(), id.New(), types.Zero())

	target := id.New()
	require.NoError(t, sess.MoveTo(target))
	assert.Equal(t, target, sess.CashdeskID)

	require.Error(t, sess.MoveTo(id.Nil()))

	require.NoError(t, sess.End(id.New(), types.Zero()))
	err := sess.MoveTo(id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsState(err))
}

func TestSessionValidate(t *testing.T) {
	base := func() *Session {
		return NewSession(id.New(), id.New(), id.New(), types.MustMoney("5.00"))
	}

	sess := base()
	sess.CashdeskID = id.Nil()
	require.Error(t, sess.Validate(context.Background()))

	sess = base()
	sess.OperatorID = id.Nil()
	require.Error(t, sess.Validate(context.Background()))

	sess = base()
	sess.CashBefore = types.MustMoney("-1.00")
	require.Error(t, sess.Validate(context.Background()))
}

package services

import (
	"testing"

	"gemscore/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*Gate, *LedgerStore) {
	t.Helper()
	l, _ := newTestLedger(t)
	return NewGate(l), l
}

func TestRequestAdjustValidation(t *testing.T) {
	g, l := newTestGate(t)

	_, err := g.RequestAdjust(1, true, 0)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = g.RequestAdjust(1, true, -10)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = g.RequestAdjust(1, true, models.MaxManualAdjustment+1)
	assert.ErrorIs(t, err, ErrOverLimit)

	_, err = g.RequestAdjust(99, true, 10)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	// Rejected requests never stage anything or touch the ledger.
	assert.Nil(t, g.Pending())
	team, _ := l.Team(1)
	assert.Equal(t, 0, team.Score)
	assert.Zero(t, l.UndoDepth(1))
}

func TestRequestDirectSetValidation(t *testing.T) {
	g, _ := newTestGate(t)

	_, err := g.RequestDirectSet(1, -1)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = g.RequestDirectSet(99, 100)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	assert.Nil(t, g.Pending())
}

func TestRequestStagesWithoutMutating(t *testing.T) {
	g, l := newTestGate(t)

	action, err := g.RequestAdjust(1, true, 500)
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.NotEmpty(t, action.ID)
	assert.Equal(t, ActionAdjust, action.Kind)
	assert.Equal(t, 500, action.Value)
	assert.True(t, action.IsAdding)

	pending := g.Pending()
	require.NotNil(t, pending)
	assert.Equal(t, action.ID, pending.ID)

	// Staging alone never mutates.
	team, _ := l.Team(1)
	assert.Equal(t, 0, team.Score)
	logs, _ := l.TeamLogs(1)
	assert.Empty(t, logs)
}

func TestNewRequestReplacesPending(t *testing.T) {
	g, _ := newTestGate(t)

	first, err := g.RequestAdjust(1, true, 100)
	require.NoError(t, err)
	second, err := g.RequestDirectSet(2, 900)
	require.NoError(t, err)

	pending := g.Pending()
	require.NotNil(t, pending)
	assert.NotEqual(t, first.ID, pending.ID)
	assert.Equal(t, second.ID, pending.ID)
	assert.Equal(t, ActionDirectSet, pending.Kind)
}

func TestConfirmAdjustScenario(t *testing.T) {
	g, l := newTestGate(t)

	// Award then stage a subtraction, mirroring a manager correcting an
	// over-generous award.
	_, err := l.ApplyDelta(1, 1000, "gem")
	require.NoError(t, err)

	_, err = g.RequestAdjust(1, false, 500)
	require.NoError(t, err)

	score, action, err := g.Confirm()
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, 500, score)
	assert.Equal(t, 1, action.TeamID)

	logs, _ := l.TeamLogs(1)
	require.Len(t, logs, 2)
	assert.Equal(t, 1000, logs[0].Before)
	assert.Equal(t, 500, logs[0].After)

	// Gate is idle again.
	assert.Nil(t, g.Pending())
	_, _, err = g.Confirm()
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestConfirmDirectSet(t *testing.T) {
	g, l := newTestGate(t)

	_, err := l.ApplyDelta(2, 300, "gem")
	require.NoError(t, err)

	_, err = g.RequestDirectSet(2, 9000)
	require.NoError(t, err)

	score, action, err := g.Confirm()
	require.NoError(t, err)
	assert.Equal(t, 9000, score)
	assert.Equal(t, ActionDirectSet, action.Kind)

	team, _ := l.Team(2)
	assert.Equal(t, 9000, team.Score)
}

func TestCancelDiscardsWithoutLedgerEffect(t *testing.T) {
	g, l := newTestGate(t)

	_, err := g.RequestAdjust(3, true, 250)
	require.NoError(t, err)

	require.NoError(t, g.Cancel())
	assert.Nil(t, g.Pending())

	team, _ := l.Team(3)
	assert.Equal(t, 0, team.Score)
	logs, _ := l.TeamLogs(3)
	assert.Empty(t, logs)

	assert.ErrorIs(t, g.Cancel(), ErrNoPending)
}

func TestAdjustAtLimit(t *testing.T) {
	g, l := newTestGate(t)

	_, err := g.RequestAdjust(1, true, models.MaxManualAdjustment)
	require.NoError(t, err)

	score, _, err := g.Confirm()
	require.NoError(t, err)
	assert.Equal(t, models.MaxManualAdjustment, score)

	team, _ := l.Team(1)
	assert.Equal(t, models.MaxManualAdjustment, team.Score)
}

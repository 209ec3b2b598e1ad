package services

import (
	"testing"

	"gemscore/models"
	"gemscore/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*LedgerStore, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	l, err := NewLedgerStore(st)
	require.NoError(t, err)
	return l, st
}

func TestApplyDeltaClampsToRange(t *testing.T) {
	l, _ := newTestLedger(t)

	score, err := l.ApplyDelta(1, -500, "test")
	require.NoError(t, err)
	assert.Equal(t, 0, score, "subtracting below zero should be a no-op at floor")

	score, err = l.ApplyDelta(1, models.MaxTotalScore+1000, "test")
	require.NoError(t, err)
	assert.Equal(t, models.MaxTotalScore, score)

	score, err = l.ApplyDelta(1, 50, "test")
	require.NoError(t, err)
	assert.Equal(t, models.MaxTotalScore, score, "already at ceiling stays clamped")
}

func TestApplyDeltaUnknownTeam(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.ApplyDelta(99, 10, "test")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestNoOpMutationLeavesNoTrace(t *testing.T) {
	l, _ := newTestLedger(t)

	// Score is 0; subtracting clamps back to 0, so nothing changed.
	score, err := l.ApplyDelta(1, -100, "test")
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	assert.Zero(t, l.UndoDepth(1), "no-op must not grow the undo stack")

	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	assert.Empty(t, logs, "no-op must not log")

	// Same for an absolute set to the current value.
	_, err = l.SetAbsolute(1, 0, "test")
	require.NoError(t, err)
	assert.Zero(t, l.UndoDepth(1))
}

func TestApplyDeltaLogsAndSnapshots(t *testing.T) {
	l, _ := newTestLedger(t)

	score, err := l.ApplyDelta(1, 1000, "Gem award: Diamond ✨")
	require.NoError(t, err)
	assert.Equal(t, 1000, score)
	assert.Equal(t, 1, l.UndoDepth(1))

	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 0, logs[0].Before)
	assert.Equal(t, 1000, logs[0].After)
	assert.Equal(t, "Gem award: Diamond ✨", logs[0].Label)
	assert.Equal(t, 1, logs[0].TeamID)
}

func TestUndoRoundTrip(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.ApplyDelta(1, 100, "step one")
	require.NoError(t, err)
	_, err = l.ApplyDelta(1, 250, "step two")
	require.NoError(t, err)

	score, err := l.Undo(1)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	score, err = l.Undo(1)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
	assert.Zero(t, l.UndoDepth(1))

	// Undo logged entries but pushed no snapshots of its own.
	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
	assert.Equal(t, "Undo ↩️", logs[0].Label)
}

func TestUndoEmptyStackIsNoOp(t *testing.T) {
	l, _ := newTestLedger(t)

	score, err := l.Undo(1)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestUndoStackCapped(t *testing.T) {
	l, _ := newTestLedger(t)

	for i := 0; i < models.MaxHistoryLength+10; i++ {
		_, err := l.ApplyDelta(1, 1, "inc")
		require.NoError(t, err)
	}
	assert.Equal(t, models.MaxHistoryLength, l.UndoDepth(1))

	// The oldest snapshots were evicted, so undo bottoms out above zero.
	var score int
	var err error
	for l.UndoDepth(1) > 0 {
		score, err = l.Undo(1)
		require.NoError(t, err)
	}
	assert.Equal(t, 10, score)
}

func TestLogCapped(t *testing.T) {
	l, _ := newTestLedger(t)

	for i := 0; i < models.MaxLogLength+20; i++ {
		_, err := l.ApplyDelta(1, 1, "inc")
		require.NoError(t, err)
	}

	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	assert.Len(t, logs, models.MaxLogLength)
	// Newest first: the last increment landed the score at cap+20.
	assert.Equal(t, models.MaxLogLength+20, logs[0].After)
}

func TestResetAllThenUndoRestores(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.ApplyDelta(1, 1000, "seed")
	require.NoError(t, err)
	_, err = l.ApplyDelta(2, 5000, "seed")
	require.NoError(t, err)

	require.NoError(t, l.ResetAll())

	t1, err := l.Team(1)
	require.NoError(t, err)
	t2, err := l.Team(2)
	require.NoError(t, err)
	assert.Equal(t, 0, t1.Score)
	assert.Equal(t, 0, t2.Score)

	logs1, _ := l.TeamLogs(1)
	require.NotEmpty(t, logs1)
	assert.Equal(t, 0, logs1[0].After)

	score, err := l.Undo(1)
	require.NoError(t, err)
	assert.Equal(t, 1000, score)
	score, err = l.Undo(2)
	require.NoError(t, err)
	assert.Equal(t, 5000, score)
}

func TestResetAllSkipsZeroScoreTeams(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.ApplyDelta(1, 100, "seed")
	require.NoError(t, err)

	require.NoError(t, l.ResetAll())

	logs2, err := l.TeamLogs(2)
	require.NoError(t, err)
	assert.Empty(t, logs2, "a team already at zero gets no reset entry")
	assert.Zero(t, l.UndoDepth(2))
}

func TestAwardGemValues(t *testing.T) {
	l, _ := newTestLedger(t)

	tests := []struct {
		gem   string
		value int
	}{
		{"Sapphire", 10},
		{"Emerald", 25},
		{"Ruby", 50},
		{"Diamond", 100},
	}

	total := 0
	for _, tt := range tests {
		score, err := l.AwardGem(1, tt.gem)
		require.NoError(t, err)
		total += tt.value
		assert.Equal(t, total, score, tt.gem)
	}

	_, err := l.AwardGem(1, "Opal")
	assert.ErrorIs(t, err, ErrUnknownGem)
}

func TestSetAbsoluteRejectsNegative(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.SetAbsolute(1, -1, "test")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Zero(t, l.UndoDepth(1))
}

func TestRecentActivityOrderAndLimit(t *testing.T) {
	l, _ := newTestLedger(t)

	// Mutations land within the same millisecond; insertion order must
	// break the ties, most recent first.
	for i := 0; i < models.GlobalFeedSize+5; i++ {
		teamID := (i % 4) + 1
		_, err := l.ApplyDelta(teamID, 10, "inc")
		require.NoError(t, err)
	}

	feed := l.RecentActivity(0)
	assert.Len(t, feed, models.GlobalFeedSize)
	for i := 1; i < len(feed); i++ {
		assert.GreaterOrEqual(t, feed[i-1].Seq, feed[i].Seq, "feed must be newest first")
	}

	all := l.RecentActivity(1000)
	assert.Len(t, all, models.GlobalFeedSize+5)
}

func TestSortByTogglesDirection(t *testing.T) {
	l, _ := newTestLedger(t)

	cfg, err := l.SortBy(models.SortByScore)
	require.NoError(t, err)
	assert.Equal(t, models.SortByScore, cfg.Key)
	assert.Equal(t, models.SortDesc, cfg.Direction, "a fresh key starts descending")

	cfg, err = l.SortBy(models.SortByScore)
	require.NoError(t, err)
	assert.Equal(t, models.SortAsc, cfg.Direction, "re-selecting flips")

	cfg, err = l.SortBy(models.SortByName)
	require.NoError(t, err)
	assert.Equal(t, models.SortByName, cfg.Key)
	assert.Equal(t, models.SortDesc, cfg.Direction)

	_, err = l.SortBy(models.SortKey("bogus"))
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestTeamsRespectSortOrder(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.ApplyDelta(3, 500, "seed")
	require.NoError(t, err)
	_, err = l.ApplyDelta(1, 200, "seed")
	require.NoError(t, err)

	_, err = l.SortBy(models.SortByScore) // desc
	require.NoError(t, err)

	teams := l.Teams()
	require.Len(t, teams, 4)
	assert.Equal(t, 3, teams[0].ID)
	assert.Equal(t, 1, teams[1].ID)

	_, err = l.SortBy(models.SortByScore) // toggle to asc
	require.NoError(t, err)
	teams = l.Teams()
	assert.Equal(t, 3, teams[3].ID)
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	l, st := newTestLedger(t)

	_, err := l.ApplyDelta(2, 750, "seed")
	require.NoError(t, err)
	_, err = l.SortBy(models.SortByScore)
	require.NoError(t, err)
	require.NoError(t, l.SetMission(models.Mission{Title: "Double Diamond Day", Content: "Sell in pairs."}))

	reloaded, err := NewLedgerStore(st)
	require.NoError(t, err)

	team, err := reloaded.Team(2)
	require.NoError(t, err)
	assert.Equal(t, 750, team.Score)

	logs, err := reloaded.TeamLogs(2)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 750, logs[0].After)

	assert.Equal(t, models.SortByScore, reloaded.SortConfig().Key)

	m := reloaded.Mission()
	require.NotNil(t, m)
	assert.Equal(t, "Double Diamond Day", m.Title)

	// Undo stacks are run-local and do not survive a restart.
	assert.Zero(t, reloaded.UndoDepth(2))
}

func TestUpdateTeamRegistryEdit(t *testing.T) {
	l, _ := newTestLedger(t)

	name := "Atelier Aces"
	leader := "Erin"
	score := 4242
	team, err := l.UpdateTeam(1, RegistryEdit{Name: &name, Leader: &leader, Score: &score})
	require.NoError(t, err)
	assert.Equal(t, "Atelier Aces", team.Name)
	assert.Equal(t, "Erin", team.Leader)
	assert.Equal(t, 4242, team.Score)

	// The score rewrite is a ledger mutation like any other.
	logs, err := l.TeamLogs(1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 0, logs[0].Before)
	assert.Equal(t, 4242, logs[0].After)
	assert.Equal(t, 1, l.UndoDepth(1))

	bad := -5
	_, err = l.UpdateTeam(1, RegistryEdit{Score: &bad})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = l.UpdateTeam(99, RegistryEdit{Name: &name})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestUpdateTeamIgnoresEmptyStrings(t *testing.T) {
	l, _ := newTestLedger(t)

	empty := ""
	team, err := l.UpdateTeam(1, RegistryEdit{Name: &empty, Leader: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Heritage Team", team.Name)
	assert.Equal(t, "Alice", team.Leader)
}

func TestVerifyLeaderPassword(t *testing.T) {
	l, _ := newTestLedger(t)

	// Seeded teams carry a hash of the default secret.
	assert.NoError(t, l.VerifyLeaderPassword(1, models.DefaultLeaderPassword))
	assert.Error(t, l.VerifyLeaderPassword(1, "wrong"))
	assert.ErrorIs(t, l.VerifyLeaderPassword(99, "123"), ErrTeamNotFound)

	// A rotated secret replaces the default.
	pw := "emerald-floor-7"
	_, err := l.UpdateTeam(1, RegistryEdit{Password: &pw})
	require.NoError(t, err)
	assert.NoError(t, l.VerifyLeaderPassword(1, pw))
	assert.Error(t, l.VerifyLeaderPassword(1, models.DefaultLeaderPassword))
}

func TestMutationHookFires(t *testing.T) {
	l, _ := newTestLedger(t)

	var got []models.LogEntry
	l.SetMutationHook(func(e models.LogEntry) { got = append(got, e) })

	_, err := l.AwardGem(1, "Ruby")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].After)
}

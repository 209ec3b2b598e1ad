// services/ledger.go - Score Ledger: the sole authority over team scores
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gemscore/models"
	"gemscore/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTeamNotFound = errors.New("team not found")
	ErrUnknownGem   = errors.New("unknown gem type")
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidSort  = errors.New("invalid sort config")
)

// LedgerStore holds the authoritative competition state: team scores,
// per-team undo stacks and append-only audit logs, the sort preference
// and the daily mission. It is constructed from a store snapshot at
// startup and saves after every committed mutation. All operations run
// to completion under a single lock, so no two mutations interleave.
//
// Undo stacks are deliberately not persisted: undo covers the operator's
// recent slips within a run, not historical state.
type LedgerStore struct {
	mu    sync.Mutex
	store store.Store

	teams   []models.Team
	logs    map[int][]models.LogEntry // newest first
	history map[int][]int             // undo stacks, newest first
	sortCfg models.SortConfig
	mission *models.Mission

	seq int64 // insertion counter, breaks timestamp ties in the feed

	onMutate func(models.LogEntry)
}

// NewLedgerStore loads the competition state from the store, seeding the
// default team registry on first run.
func NewLedgerStore(st store.Store) (*LedgerStore, error) {
	l := &LedgerStore{
		store:   st,
		logs:    make(map[int][]models.LogEntry),
		history: make(map[int][]int),
		sortCfg: models.DefaultSortConfig(),
	}

	if err := st.Load(store.KeyTeams, &l.teams); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load teams: %w", err)
		}
		l.teams = models.SeedTeams()
		hash, err := bcrypt.GenerateFromPassword([]byte(models.DefaultLeaderPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash default leader password: %w", err)
		}
		for i := range l.teams {
			l.teams[i].PasswordHash = string(hash)
		}
		if err := st.Save(store.KeyTeams, l.teams); err != nil {
			return nil, fmt.Errorf("seed teams: %w", err)
		}
		logrus.WithField("teams", len(l.teams)).Info("seeded default team registry")
	}

	if err := st.Load(store.KeyTeamLogs, &l.logs); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load team logs: %w", err)
	}
	if l.logs == nil {
		l.logs = make(map[int][]models.LogEntry)
	}
	for _, entries := range l.logs {
		for _, e := range entries {
			if e.Seq > l.seq {
				l.seq = e.Seq
			}
		}
	}

	var cfg models.SortConfig
	if err := st.Load(store.KeySortConfig, &cfg); err == nil && cfg.Valid() {
		l.sortCfg = cfg
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load sort config: %w", err)
	}

	var mission models.Mission
	if err := st.Load(store.KeyMission, &mission); err == nil {
		l.mission = &mission
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load mission: %w", err)
	}

	return l, nil
}

// SetMutationHook registers a callback invoked for every committed
// score change, under the ledger lock. Used by the view layer for
// transient effects; the hook must not call back into the ledger.
func (l *LedgerStore) SetMutationHook(fn func(models.LogEntry)) {
	l.mu.Lock()
	l.onMutate = fn
	l.mu.Unlock()
}

// ApplyDelta changes a team's score by delta, clamped to the valid
// range, and returns the new score. A delta that leaves the score
// unchanged is a complete no-op: no undo snapshot, no log entry.
func (l *LedgerStore) ApplyDelta(teamID, delta int, label string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.findTeam(teamID)
	if err != nil {
		return 0, err
	}

	newScore := clampScore(team.Score + delta)
	if newScore == team.Score {
		return team.Score, nil
	}

	l.pushHistory(teamID, team.Score)
	l.appendLog(teamID, team.Score, newScore, label)
	team.Score = newScore
	l.persistScores()

	return newScore, nil
}

// SetAbsolute overwrites a team's score. Negative values are rejected;
// values above the cap clamp to it.
func (l *LedgerStore) SetAbsolute(teamID, value int, label string) (int, error) {
	if value < 0 {
		return 0, fmt.Errorf("%w: score must be non-negative", ErrInvalidValue)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.findTeam(teamID)
	if err != nil {
		return 0, err
	}

	newScore := clampScore(value)
	if newScore == team.Score {
		return team.Score, nil
	}

	l.pushHistory(teamID, team.Score)
	l.appendLog(teamID, team.Score, newScore, label)
	team.Score = newScore
	l.persistScores()

	return newScore, nil
}

// AwardGem applies a catalog gem's value to the team's score.
func (l *LedgerStore) AwardGem(teamID int, gemName string) (int, error) {
	gem, ok := models.GemByName(gemName)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGem, gemName)
	}
	return l.ApplyDelta(teamID, gem.Value, fmt.Sprintf("Gem award: %s %s", gem.Name, gem.Icon))
}

// Undo reverts the team's most recent mutation. With an empty undo stack
// it is a no-op returning the current score. Undo itself is not undoable.
func (l *LedgerStore) Undo(teamID int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.findTeam(teamID)
	if err != nil {
		return 0, err
	}

	stack := l.history[teamID]
	if len(stack) == 0 {
		return team.Score, nil
	}

	previous := stack[0]
	l.history[teamID] = stack[1:]

	l.appendLog(teamID, team.Score, previous, "Undo ↩️")
	team.Score = previous
	l.persistScores()

	return previous, nil
}

// ResetAll zeroes every team's score, pushing undo snapshots and logging
// a reset entry per team. Teams already at zero are left untouched.
func (l *LedgerStore) ResetAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := false
	for i := range l.teams {
		team := &l.teams[i]
		if team.Score == 0 {
			continue
		}
		l.pushHistory(team.ID, team.Score)
		l.appendLog(team.ID, team.Score, 0, "Season reset 🔄")
		team.Score = 0
		changed = true
	}
	if changed {
		l.persistScores()
	}
	return nil
}

// Team returns a copy of one team.
func (l *LedgerStore) Team(teamID int) (models.Team, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.findTeam(teamID)
	if err != nil {
		return models.Team{}, err
	}
	return *team, nil
}

// Teams returns a copy of the registry ordered by the active sort
// preference.
func (l *LedgerStore) Teams() []models.Team {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Team, len(l.teams))
	copy(out, l.teams)

	cfg := l.sortCfg
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch cfg.Key {
		case models.SortByName:
			less = strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		case models.SortByLeader:
			less = strings.ToLower(out[i].Leader) < strings.ToLower(out[j].Leader)
		case models.SortByScore:
			less = out[i].Score < out[j].Score
		default:
			less = out[i].ID < out[j].ID
		}
		if cfg.Direction == models.SortDesc {
			return !less && !equalByKey(out[i], out[j], cfg.Key)
		}
		return less
	})
	return out
}

// SortConfig returns the active sort preference.
func (l *LedgerStore) SortConfig() models.SortConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortCfg
}

// SortBy activates sorting on key. Selecting the already-active key
// flips the direction; a new key starts descending. The preference is
// persisted.
func (l *LedgerStore) SortBy(key models.SortKey) (models.SortConfig, error) {
	switch key {
	case models.SortByID, models.SortByName, models.SortByLeader, models.SortByScore:
	default:
		return models.SortConfig{}, fmt.Errorf("%w: %s", ErrInvalidSort, key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sortCfg.Key == key {
		if l.sortCfg.Direction == models.SortAsc {
			l.sortCfg.Direction = models.SortDesc
		} else {
			l.sortCfg.Direction = models.SortAsc
		}
	} else {
		l.sortCfg = models.SortConfig{Key: key, Direction: models.SortDesc}
	}

	if err := l.store.Save(store.KeySortConfig, l.sortCfg); err != nil {
		logrus.WithError(err).Error("failed to persist sort config")
	}
	return l.sortCfg, nil
}

// TeamLogs returns the team's audit log, newest first.
func (l *LedgerStore) TeamLogs(teamID int) ([]models.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.findTeam(teamID); err != nil {
		return nil, err
	}
	entries := l.logs[teamID]
	out := make([]models.LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// RecentActivity returns the n most recent log entries across all
// teams, newest first. Same-timestamp entries order by insertion, the
// most recently appended first.
func (l *LedgerStore) RecentActivity(n int) []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		n = models.GlobalFeedSize
	}

	var all []models.LogEntry
	for _, entries := range l.logs {
		all = append(all, entries...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp != all[j].Timestamp {
			return all[i].Timestamp > all[j].Timestamp
		}
		return all[i].Seq > all[j].Seq
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// UndoDepth reports how many undo snapshots a team currently holds.
func (l *LedgerStore) UndoDepth(teamID int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history[teamID])
}

// RegistryEdit is a partial update to a team's registry entry. Nil
// fields are left unchanged.
type RegistryEdit struct {
	Name     *string
	Leader   *string
	Password *string
	Score    *int
}

// UpdateTeam applies a manager registry edit. A score edit goes through
// the same snapshot-and-log path as every other mutation; a password
// edit replaces the leader secret with its bcrypt hash.
func (l *LedgerStore) UpdateTeam(teamID int, edit RegistryEdit) (models.Team, error) {
	if edit.Score != nil && *edit.Score < 0 {
		return models.Team{}, fmt.Errorf("%w: score must be non-negative", ErrInvalidValue)
	}

	var hash string
	if edit.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*edit.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.Team{}, fmt.Errorf("hash leader password: %w", err)
		}
		hash = string(h)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	team, err := l.findTeam(teamID)
	if err != nil {
		return models.Team{}, err
	}

	if edit.Name != nil && *edit.Name != "" {
		team.Name = *edit.Name
	}
	if edit.Leader != nil && *edit.Leader != "" {
		team.Leader = *edit.Leader
	}
	if edit.Password != nil {
		team.PasswordHash = hash
	}
	if edit.Score != nil {
		newScore := clampScore(*edit.Score)
		if newScore != team.Score {
			l.pushHistory(teamID, team.Score)
			l.appendLog(teamID, team.Score, newScore, fmt.Sprintf("Registry score edit: %d 🔧", newScore))
			team.Score = newScore
		}
	}

	l.persistScores()
	return *team, nil
}

// VerifyLeaderPassword checks a leader login secret against the team's
// stored hash, falling back to the default secret for teams without one.
func (l *LedgerStore) VerifyLeaderPassword(teamID int, password string) error {
	l.mu.Lock()
	team, err := l.findTeam(teamID)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	hash := team.PasswordHash
	l.mu.Unlock()

	if hash == "" {
		if password == models.DefaultLeaderPassword {
			return nil
		}
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Mission returns the active daily mission, or nil when none is set.
func (l *LedgerStore) Mission() *models.Mission {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mission == nil {
		return nil
	}
	m := *l.mission
	return &m
}

// SetMission replaces the daily mission wholesale and persists it.
func (l *LedgerStore) SetMission(m models.Mission) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mission = &m
	if err := l.store.Save(store.KeyMission, m); err != nil {
		return fmt.Errorf("persist mission: %w", err)
	}
	return nil
}

// internal helpers, caller holds l.mu

func (l *LedgerStore) findTeam(teamID int) (*models.Team, error) {
	for i := range l.teams {
		if l.teams[i].ID == teamID {
			return &l.teams[i], nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrTeamNotFound, teamID)
}

func (l *LedgerStore) pushHistory(teamID, score int) {
	stack := append([]int{score}, l.history[teamID]...)
	if len(stack) > models.MaxHistoryLength {
		stack = stack[:models.MaxHistoryLength]
	}
	l.history[teamID] = stack
}

func (l *LedgerStore) appendLog(teamID, before, after int, label string) {
	l.seq++
	entry := models.LogEntry{
		Timestamp: time.Now().UnixMilli(),
		Before:    before,
		After:     after,
		Label:     label,
		TeamID:    teamID,
		Seq:       l.seq,
	}
	entries := append([]models.LogEntry{entry}, l.logs[teamID]...)
	if len(entries) > models.MaxLogLength {
		entries = entries[:models.MaxLogLength]
	}
	l.logs[teamID] = entries

	logrus.WithFields(logrus.Fields{
		"team":   teamID,
		"before": before,
		"after":  after,
		"label":  label,
	}).Info("score mutation")

	if l.onMutate != nil {
		l.onMutate(entry)
	}
}

// persistScores saves teams and logs. Persistence failures are logged
// and do not roll back the in-memory state; the store contract is
// last-write-wins best effort.
func (l *LedgerStore) persistScores() {
	if err := l.store.Save(store.KeyTeams, l.teams); err != nil {
		logrus.WithError(err).Error("failed to persist teams")
	}
	if err := l.store.Save(store.KeyTeamLogs, l.logs); err != nil {
		logrus.WithError(err).Error("failed to persist team logs")
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > models.MaxTotalScore {
		return models.MaxTotalScore
	}
	return v
}

func equalByKey(a, b models.Team, key models.SortKey) bool {
	switch key {
	case models.SortByName:
		return strings.EqualFold(a.Name, b.Name)
	case models.SortByLeader:
		return strings.EqualFold(a.Leader, b.Leader)
	case models.SortByScore:
		return a.Score == b.Score
	default:
		return a.ID == b.ID
	}
}

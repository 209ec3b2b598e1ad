// services/gate.go - Action Gate: two-phase confirmation for privileged edits
package services

import (
	"errors"
	"fmt"
	"sync"

	"gemscore/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrOverLimit = errors.New("value exceeds manual adjustment limit")
	ErrNoPending = errors.New("no pending action")
)

// ActionKind distinguishes the two privileged mutations.
type ActionKind string

const (
	ActionAdjust    ActionKind = "adjust"
	ActionDirectSet ActionKind = "direct"
)

// PendingAction is a privileged score mutation awaiting confirmation.
// At most one exists system-wide.
type PendingAction struct {
	ID       string     `json:"id"`
	TeamID   int        `json:"team_id"`
	Kind     ActionKind `json:"kind"`
	Value    int        `json:"value"`
	IsAdding bool       `json:"is_adding,omitempty"`
}

// Gate intercepts manual adjustments and direct score overrides. Valid
// requests park as the single pending action until Confirm delegates
// them to the ledger or Cancel discards them. A new request while one is
// pending replaces it, matching a UI that only shows one confirmation
// dialog at a time.
type Gate struct {
	mu      sync.Mutex
	ledger  *LedgerStore
	pending *PendingAction
}

func NewGate(ledger *LedgerStore) *Gate {
	return &Gate{ledger: ledger}
}

// RequestAdjust stages a signed manual adjustment. The magnitude must be
// a positive integer no greater than MaxManualAdjustment.
func (g *Gate) RequestAdjust(teamID int, isAdding bool, value int) (*PendingAction, error) {
	if value <= 0 {
		return nil, fmt.Errorf("%w: adjustment must be a positive integer", ErrInvalidValue)
	}
	if value > models.MaxManualAdjustment {
		return nil, fmt.Errorf("%w (%d > %d)", ErrOverLimit, value, models.MaxManualAdjustment)
	}
	if _, err := g.ledger.Team(teamID); err != nil {
		return nil, err
	}

	return g.stage(&PendingAction{
		ID:       uuid.New().String(),
		TeamID:   teamID,
		Kind:     ActionAdjust,
		Value:    value,
		IsAdding: isAdding,
	}), nil
}

// RequestDirectSet stages a score override to a non-negative value.
func (g *Gate) RequestDirectSet(teamID, value int) (*PendingAction, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: score must be non-negative", ErrInvalidValue)
	}
	if _, err := g.ledger.Team(teamID); err != nil {
		return nil, err
	}

	return g.stage(&PendingAction{
		ID:     uuid.New().String(),
		TeamID: teamID,
		Kind:   ActionDirectSet,
		Value:  value,
	}), nil
}

// Pending returns a copy of the pending action, or nil when idle.
func (g *Gate) Pending() *PendingAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return nil
	}
	p := *g.pending
	return &p
}

// Confirm commits the pending action to the ledger and returns to idle.
// The descriptor is cleared whether or not the ledger accepts it.
func (g *Gate) Confirm() (int, *PendingAction, error) {
	g.mu.Lock()
	action := g.pending
	g.pending = nil
	g.mu.Unlock()

	if action == nil {
		return 0, nil, ErrNoPending
	}

	var (
		newScore int
		err      error
	)
	switch action.Kind {
	case ActionAdjust:
		delta := action.Value
		icon := "⭐"
		if !action.IsAdding {
			delta = -delta
			icon = "⚠️"
		}
		newScore, err = g.ledger.ApplyDelta(action.TeamID, delta, fmt.Sprintf("Manual adjustment: %+d %s", delta, icon))
	case ActionDirectSet:
		newScore, err = g.ledger.SetAbsolute(action.TeamID, action.Value, fmt.Sprintf("Score override: %d 🎯", action.Value))
	default:
		err = fmt.Errorf("%w: unknown action kind %q", ErrInvalidValue, action.Kind)
	}
	if err != nil {
		return 0, action, err
	}

	logrus.WithFields(logrus.Fields{
		"action": action.ID,
		"team":   action.TeamID,
		"kind":   action.Kind,
		"score":  newScore,
	}).Info("pending action confirmed")

	return newScore, action, nil
}

// Cancel discards the pending action with no ledger effect.
func (g *Gate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil {
		return ErrNoPending
	}
	logrus.WithField("action", g.pending.ID).Info("pending action cancelled")
	g.pending = nil
	return nil
}

func (g *Gate) stage(action *PendingAction) *PendingAction {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending != nil {
		logrus.WithFields(logrus.Fields{
			"replaced": g.pending.ID,
			"by":       action.ID,
		}).Info("pending action replaced")
	}
	g.pending = action
	p := *action
	return &p
}

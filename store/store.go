// store/store.go - Durable snapshot storage for the competition state
package store

import "errors"

// Snapshot keys. Values are JSON documents replaced wholesale on save.
const (
	KeyTeams      = "competition_teams"
	KeyTeamLogs   = "team_logs"
	KeySortConfig = "team_sort_config"
	KeyMission    = "daily_mission"
)

// ErrNotFound is returned by Load when a key has never been saved.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key-value snapshot store. The ledger loads every
// key once at startup and saves after each committed mutation; any
// mechanism with those two operations satisfies it.
type Store interface {
	// Load unmarshals the JSON value at key into v. Returns ErrNotFound
	// when the key has no value.
	Load(key string, v interface{}) error
	// Save marshals v to JSON and replaces the value at key.
	Save(key string, v interface{}) error
	Close() error
}

// models/team.go
package models

// Score bounds and history caps for the competition ledger.
const (
	MaxTotalScore       = 99_999_999
	MaxManualAdjustment = 100_000
	MaxHistoryLength    = 15 // undo snapshots kept per team
	MaxLogLength        = 50 // audit log entries kept per team
	GlobalFeedSize      = 10
)

// DefaultLeaderPassword is the fallback leader secret for teams that
// never had one assigned.
const DefaultLeaderPassword = "123"

// Team is a competing sales team. Score is only ever mutated through the
// ledger and stays within [0, MaxTotalScore].
type Team struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Leader       string `json:"leader"`
	Score        int    `json:"score"`
	Color        string `json:"color"`
	PasswordHash string `json:"-"`
}

// SeedTeams returns the default registry used when the store holds no
// team snapshot yet. Leader secrets are hashed by the caller.
func SeedTeams() []Team {
	return []Team{
		{ID: 1, Name: "Heritage Team", Leader: "Alice", Score: 0, Color: "#D4AF37"},
		{ID: 2, Name: "Canvas Elite", Leader: "Bob", Score: 0, Color: "#C5A059"},
		{ID: 3, Name: "Monogram Kings", Leader: "Charlie", Score: 0, Color: "#B6914B"},
		{ID: 4, Name: "Malle Masters", Leader: "Diana", Score: 0, Color: "#A7823D"},
	}
}

type SortKey string

type SortDirection string

const (
	SortByID     SortKey = "id"
	SortByName   SortKey = "name"
	SortByLeader SortKey = "leader"
	SortByScore  SortKey = "score"

	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig is the team list ordering preference, persisted across
// sessions.
type SortConfig struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

func DefaultSortConfig() SortConfig {
	return SortConfig{Key: SortByID, Direction: SortAsc}
}

// Valid reports whether the config names a known key and direction.
func (c SortConfig) Valid() bool {
	switch c.Key {
	case SortByID, SortByName, SortByLeader, SortByScore:
	default:
		return false
	}
	return c.Direction == SortAsc || c.Direction == SortDesc
}

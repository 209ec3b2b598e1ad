// models/mission.go
package models

// Mission is the singleton daily sales challenge. It is replaced
// wholesale by provider responses or manual edits and persisted across
// sessions.
type Mission struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Objective string `json:"objective"`
	Rules     string `json:"rules"`
	GemType   string `json:"gemType"`
}

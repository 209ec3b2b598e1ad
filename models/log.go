// models/log.go
package models

import "time"

// LogEntry is one immutable audit record of a score change. Entries are
// kept newest-first per team and evicted past MaxLogLength.
type LogEntry struct {
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Label     string `json:"type"`
	TeamID    int    `json:"team_id"`
	// Seq is a monotonic insertion counter; the global feed uses it to
	// break same-millisecond timestamp ties.
	Seq int64 `json:"seq"`
}

// Delta returns the signed score change this entry recorded.
func (e LogEntry) Delta() int {
	return e.After - e.Before
}

// Time returns the entry timestamp as time.Time.
func (e LogEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

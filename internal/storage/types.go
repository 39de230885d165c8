package storage

import "time"

// StatsRecord is one exported observation: a participant's raw statistics in one
// match, as returned by the API before normalization.
type StatsRecord struct {
	RunID      string         `json:"runId"`
	GameID     int64          `json:"gameId"`
	Slot       int            `json:"slot"`
	Name       string         `json:"summonerName"`
	ExportedAt time.Time      `json:"exportedAt"`
	Stats      map[string]any `json:"stats"`
}

// Package types contains leaderboard types shared by the store and the API.
package types

// Split is one source's contribution to a runner's total.
type Split struct {
	Source   string `json:"source"`
	Position int    `json:"position"`
	TimeGun  string `json:"time_gun"`
}

// Entry represents a combined leaderboard entry.
type Entry struct {
	Position     int     `json:"position"`
	Name         string  `json:"name"`
	City         string  `json:"city,omitempty"`
	Gender       string  `json:"gender"`
	Age          *int    `json:"age,omitempty"`
	Division     string  `json:"division,omitempty"`
	Splits       []Split `json:"splits"`
	TimeTotal    string  `json:"time_total"`
	TotalSeconds float64 `json:"time_total_seconds"`
}

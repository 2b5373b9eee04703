package entities

import (
	"time"
)

// SearchQuery records a single scene search for analytics. It never feeds ranking.
type SearchQuery struct {
	ID          string    `json:"id" db:"id"`
	Query       string    `json:"query" db:"query"`
	SessionKey  string    `json:"session_key,omitempty" db:"session_key"`
	ResultCount int       `json:"result_count" db:"result_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

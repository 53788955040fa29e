package models

import "time"

// HistoryItem is a snapshot of one personnel submission attempt.
type HistoryItem struct {
	ID        string    `json:"id"`        // UUID assigned on creation
	Data      FormState `json:"data"`      // Form values as submitted (before sheet formatting)
	Timestamp time.Time `json:"timestamp"` // Submission instant
	Synced    bool      `json:"synced"`    // True only when the remote call succeeded
}

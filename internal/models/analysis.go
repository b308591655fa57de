package models

import "time"

// Analysis is a saved nutrition report owned by one user.
type Analysis struct {
	// ID is the unique identifier for the record (UUIDv7, time ordered).
	ID string

	// OwnerID references the owning User. It never changes.
	OwnerID string

	// DishName is the display name. The only mutable field.
	DishName string

	// Text is the full report body as returned by the analyzer.
	Text string

	// Preview is an optional short summary chosen by the client.
	Preview *string

	// CreatedAt is when the record was saved. Lists sort on it, newest first.
	CreatedAt time.Time
}

// MaxListedAnalyses caps how many records a single list call returns.
const MaxListedAnalyses = 50

// Field limits for saved analyses.
const (
	MaxDishNameRunes = 200
	MaxAnalysisBytes = 64 << 10
	MaxPreviewBytes  = 512 << 10
)

package models

import "time"

// DictionaryEntry is a word a student has learned, stored in the student's
// personal dictionary sub-collection keyed by word ID. Repeated completions
// of a re-assigned word increment the counters instead of duplicating the
// entry.
type DictionaryEntry struct {
	WordID         string
	WordText       string
	ImageURL       string
	AudioURL       string
	AddedAt        time.Time
	LastReviewedAt time.Time
	PlayCount      int
	SuccessCount   int
}

package models

import "time"

// Word is an entry in the word catalog. Assignments copy text, refs and
// difficulty from here at creation time.
type Word struct {
	ID         string
	Text       string
	ImageURL   string
	AudioURL   string
	Difficulty int // 1-5 scale
	CreatedAt  time.Time
}

package domain

import "time"

// UserFeedback is a subjective rating of one rendering attempt.
type UserFeedback struct {
	ID        string    `json:"id"`
	RecordID  string    `json:"recordId"`
	Rating    int       `json:"rating"` // 1..5
	Category  string    `json:"category,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

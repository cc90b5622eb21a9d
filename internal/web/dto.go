package web

import (
	"time"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/models"
)

// CreateLetterRequest is the request body for writing a letter.
type CreateLetterRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// LetterListResponse wraps the stored letters in insertion order.
type LetterListResponse struct {
	Letters []models.Letter `json:"letters"`
	Count   int             `json:"count"`
}

// CountdownResponse is the time left until the next target date.
type CountdownResponse struct {
	Target time.Time `json:"target"`
	countdown.Remaining
}

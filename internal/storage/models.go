package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Rating is a single anonymous 1-5 vote. Append-only: never mutated or
// deleted once stored.
type Rating struct {
	ID        string
	Value     int
	CreatedAt time.Time
}

// RatingSummary is the derived view over all ratings. It is recomputed on
// every read, never stored.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ContactMessage is one contact-form submission. Append-only; fields are
// stored exactly as submitted, empty values included.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// AboutEntry is one section of the portfolio "about" content.
type AboutEntry struct {
	ID       string `json:"id"`
	Section  string `json:"section"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Position int    `json:"position"`
}

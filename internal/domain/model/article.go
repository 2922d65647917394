package model

import (
	"time"
)

// Sentiment labels attached to scraped articles. The analysis itself happens
// outside this core; the label is just data carried on the row.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

func ValidSentiment(s string) bool {
	return s == "" || s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Article is a scraped item owned by exactly one user. Articles are never
// shared; visibility is owner-only unless the caller is an admin.
type Article struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Content   *string    `json:"content,omitempty"`
	Sentiment *string    `json:"sentiment,omitempty"`
	Tags      []Tag      `json:"tags,omitempty"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

package model

import "time"

// ArticleSummary is one entry of a digest. Missing provider fields are
// replaced with placeholders before the summary is stored.
type ArticleSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Link        string `json:"link"`
}

// Digest is the stored per-user aggregation, at most three articles per
// subscribed topic. Rebuilding fully replaces the prior digest.
type Digest struct {
	Email    string           `json:"email"`
	Articles []ArticleSummary `json:"articles"`
	BuiltAt  time.Time        `json:"built_at"`
}

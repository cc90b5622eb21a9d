// Package models defines the domain types for Letterbox.
package models

// Letter is a persisted, user-authored message. Records are immutable once
// created; the JSON field set is the on-disk layout.
type Letter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Date    string `json:"date"`
}

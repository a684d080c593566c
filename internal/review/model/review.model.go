package model

import (
	"strings"
	"time"
)

// Review is a user's markdown review. ID, CreatedAt and ReviewDate are
// assigned by the store.
type Review struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Body       string    `db:"body" json:"body"`
	UserID     string    `db:"user_id" json:"userId"`
	Private    bool      `db:"private" json:"private"`
	Archive    bool      `db:"archive" json:"archive"`
	ReviewDate time.Time `db:"review_date" json:"reviewDate"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// IsDraft reports whether the review has never been persisted.
func (r Review) IsDraft() bool {
	return r.ID == ""
}

// Excerpt returns the first n characters of the body on a single line.
func (r Review) Excerpt(n int) string {
	runes := []rune(r.Body)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.ReplaceAll(string(runes), "\n", " ")
}

// UpsertRequest creates a review when ID is empty and updates it otherwise.
// Nil flags leave the stored value untouched on update.
type UpsertRequest struct {
	ID         string     `json:"id,omitempty"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	UserID     string     `json:"userId"`
	Private    *bool      `json:"private,omitempty"`
	Archive    *bool      `json:"archive,omitempty"`
	ReviewDate *time.Time `json:"reviewDate,omitempty"`
}

// DeleteRequest names the review to remove and the user who must own it.
type DeleteRequest struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}

// ChangeEvent is the payload published when a user's reviews change.
type ChangeEvent struct {
	ReviewID string `json:"id"`
	Action   string `json:"action"`
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Package controller keeps a user's review list in sync with the review store
// and tracks the per-review edit sessions of the view.
//
// The cached list is replaced wholesale by LoadReviews and refetched after
// every successful mutation. While a review is being edited its cached body
// mirrors the draft (live preview) until the edit is saved or cancelled.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"reviewshare/internal/review/model"
	"reviewshare/pkg/logger"
)

var (
	ErrMissingUser     = errors.New("controller: user id is required")
	ErrNoEditSession   = errors.New("controller: review is not being edited")
	ErrReviewNotCached = errors.New("controller: review is not in the loaded list")
)

// Store is the remote review store.
type Store interface {
	ListUserReviews(ctx context.Context, userID string) ([]model.Review, error)
	Upsert(ctx context.Context, req model.UpsertRequest) error
	Delete(ctx context.Context, req model.DeleteRequest) error
}

// State is the view mode of a single review.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// EditSession is the in-progress edit of one review.
type EditSession struct {
	ReviewID     string
	DraftBody    string
	OriginalBody string // cached body when the session started
}

// Snapshot is an immutable view of the controller state handed to subscribers.
type Snapshot struct {
	UserID  string
	Reviews []model.Review
	Editing map[string]string // review id -> draft body
}

// Controller owns the cached review list and the edit sessions of one view.
// All methods are safe for concurrent use; the lock is never held while the
// store is called or subscribers run.
type Controller struct {
	store Store

	mu          sync.Mutex
	userID      string
	reviews     []model.Review
	sessions    map[string]*EditSession
	loadIssued  uint64
	loadApplied uint64
	saveIssued  map[string]uint64
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New returns a controller with an empty list. Nothing is loaded until
// LoadReviews is called.
func New(store Store) *Controller {
	return &Controller{
		store:       store,
		sessions:    make(map[string]*EditSession),
		saveIssued:  make(map[string]uint64),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive a snapshot after every state change. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// LoadReviews replaces the cached list with the store's reviews for userID.
// On failure the cached list is left as it was. A response that arrives after
// the response of a later call is discarded.
func (c *Controller) LoadReviews(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUser
	}

	c.mu.Lock()
	c.loadIssued++
	seq := c.loadIssued
	c.mu.Unlock()

	reviews, err := c.store.ListUserReviews(ctx, userID)
	if err != nil {
		logger.Sugar.Warnf("Failed to load reviews for %s: %v", userID, err)
		return err
	}

	c.mu.Lock()
	if seq < c.loadApplied {
		c.mu.Unlock()
		logger.Sugar.Debugf("Discarding stale review list #%d for %s", seq, userID)
		return nil
	}
	c.loadApplied = seq
	c.applyLocked(userID, reviews)
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
	return nil
}

// applyLocked swaps in a fresh list. Drafts are dropped, sessions of reviews
// that disappeared are discarded and surviving sessions keep their draft
// mirrored into the new cached body.
func (c *Controller) applyLocked(userID string, reviews []model.Review) {
	if userID != c.userID {
		c.sessions = make(map[string]*EditSession)
	}
	c.userID = userID

	persisted := make([]model.Review, 0, len(reviews))
	present := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		if r.IsDraft() {
			continue
		}
		if s, ok := c.sessions[r.ID]; ok {
			r.Body = s.DraftBody
		}
		present[r.ID] = true
		persisted = append(persisted, r)
	}
	for id := range c.sessions {
		if !present[id] {
			delete(c.sessions, id)
		}
	}
	c.reviews = persisted
}

// CreateReview stores a new public review and refreshes the list. Empty
// title and body are accepted.
func (c *Controller) CreateReview(ctx context.Context, userID, title, body string) error {
	return c.create(ctx, model.UpsertRequest{Title: title, Body: body, UserID: userID})
}

// CreatePrivateReview is CreateReview for a review only its owner can see.
func (c *Controller) CreatePrivateReview(ctx context.Context, userID, title, body string) error {
	private := true
	return c.create(ctx, model.UpsertRequest{Title: title, Body: body, UserID: userID, Private: &private})
}

func (c *Controller) create(ctx context.Context, req model.UpsertRequest) error {
	if req.UserID == "" {
		return ErrMissingUser
	}
	if err := c.store.Upsert(ctx, req); err != nil {
		return err
	}
	return c.refresh(ctx, req.UserID, "create")
}

// EnterEditMode toggles edit mode for reviewID and returns the new state.
// Toggling off discards the draft exactly like CancelEdit.
func (c *Controller) EnterEditMode(reviewID string) (State, error) {
	c.mu.Lock()
	idx := c.indexLocked(reviewID)
	if idx < 0 {
		c.mu.Unlock()
		return Viewing, ErrReviewNotCached
	}

	state := Editing
	if s, ok := c.sessions[reviewID]; ok {
		c.reviews[idx].Body = s.OriginalBody
		delete(c.sessions, reviewID)
		state = Viewing
	} else {
		body := c.reviews[idx].Body
		c.sessions[reviewID] = &EditSession{ReviewID: reviewID, DraftBody: body, OriginalBody: body}
	}
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
	return state, nil
}

// UpdateDraft replaces the draft body and mirrors it into the cached review
// for live preview.
func (c *Controller) UpdateDraft(reviewID, body string) error {
	c.mu.Lock()
	s, ok := c.sessions[reviewID]
	if !ok {
		c.mu.Unlock()
		return ErrNoEditSession
	}
	s.DraftBody = body
	if idx := c.indexLocked(reviewID); idx >= 0 {
		c.reviews[idx].Body = body
	}
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
	return nil
}

// SaveReview persists the draft under the review's cached title, ends the
// session and refreshes the list. When the store rejects the save the session
// stays active with its draft.
func (c *Controller) SaveReview(ctx context.Context, userID, reviewID string) error {
	if userID == "" {
		return ErrMissingUser
	}

	c.mu.Lock()
	s, ok := c.sessions[reviewID]
	if !ok {
		c.mu.Unlock()
		return ErrNoEditSession
	}
	idx := c.indexLocked(reviewID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrReviewNotCached
	}
	c.saveIssued[reviewID]++
	seq := c.saveIssued[reviewID]
	req := model.UpsertRequest{
		ID:     reviewID,
		Title:  c.reviews[idx].Title,
		Body:   s.DraftBody,
		UserID: userID,
	}
	c.mu.Unlock()

	if err := c.store.Upsert(ctx, req); err != nil {
		logger.Sugar.Warnf("Failed to save review %s: %v", reviewID, err)
		return err
	}

	// Only the latest save of the same session ends it.
	c.mu.Lock()
	if c.saveIssued[reviewID] == seq && c.sessions[reviewID] == s {
		delete(c.sessions, reviewID)
	}
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()
	notify(subs, snap)

	return c.refresh(ctx, userID, "save")
}

// CancelEdit ends the session without contacting the store and restores the
// cached body to originalBody.
func (c *Controller) CancelEdit(reviewID, originalBody string) error {
	c.mu.Lock()
	if _, ok := c.sessions[reviewID]; !ok {
		c.mu.Unlock()
		return ErrNoEditSession
	}
	delete(c.sessions, reviewID)
	if idx := c.indexLocked(reviewID); idx >= 0 {
		c.reviews[idx].Body = originalBody
	}
	snap := c.snapshotLocked()
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, snap)
	return nil
}

// DeleteReview removes the review from the store and refreshes the list.
// Asking the user for confirmation is up to the caller.
func (c *Controller) DeleteReview(ctx context.Context, userID, reviewID string) error {
	if userID == "" {
		return ErrMissingUser
	}
	if err := c.store.Delete(ctx, model.DeleteRequest{ID: reviewID, UserID: userID}); err != nil {
		logger.Sugar.Warnf("Failed to delete review %s: %v", reviewID, err)
		return err
	}
	return c.refresh(ctx, userID, "delete")
}

// SetArchived moves a review in or out of the archive keeping its title,
// persisted body, visibility and review date.
func (c *Controller) SetArchived(ctx context.Context, userID, reviewID string, archived bool) error {
	return c.setFlags(ctx, userID, reviewID, "archive", func(r *model.Review) { r.Archive = archived })
}

// SetPrivate hides a review from everyone but its owner, or publishes it
// again. Title, persisted body, archive state and review date are kept.
func (c *Controller) SetPrivate(ctx context.Context, userID, reviewID string, private bool) error {
	return c.setFlags(ctx, userID, reviewID, "visibility change", func(r *model.Review) { r.Private = private })
}

// setFlags resends the cached review with the flags changed by set. An open
// edit session is left alone: its snapshot body is sent, not the draft.
func (c *Controller) setFlags(ctx context.Context, userID, reviewID, op string, set func(*model.Review)) error {
	if userID == "" {
		return ErrMissingUser
	}

	c.mu.Lock()
	idx := c.indexLocked(reviewID)
	if idx < 0 {
		c.mu.Unlock()
		return ErrReviewNotCached
	}
	r := c.reviews[idx]
	if s, ok := c.sessions[reviewID]; ok {
		r.Body = s.OriginalBody
	}
	c.mu.Unlock()

	set(&r)
	req := model.UpsertRequest{
		ID:      reviewID,
		Title:   r.Title,
		Body:    r.Body,
		UserID:  userID,
		Private: &r.Private,
		Archive: &r.Archive,
	}
	if !r.ReviewDate.IsZero() {
		req.ReviewDate = &r.ReviewDate
	}
	if err := c.store.Upsert(ctx, req); err != nil {
		logger.Sugar.Warnf("Failed to update review %s (%s): %v", reviewID, op, err)
		return err
	}
	return c.refresh(ctx, userID, op)
}

// Reviews returns a copy of the cached list.
func (c *Controller) Reviews() []model.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Review(nil), c.reviews...)
}

// Review returns the cached review with the given id.
func (c *Controller) Review(reviewID string) (model.Review, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(reviewID); idx >= 0 {
		return c.reviews[idx], true
	}
	return model.Review{}, false
}

// State reports whether reviewID is being edited.
func (c *Controller) State(reviewID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[reviewID]; ok {
		return Editing
	}
	return Viewing
}

// Session returns a copy of the active edit session for reviewID.
func (c *Controller) Session(reviewID string) (EditSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[reviewID]
	if !ok {
		return EditSession{}, false
	}
	return *s, true
}

func (c *Controller) refresh(ctx context.Context, userID, op string) error {
	if err := c.LoadReviews(ctx, userID); err != nil {
		return fmt.Errorf("refresh after %s: %w", op, err)
	}
	return nil
}

func (c *Controller) indexLocked(reviewID string) int {
	for i := range c.reviews {
		if c.reviews[i].ID == reviewID {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshotLocked() Snapshot {
	editing := make(map[string]string, len(c.sessions))
	for id, s := range c.sessions {
		editing[id] = s.DraftBody
	}
	return Snapshot{
		UserID:  c.userID,
		Reviews: append([]model.Review(nil), c.reviews...),
		Editing: editing,
	}
}

func (c *Controller) subscribersLocked() []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

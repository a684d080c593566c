package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewshare/internal/review/model"
	"reviewshare/internal/review/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	reviews   map[string]model.Review
	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reviews: map[string]model.Review{}}
}

func (f *fakeRepo) ListByUser(_ context.Context, userID string) ([]model.Review, error) {
	var out []model.Review
	for _, r := range f.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPublicByUser(_ context.Context, userID string) ([]model.Review, error) {
	var out []model.Review
	for _, r := range f.reviews {
		if r.UserID == userID && !r.Private {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetPublic(_ context.Context, id string) (*model.Review, error) {
	r, ok := f.reviews[id]
	if !ok || r.Private {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRepo) Insert(_ context.Context, review *model.Review, reviewDate *time.Time) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	review.CreatedAt = time.Now()
	review.ReviewDate = review.CreatedAt
	if reviewDate != nil {
		review.ReviewDate = *reviewDate
	}
	f.reviews[review.ID] = *review
	return nil
}

func (f *fakeRepo) Update(_ context.Context, req model.UpsertRequest) error {
	r, ok := f.reviews[req.ID]
	if !ok || r.UserID != req.UserID {
		return repository.ErrNotFound
	}
	r.Title, r.Body = req.Title, req.Body
	if req.Archive != nil {
		r.Archive = *req.Archive
	}
	if req.Private != nil {
		r.Private = *req.Private
	}
	f.reviews[req.ID] = r
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id, userID string) error {
	r, ok := f.reviews[id]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

type recordingHub struct {
	events []model.ChangeEvent
	users  []string
}

func (h *recordingHub) Publish(userID string, event any) {
	h.users = append(h.users, userID)
	h.events = append(h.events, event.(model.ChangeEvent))
}

func TestUpsertCreatesWithServerID(t *testing.T) {
	repo, hub := newFakeRepo(), &recordingHub{}
	svc := NewReviewService(repo, hub)

	review, err := svc.Upsert(context.Background(), model.UpsertRequest{Title: "Alpha", Body: "hi", UserID: "u1"})
	require.NoError(t, err)

	_, err = uuid.Parse(review.ID)
	assert.NoError(t, err, "id should be a uuid")
	assert.False(t, review.CreatedAt.IsZero())
	assert.Equal(t, []string{"u1"}, hub.users)
	assert.Equal(t, model.ChangeEvent{ReviewID: review.ID, Action: model.ActionCreated}, hub.events[0])
}

func TestUpsertAcceptsEmptyContent(t *testing.T) {
	svc := NewReviewService(newFakeRepo(), nil)
	review, err := svc.Upsert(context.Background(), model.UpsertRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, review.Title)
	assert.Empty(t, review.Body)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	repo, hub := newFakeRepo(), &recordingHub{}
	repo.reviews["r1"] = model.Review{ID: "r1", Title: "Alpha", Body: "old", UserID: "u1"}
	svc := NewReviewService(repo, hub)

	_, err := svc.Upsert(context.Background(), model.UpsertRequest{ID: "r1", Title: "Alpha", Body: "new", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "new", repo.reviews["r1"].Body)
	assert.Equal(t, model.ActionUpdated, hub.events[0].Action)
}

func TestUpsertOtherUsersReview(t *testing.T) {
	repo, hub := newFakeRepo(), &recordingHub{}
	repo.reviews["r1"] = model.Review{ID: "r1", UserID: "u1"}
	svc := NewReviewService(repo, hub)

	_, err := svc.Upsert(context.Background(), model.UpsertRequest{ID: "r1", Body: "hijack", UserID: "u2"})
	assert.True(t, IsNotFound(err))
	assert.Empty(t, hub.events)
}

func TestUpsertRequiresUser(t *testing.T) {
	svc := NewReviewService(newFakeRepo(), nil)
	_, err := svc.Upsert(context.Background(), model.UpsertRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestUpsertInsertFailure(t *testing.T) {
	repo, hub := newFakeRepo(), &recordingHub{}
	repo.insertErr = errors.New("db down")
	svc := NewReviewService(repo, hub)

	_, err := svc.Upsert(context.Background(), model.UpsertRequest{Title: "x", UserID: "u1"})
	assert.EqualError(t, err, "db down")
	assert.Empty(t, hub.events)
}

func TestDelete(t *testing.T) {
	repo, hub := newFakeRepo(), &recordingHub{}
	repo.reviews["r1"] = model.Review{ID: "r1", UserID: "u1"}
	svc := NewReviewService(repo, hub)

	require.NoError(t, svc.Delete(context.Background(), model.DeleteRequest{ID: "r1", UserID: "u1"}))
	assert.Empty(t, repo.reviews)
	assert.Equal(t, model.ActionDeleted, hub.events[0].Action)

	err := svc.Delete(context.Background(), model.DeleteRequest{ID: "r1", UserID: "u1"})
	assert.True(t, IsNotFound(err))
}

func TestGetPublicHidesPrivate(t *testing.T) {
	repo := newFakeRepo()
	repo.reviews["r1"] = model.Review{ID: "r1", UserID: "u1", Private: true}
	svc := NewReviewService(repo, nil)

	_, err := svc.GetPublic(context.Background(), "r1")
	assert.True(t, IsNotFound(err))
}

func TestListVisible(t *testing.T) {
	repo := newFakeRepo()
	repo.reviews["r1"] = model.Review{ID: "r1", UserID: "u1", Title: "open"}
	repo.reviews["r2"] = model.Review{ID: "r2", UserID: "u1", Title: "diary", Private: true}
	svc := NewReviewService(repo, nil)
	ctx := context.Background()

	own, err := svc.ListVisible(ctx, "u1", "u1")
	require.NoError(t, err)
	assert.Len(t, own, 2)

	for _, viewer := range []string{"", "u2"} {
		others, err := svc.ListVisible(ctx, "u1", viewer)
		require.NoError(t, err)
		require.Len(t, others, 1, "viewer %q", viewer)
		assert.Equal(t, "r1", others[0].ID)
	}

	_, err = svc.ListVisible(ctx, "", "u1")
	assert.ErrorIs(t, err, ErrMissingUser)
}

package service

import (
	"context"
	"errors"
	"time"

	"reviewshare/internal/review/model"
	"reviewshare/internal/review/repository"

	"github.com/google/uuid"
)

var ErrMissingUser = errors.New("userId is required")

// Repository is the persistence the service needs.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Review, error)
	ListPublicByUser(ctx context.Context, userID string) ([]model.Review, error)
	GetPublic(ctx context.Context, id string) (*model.Review, error)
	Insert(ctx context.Context, review *model.Review, reviewDate *time.Time) error
	Update(ctx context.Context, req model.UpsertRequest) error
	Delete(ctx context.Context, id, userID string) error
}

// Publisher receives change notifications for a user's reviews.
type Publisher interface {
	Publish(userID string, event any)
}

// ReviewService applies the store's rules on top of the repository and tells
// the hub about every successful change.
type ReviewService struct {
	Repo Repository
	Hub  Publisher
}

func NewReviewService(repo Repository, hub Publisher) *ReviewService {
	return &ReviewService{Repo: repo, Hub: hub}
}

// ListVisible returns the reviews of ownerID that viewerID may see: all of
// them for the owner, only public ones for anybody else. viewerID is empty
// for anonymous callers.
func (s *ReviewService) ListVisible(ctx context.Context, ownerID, viewerID string) ([]model.Review, error) {
	if ownerID == "" {
		return nil, ErrMissingUser
	}
	if viewerID == ownerID {
		return s.Repo.ListByUser(ctx, ownerID)
	}
	return s.Repo.ListPublicByUser(ctx, ownerID)
}

func (s *ReviewService) GetPublic(ctx context.Context, id string) (*model.Review, error) {
	return s.Repo.GetPublic(ctx, id)
}

// Upsert creates the review when req.ID is empty and updates it otherwise.
// Empty titles and bodies are accepted.
func (s *ReviewService) Upsert(ctx context.Context, req model.UpsertRequest) (*model.Review, error) {
	if req.UserID == "" {
		return nil, ErrMissingUser
	}

	if req.ID != "" {
		if err := s.Repo.Update(ctx, req); err != nil {
			return nil, err
		}
		s.publish(req.UserID, req.ID, model.ActionUpdated)
		return &model.Review{ID: req.ID, Title: req.Title, Body: req.Body, UserID: req.UserID}, nil
	}

	review := &model.Review{
		ID:     uuid.NewString(),
		Title:  req.Title,
		Body:   req.Body,
		UserID: req.UserID,
	}
	if req.Private != nil {
		review.Private = *req.Private
	}
	if req.Archive != nil {
		review.Archive = *req.Archive
	}
	if err := s.Repo.Insert(ctx, review, req.ReviewDate); err != nil {
		return nil, err
	}
	s.publish(req.UserID, review.ID, model.ActionCreated)
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, req model.DeleteRequest) error {
	if req.UserID == "" {
		return ErrMissingUser
	}
	if err := s.Repo.Delete(ctx, req.ID, req.UserID); err != nil {
		return err
	}
	s.publish(req.UserID, req.ID, model.ActionDeleted)
	return nil
}

func (s *ReviewService) publish(userID, reviewID, action string) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(userID, model.ChangeEvent{ReviewID: reviewID, Action: action})
}

// IsNotFound reports whether err means the review does not exist or is not
// visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reviewshare/internal/review/model"
	"reviewshare/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no review matches the id (and owner, for
// mutations).
var ErrNotFound = errors.New("review not found")

const reviewColumns = `id, title, body, user_id, private, archive, review_date, created_at`

// ReviewRepository reads and writes the reviews table. Every mutation is
// keyed by both review id and owner.
type ReviewRepository struct {
	DB *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

// ListByUser returns every review owned by userID, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.DB.SelectContext(ctx, &reviews,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list reviews for user %s: %v", userID, err)
		return nil, err
	}
	return reviews, nil
}

// ListPublicByUser returns the reviews of userID that are not marked private,
// newest first. This is what anyone other than the owner may see.
func (r *ReviewRepository) ListPublicByUser(ctx context.Context, userID string) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.DB.SelectContext(ctx, &reviews,
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 AND private = FALSE ORDER BY created_at DESC`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list public reviews for user %s: %v", userID, err)
		return nil, err
	}
	return reviews, nil
}

// GetPublic returns a review that is not marked private.
func (r *ReviewRepository) GetPublic(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.DB.GetContext(ctx, &review,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1 AND private = FALSE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get public review %s: %v", id, err)
		return nil, err
	}
	return &review, nil
}

// Insert stores a new review whose ID is already set and fills in the
// timestamps assigned by the database.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review, reviewDate *time.Time) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO reviews (id, title, body, user_id, private, archive, review_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), NOW())
		RETURNING review_date, created_at`,
		review.ID, review.Title, review.Body, review.UserID, review.Private, review.Archive, reviewDate,
	).Scan(&review.ReviewDate, &review.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create review for user %s: %v", review.UserID, err)
	}
	return err
}

// Update replaces title and body of a review owned by req.UserID. Nil flags
// keep their stored values.
func (r *ReviewRepository) Update(ctx context.Context, req model.UpsertRequest) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE reviews SET
			title = $1,
			body = $2,
			private = COALESCE($3, private),
			archive = COALESCE($4, archive),
			review_date = COALESCE($5, review_date)
		WHERE id = $6 AND user_id = $7`,
		req.Title, req.Body, req.Private, req.Archive, req.ReviewDate, req.ID, req.UserID,
	)
	if err != nil {
		logger.Sugar.Errorf("Failed to update review %s: %v", req.ID, err)
		return err
	}
	return requireAffected(result)
}

// Delete removes a review owned by userID.
func (r *ReviewRepository) Delete(ctx context.Context, id, userID string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete review %s: %v", id, err)
		return err
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

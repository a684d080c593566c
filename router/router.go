package router

import (
	"net/http"

	reviewHandler "reviewshare/internal/review"
	"reviewshare/internal/review/repository"
	"reviewshare/internal/review/service"
	"reviewshare/middleware"
	"reviewshare/socket"

	"github.com/jmoiron/sqlx"
)

// Options carries the router settings that come from configuration.
type Options struct {
	JWTSecret     []byte
	AllowedOrigin string // "*" when empty
}

// Setup wires repository, service and handlers into the store's routes.
// Reads are open to anonymous callers; private data and every change need a
// token whose subject owns the data.
func Setup(db *sqlx.DB, hub *socket.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(opts.JWTSecret)

	// Change notifications. The room is the token subject, never a query
	// parameter.
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		socket.ServeWs(hub, w, r, userID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	reviewRepo := repository.NewReviewRepository(db)
	reviewService := service.NewReviewService(reviewRepo, hub)
	reviewHandler := reviewHandler.NewReviewHandler(reviewService)

	mux.Handle("/reviews/get-user-reviews", middleware.OptionalAuth(opts.JWTSecret)(http.HandlerFunc(reviewHandler.GetUserReviews)))
	mux.HandleFunc("/reviews/get-public-review/{id}", reviewHandler.GetPublicReview)
	mux.Handle("/reviews/upsert-review", auth(http.HandlerFunc(reviewHandler.UpsertReview)))
	mux.Handle("/reviews/delete-review", auth(http.HandlerFunc(reviewHandler.DeleteReview)))

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return middleware.CORS(origin)(mux)
}

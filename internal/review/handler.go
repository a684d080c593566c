package handler

import (
	"encoding/json"
	"net/http"

	"reviewshare/internal/review/model"
	"reviewshare/internal/review/service"
	"reviewshare/middleware"
	"reviewshare/pkg/logger"
)

// ReviewHandler serves the review store's HTTP contract.
type ReviewHandler struct {
	Service *service.ReviewService
}

func NewReviewHandler(service *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Service: service}
}

// GetUserReviews lists the reviews of the userId query parameter. Private
// reviews are included only when the caller's token belongs to that user.
func (h *ReviewHandler) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId parameter", http.StatusBadRequest)
		return
	}

	// Without a matching token only public reviews come back.
	viewerID, _ := middleware.UserIDFromContext(r.Context())
	reviews, err := h.Service.ListVisible(r.Context(), userID, viewerID)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list reviews for %s: %v", userID, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, reviews)
}

// GetPublicReview answers with a one-element array, the shape the web client
// consumes.
func (h *ReviewHandler) GetPublicReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Missing review id", http.StatusBadRequest)
		return
	}

	review, err := h.Service.GetPublic(r.Context(), id)
	if service.IsNotFound(err) {
		http.Error(w, "Review not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to get public review %s: %v", id, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, []model.Review{*review})
}

func (h *ReviewHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !authorized(w, r, req.UserID) {
		return
	}

	review, err := h.Service.Upsert(r.Context(), req)
	if service.IsNotFound(err) {
		http.Error(w, "Review not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to upsert review: %v", err)
		http.Error(w, "Failed to save review", http.StatusInternalServerError)
		return
	}

	writeJSON(w, review)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req model.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !authorized(w, r, req.UserID) {
		return
	}

	if err := h.Service.Delete(r.Context(), req); err != nil {
		if service.IsNotFound(err) {
			http.Error(w, "Review not found", http.StatusNotFound)
			return
		}
		logger.Sugar.Errorf("Handler: Failed to delete review %s: %v", req.ID, err)
		http.Error(w, "Failed to delete review", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Review deleted successfully"))
}

// authorized rejects bodies whose userId is not the token subject.
func authorized(w http.ResponseWriter, r *http.Request, userID string) bool {
	subject, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if userID != subject {
		http.Error(w, "Forbidden: userId does not match token", http.StatusForbidden)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Handler: Failed to encode response: %v", err)
	}
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	reviewsvc "github.com/vladislavdragonenkov/ecom/internal/service/review"
)

type createReviewRequest struct {
	Rating  int32  `json:"rating"`
	Content string `json:"content"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	review, err := s.reviews.Create(reviewsvc.CreateRequest{
		UserID:    claims.UserID,
		ProductID: productID,
		Rating:    req.Rating,
		Content:   req.Content,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewView(review))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "productID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	reviews, err := s.reviews.ListByProduct(productID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewViews(reviews))
}

// handleDeleteReview удаляет отзыв. Разрешено автору отзыва и администратору.
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review id")
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	review, err := s.reviews.Get(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if review.UserID != claims.UserID && claims.Role != string(domain.RoleAdmin) {
		writeError(w, http.StatusForbidden, "Review belongs to another user")
		return
	}

	if err := s.reviews.Delete(id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

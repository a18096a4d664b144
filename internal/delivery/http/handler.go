package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biterank/backend/internal/domain"
)

// Recommender is the recommendation use case the handlers depend on
type Recommender interface {
	GetTopRatedRestaurants(ctx context.Context, location, search string) []domain.RestaurantListing
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recommendations Recommender
}

// NewHandler creates a new HTTP handler. Passing an untyped nil makes the
// recommendation endpoint answer 503; a typed nil pointer is not detected.
func NewHandler(recommendations Recommender) *Handler {
	return &Handler{recommendations: recommendations}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "biterank-backend",
		"version": "1.0.0",
	})
}

// GetRecommendations returns one page of top rated restaurants for a location
func (h *Handler) GetRecommendations(c *gin.Context) {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "recommendation service not configured",
		})
		return
	}

	var req domain.RecommendationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrInvalidRequest.Error() + ": page must be >= 1 and limit between 1 and 50",
		})
		return
	}

	req.Location = strings.TrimSpace(req.Location)
	req.Search = strings.TrimSpace(req.Search)
	if req.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": domain.ErrInvalidRequest.Error() + ": location is required",
		})
		return
	}

	listings := h.recommendations.GetTopRatedRestaurants(c.Request.Context(), req.Location, req.Search)
	c.JSON(http.StatusOK, paginate(listings, req.Page, req.Limit))
}

// paginate slices one page out of the ordered listings
func paginate(listings []domain.RestaurantListing, page, limit int) domain.RecommendationsResponse {
	total := len(listings)
	totalPages := (total + limit - 1) / limit

	// Compare before multiplying so huge page numbers cannot overflow.
	start := total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := min(start+limit, total)

	data := listings[start:end]
	if data == nil {
		data = []domain.RestaurantListing{}
	}

	return domain.RecommendationsResponse{
		Data: data,
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}

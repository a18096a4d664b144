package domain

// SourceGoogle tags listings that came from (or imitate) the Google Places provider.
const SourceGoogle = "google"

// RestaurantListing is a provider-agnostic restaurant record returned by the
// recommendations endpoint. Optional string fields are empty when absent and
// are omitted from JSON.
type RestaurantListing struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	Rating       float64  `json:"rating"`
	TotalRatings int      `json:"totalRatings"`
	PriceLevel   string   `json:"priceLevel,omitempty"` // "$" .. "$$$$"
	Cuisine      string   `json:"cuisine,omitempty"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
	Source       string   `json:"source"`
	SourceURL    string   `json:"sourceUrl"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// RecommendationsRequest represents the query parameters of a recommendations request
type RecommendationsRequest struct {
	Location string `form:"location"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=12" binding:"min=1,max=50"`
}

// Pagination describes one page of an ordered listing sequence
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// RecommendationsResponse is the body of a recommendations response
type RecommendationsResponse struct {
	Data       []RestaurantListing `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

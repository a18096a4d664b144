package domain

// Google Places web service statuses that carry a usable payload.
const (
	PlacesStatusOK          = "OK"
	PlacesStatusZeroResults = "ZERO_RESULTS"
)

// PlacesTextSearchResponse represents a page of the Places text search API
type PlacesTextSearchResponse struct {
	Results       []PlaceSearchResult `json:"results"`
	NextPageToken string              `json:"next_page_token,omitempty"`
	Status        string              `json:"status"`
	ErrorMessage  string              `json:"error_message,omitempty"`
}

// PlaceSearchResult is a single text search hit. Only the reference is used;
// everything else comes from the details lookup.
type PlaceSearchResult struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
}

// PlaceDetailsResponse represents the response of the Places details API
type PlaceDetailsResponse struct {
	Result       *PlaceDetails `json:"result,omitempty"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// PlaceDetails holds the detail fields requested for each search hit
type PlaceDetails struct {
	Name             string         `json:"name"`
	FormattedAddress string         `json:"formatted_address"`
	Rating           *float64       `json:"rating,omitempty"`
	UserRatingsTotal int            `json:"user_ratings_total"`
	PriceLevel       *int           `json:"price_level,omitempty"`
	Types            []string       `json:"types"`
	Photos           []PlacePhoto   `json:"photos,omitempty"`
	URL              string         `json:"url,omitempty"`
	Geometry         *PlaceGeometry `json:"geometry,omitempty"`
}

// PlacePhoto is a photo reference that can be turned into an image URL
type PlacePhoto struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

// PlaceGeometry carries the coordinates of a place
type PlaceGeometry struct {
	Location LatLng `json:"location"`
}

// LatLng is a coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

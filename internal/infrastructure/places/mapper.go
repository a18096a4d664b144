package places

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/biterank/backend/internal/domain"
)

// GenericCuisine labels places that only carry generic food-service tags
const GenericCuisine = "Restaurant"

// cuisineKeywords are matched as case-insensitive substrings of provider tags
var cuisineKeywords = []string{
	"afghan", "african", "american", "argentinian", "asian", "bagel", "bakery",
	"barbecue", "brazilian", "breakfast", "british", "brunch", "burger",
	"cajun", "caribbean", "chinese", "colombian", "cuban", "dessert",
	"dim_sum", "ethiopian", "filipino", "french", "fusion",
	"german", "greek", "hamburger", "hawaiian", "indian", "indonesian",
	"irish", "italian", "jamaican", "japanese", "korean", "latin",
	"lebanese", "malaysian", "mediterranean", "mexican", "middle_eastern",
	"moroccan", "nepalese", "noodle", "pakistani", "persian", "peruvian",
	"pizza", "polish", "portuguese", "ramen", "russian", "salvadoran",
	"sandwich", "seafood", "spanish", "steak", "sushi", "taco",
	"tapas", "thai", "turkish", "vegan", "vegetarian", "vietnamese",
}

// genericFoodTags mark a food-service place without a specific cuisine
var genericFoodTags = map[string]bool{
	"restaurant":    true,
	"food":          true,
	"meal_takeaway": true,
	"meal_delivery": true,
}

// genericSuffixes are stripped from humanized cuisine tags ("Italian Restaurant" -> "Italian")
var genericSuffixes = []string{" Restaurant", " Food", " Takeaway", " Delivery"}

// ExtractCuisine derives a cuisine label from the provider's tag list. The
// first tag matching a cuisine keyword wins; generic food tags yield
// GenericCuisine; anything else yields "".
func ExtractCuisine(types []string) string {
	for _, tag := range types {
		lower := strings.ToLower(tag)
		for _, keyword := range cuisineKeywords {
			if strings.Contains(lower, keyword) {
				return humanizeTag(lower)
			}
		}
	}

	for _, tag := range types {
		if genericFoodTags[strings.ToLower(tag)] {
			return GenericCuisine
		}
	}

	return ""
}

// humanizeTag turns "italian_restaurant" into "Italian"
func humanizeTag(tag string) string {
	// Casers are stateful, so one per call keeps concurrent detail lookups safe.
	label := cases.Title(language.English).String(strings.ReplaceAll(tag, "_", " "))
	for _, suffix := range genericSuffixes {
		if strings.HasSuffix(label, suffix) && len(label) > len(suffix) {
			return strings.TrimSuffix(label, suffix)
		}
	}
	return label
}

// FormatPriceLevel renders a provider price tier as that many "$" characters.
// Missing or non-positive tiers render as "".
func FormatPriceLevel(level *int) string {
	if level == nil || *level <= 0 {
		return ""
	}
	return strings.Repeat("$", *level)
}

// DefaultSourceURL links to the provider page of a place when details carry no URL
func DefaultSourceURL(placeID string) string {
	return fmt.Sprintf("https://www.google.com/maps/place/?q=place_id:%s", placeID)
}

// MapToListing converts place details into a RestaurantListing. It reports
// false when the details have no rating; such places are not listed.
func MapToListing(placeID string, details *domain.PlaceDetails, photoURL string) (domain.RestaurantListing, bool) {
	if details == nil || details.Rating == nil {
		return domain.RestaurantListing{}, false
	}

	listing := domain.RestaurantListing{
		ID:           placeID,
		Name:         details.Name,
		Location:     details.FormattedAddress,
		Rating:       *details.Rating,
		TotalRatings: details.UserRatingsTotal,
		PriceLevel:   FormatPriceLevel(details.PriceLevel),
		Cuisine:      ExtractCuisine(details.Types),
		PhotoURL:     photoURL,
		Source:       domain.SourceGoogle,
		SourceURL:    details.URL,
	}
	if listing.SourceURL == "" {
		listing.SourceURL = DefaultSourceURL(placeID)
	}
	if listing.TotalRatings < 0 {
		listing.TotalRatings = 0
	}
	if details.Geometry != nil {
		lat, lng := details.Geometry.Location.Lat, details.Geometry.Location.Lng
		listing.Lat = &lat
		listing.Lng = &lng
	}

	return listing, true
}

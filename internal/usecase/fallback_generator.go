package usecase

import (
	"cmp"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/biterank/backend/internal/domain"
)

// variedListingCount is how many procedurally named listings follow the archetypes
const variedListingCount = 45

// archetype is a hand-written synthetic restaurant
type archetype struct {
	name         string
	street       string
	rating       float64
	totalRatings int
	priceLevel   string
	cuisine      string
}

var archetypes = []archetype{
	{"The Golden Spoon", "123 Main St", 4.5, 342, "$$", "American"},
	{"Pasta Paradise", "456 Oak Ave", 4.3, 218, "$$$", "Italian"},
	{"Sushi Zen", "789 Pine St", 4.7, 156, "$$$$", "Japanese"},
	{"Taco Fiesta", "321 Elm St", 4.2, 489, "$", "Mexican"},
	{"Spice Route", "654 Maple Dr", 4.4, 275, "$$", "Indian"},
	{"Le Petit Bistro", "987 Cedar Ln", 4.6, 198, "$$$", "French"},
	{"Dragon Palace", "159 Birch Rd", 4.1, 367, "$$", "Chinese"},
	{"Seoul Kitchen", "753 Walnut St", 4.5, 221, "$$", "Korean"},
	{"Bangkok Garden", "852 Spruce Ave", 4.3, 304, "$$", "Thai"},
	{"Olive & Vine", "426 Willow Way", 4.4, 176, "$$$", "Mediterranean"},
}

var (
	nameAdjectives = []string{
		"Rustic", "Golden", "Little", "Urban", "Blue", "Happy", "Hidden",
		"Royal", "Cozy", "Smoky", "Sunny", "Crimson", "Wild", "Humble",
	}
	nameCuisines = []string{
		"Italian", "Japanese", "Mexican", "Indian", "French", "Chinese",
		"Korean", "Thai", "Greek", "Vietnamese", "American", "Spanish",
		"Mediterranean", "Lebanese", "Peruvian", "Ethiopian",
	}
	nameTypes = []string{
		"Kitchen", "Bistro", "Grill", "Cafe", "House", "Table", "Eatery",
		"Diner", "Cantina", "Tavern", "Trattoria", "Canteen",
	}
	streetNames = []string{
		"Main St", "Oak Ave", "Congress Ave", "Lamar Blvd", "Park Pl",
		"River Rd", "Market St", "Lake Dr", "Hill St", "Mill Ln",
	}
	priceLevels = []string{"$", "$$", "$$$", "$$$$"}
)

// FallbackListings generates synthetic restaurant listings for when the
// places provider is not configured or fails. It performs no I/O and never fails.
type FallbackListings struct {
	seed uint64
}

// NewFallbackListings creates a generator. A non-zero seed makes every call
// return the same listings for the same arguments; zero reseeds randomly on
// every call.
func NewFallbackListings(seed uint64) *FallbackListings {
	return &FallbackListings{seed: seed}
}

// GenerateFallback returns the archetypes followed by procedurally varied
// listings, all located in location, ordered by rating descending. A
// non-empty search keeps only listings whose name or cuisine contains it.
func (g *FallbackListings) GenerateFallback(location, search string) []domain.RestaurantListing {
	// A fresh faker per call: Faker is not safe for concurrent use.
	faker := gofakeit.New(g.seed)

	listings := make([]domain.RestaurantListing, 0, len(archetypes)+variedListingCount)
	for i, a := range archetypes {
		listings = append(listings, domain.RestaurantListing{
			ID:           fmt.Sprintf("fallback-%d", i+1),
			Name:         a.name,
			Location:     fmt.Sprintf("%s, %s", a.street, location),
			Rating:       a.rating,
			TotalRatings: a.totalRatings,
			PriceLevel:   a.priceLevel,
			Cuisine:      a.cuisine,
			Source:       domain.SourceGoogle,
			SourceURL:    fallbackSourceURL(a.name, location),
		})
	}

	for i := 0; i < variedListingCount; i++ {
		cuisine := faker.RandomString(nameCuisines)
		name := fmt.Sprintf("%s %s %s",
			faker.RandomString(nameAdjectives), cuisine, faker.RandomString(nameTypes))

		listings = append(listings, domain.RestaurantListing{
			ID:           fmt.Sprintf("fallback-%d", len(archetypes)+i+1),
			Name:         name,
			Location:     fmt.Sprintf("%d %s, %s", faker.IntRange(100, 9999), faker.RandomString(streetNames), location),
			Rating:       math.Round(faker.Float64Range(3.5, 5.0)*10) / 10,
			TotalRatings: faker.IntRange(25, 2500),
			PriceLevel:   faker.RandomString(priceLevels),
			Cuisine:      cuisine,
			Source:       domain.SourceGoogle,
			SourceURL:    fallbackSourceURL(name, location),
		})
	}

	listings = filterListings(listings, search)
	slices.SortStableFunc(listings, func(a, b domain.RestaurantListing) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	return listings
}

// filterListings keeps listings whose name or cuisine contains search, case-insensitively
func filterListings(listings []domain.RestaurantListing, search string) []domain.RestaurantListing {
	if search == "" {
		return listings
	}

	needle := strings.ToLower(search)
	filtered := make([]domain.RestaurantListing, 0, len(listings))
	for _, l := range listings {
		if strings.Contains(strings.ToLower(l.Name), needle) ||
			strings.Contains(strings.ToLower(l.Cuisine), needle) {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func fallbackSourceURL(name, location string) string {
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(name+" "+location)
}

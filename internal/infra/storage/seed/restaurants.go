// Package seed holds the demo restaurant catalog loaded into empty stores.
package seed

import (
	"github.com/gosimple/slug"

	"github.com/m04kA/SMC-TableBooking/internal/domain"
	"github.com/m04kA/SMC-TableBooking/pkg/types"
)

type entry struct {
	name     string
	cuisine  string
	city     string
	location string
	capacity int
	price    domain.PriceRange
	rating   float64
	open     types.TimeString
	close    types.TimeString
}

var catalog = []entry{
	{"Trattoria Lucia", "Italian", "Austin", "412 Congress Ave", 40, domain.PriceModerate, 4.6, "11:30", "22:00"},
	{"Pasta Fresca", "Italian", "Austin", "88 Rainey St", 24, domain.PriceBudget, 4.1, "12:00", "21:30"},
	{"Osteria del Ponte", "Italian", "Denver", "1500 Larimer St", 60, domain.PriceUpscale, 4.4, "17:00", "23:00"},
	{"El Comal", "Mexican", "Austin", "2301 Cesar Chavez", 80, domain.PriceBudget, 4.3, "10:00", "22:00"},
	{"Cantina Azul", "Mexican", "Portland", "19 NW 23rd Ave", 35, domain.PriceModerate, 3.9, "11:00", "23:30"},
	{"Golden Lotus", "Chinese", "Denver", "720 Federal Blvd", 120, domain.PriceModerate, 4.0, "11:00", "22:00"},
	{"Sakura House", "Japanese", "Portland", "505 SE Division St", 30, domain.PriceUpscale, 4.8, "17:00", "22:30"},
	{"Smoke & Barrel", "American", "Austin", "900 E 6th St", 150, domain.PriceModerate, 4.2, "11:00", "01:00"},
	{"Le Petit Jardin", "French", "Denver", "33 Pearl St", 28, domain.PriceFineDining, 4.7, "18:00", "23:00"},
	{"Baan Thai", "Thai", "Portland", "1201 N Mississippi Ave", 45, domain.PriceBudget, 4.5, "11:30", "21:30"},
	{"Masala Route", "Indian", "Austin", "6001 Burnet Rd", 70, domain.PriceModerate, 4.4, "11:30", "22:30"},
	{"Olive & Fig", "Mediterranean", "Denver", "250 Colfax Ave", 55, domain.PriceModerate, 4.1, "11:00", "22:00"},
	{"Pho Saigon", "Vietnamese", "Portland", "8120 SE Powell Blvd", 20, domain.PriceBudget, 4.3, "10:00", "21:00"},
}

// Restaurants returns a fresh copy of the demo catalog.
// IDs are slugs of the names, so they stay stable between runs.
func Restaurants(timezone string, seatingMinutes int) []*domain.Restaurant {
	out := make([]*domain.Restaurant, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, &domain.Restaurant{
			ID:         slug.Make(e.name),
			Name:       e.name,
			Cuisine:    e.cuisine,
			Capacity:   e.capacity,
			City:       e.city,
			Location:   e.location,
			PriceRange: e.price,
			Rating:     e.rating,
			Policy: domain.OperatingPolicy{
				Timezone:       timezone,
				SeatingMinutes: seatingMinutes,
				Hours:          domain.EveryDay(e.open, e.close),
			},
		})
	}
	return out
}

package cost

import (
	"testing"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

var (
	movie      = &catalog.Item{ID: "m", Domain: catalog.Movie}
	restaurant = &catalog.Item{ID: "r", Domain: catalog.Restaurant, PriceRange: "$$"}
	activity   = &catalog.Item{ID: "a", Domain: catalog.Activity, CostPerPerson: ptr(22.5)}
)

func TestEstimate(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name    string
		m, r, a *catalog.Item
		group   *int
		want    float64
	}{
		{"all three solo", movie, restaurant, activity, nil, 67.5},
		{"all three for four", movie, restaurant, activity, ptr(4), 270},
		{"missing restaurant", movie, nil, activity, ptr(2), 75},
		{"nothing selected", nil, nil, nil, ptr(3), 0},
		{"unknown tier", movie, &catalog.Item{Domain: catalog.Restaurant, PriceRange: "?"}, nil, nil, 15},
		{"activity without price", nil, nil, &catalog.Item{Domain: catalog.Activity}, ptr(2), 0},
		{"non-positive group treated as one", movie, nil, nil, ptr(0), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Estimate(tt.m, tt.r, tt.a, tt.group)
			if got != tt.want {
				t.Errorf("expected %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestEstimate_MonotonicInGroupSize(t *testing.T) {
	table := DefaultTable()
	prev := -1.0
	for n := 1; n <= 20; n++ {
		got := table.Estimate(movie, restaurant, activity, ptr(n))
		if got < prev {
			t.Fatalf("cost decreased from %.2f to %.2f at group %d", prev, got, n)
		}
		prev = got
	}
}

func TestEstimate_RoundsToCents(t *testing.T) {
	table := Table{TicketPrice: 10.333}
	if got := table.Estimate(movie, nil, nil, ptr(3)); got != 31 {
		t.Errorf("expected 31.00, got %v", got)
	}
}

func TestPerPerson(t *testing.T) {
	table := DefaultTable()
	table.TicketPrice = 12

	if p, ok := table.PerPerson(movie); !ok || p != 12 {
		t.Errorf("movie: expected 12, got %v %v", p, ok)
	}
	if p, ok := table.PerPerson(restaurant); !ok || p != 30 {
		t.Errorf("restaurant: expected 30, got %v %v", p, ok)
	}
	if p, ok := table.PerPerson(activity); !ok || p != 22.5 {
		t.Errorf("activity: expected 22.5, got %v %v", p, ok)
	}
	if _, ok := table.PerPerson(nil); ok {
		t.Error("nil item should have no price")
	}
}

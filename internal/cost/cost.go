// Package cost estimates what a recommended outing costs a group.
package cost

import (
	"math"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
)

// DefaultTicketPrice is the per-person movie ticket price in USD.
const DefaultTicketPrice = 15.0

// Table holds the per-person prices the estimator works from.
type Table struct {
	TicketPrice float64
	Tiers       map[string]float64 // restaurant price range -> USD per person
}

// DefaultTable returns the standard price table.
func DefaultTable() Table {
	return Table{
		TicketPrice: DefaultTicketPrice,
		Tiers: map[string]float64{
			"$":    15,
			"$$":   30,
			"$$$":  60,
			"$$$$": 100,
		},
	}
}

// PerPerson returns the per-person cost of item. ok is false when the item
// carries no price information.
func (t Table) PerPerson(item *catalog.Item) (float64, bool) {
	if item == nil {
		return 0, false
	}
	switch item.Domain {
	case catalog.Movie:
		return t.TicketPrice, true
	case catalog.Restaurant:
		p, ok := t.Tiers[item.PriceRange]
		return p, ok
	case catalog.Activity:
		if item.CostPerPerson == nil {
			return 0, false
		}
		return *item.CostPerPerson, true
	}
	return 0, false
}

// Estimate sums the per-person cost of each selected item times the group
// size (1 when unknown). Missing items contribute nothing.
func (t Table) Estimate(movie, restaurant, activity *catalog.Item, groupSize *int) float64 {
	group := 1
	if groupSize != nil && *groupSize > 0 {
		group = *groupSize
	}

	var total float64
	for _, it := range []*catalog.Item{movie, restaurant, activity} {
		if p, ok := t.PerPerson(it); ok && p > 0 {
			total += p * float64(group)
		}
	}
	return math.Round(total*100) / 100
}

package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/concierge/internal/validation"
)

// Domain names one of the three recommendation verticals.
type Domain string

const (
	Movie      Domain = "movie"
	Restaurant Domain = "restaurant"
	Activity   Domain = "activity"
)

// Domains lists every domain in result order.
var Domains = []Domain{Movie, Restaurant, Activity}

var ErrDuplicateID = errors.New("duplicate catalog id")

// Item is a single recommendable movie, restaurant or activity. All domains
// share this shape; fields a domain does not use stay zero.
type Item struct {
	ID              string         `json:"id" yaml:"id" validate:"required"`
	Domain          Domain         `json:"domain" yaml:"-"`
	Title           string         `json:"title" yaml:"title" validate:"required"`
	Description     string         `json:"description,omitempty" yaml:"description"`
	Tags            []string       `json:"tags,omitempty" yaml:"tags"` // genre, cuisine or activity type
	MoodTags        []string       `json:"mood_tags,omitempty" yaml:"mood_tags"`
	Ambiance        []string       `json:"ambiance,omitempty" yaml:"ambiance"`
	Rating          float64        `json:"rating,omitempty" yaml:"rating" validate:"gte=0,lte=10"`
	DurationMinutes int            `json:"duration_minutes,omitempty" yaml:"duration_minutes" validate:"gte=0"`
	PriceRange      string         `json:"price_range,omitempty" yaml:"price_range" validate:"omitempty,oneof=$ $$ $$$ $$$$"`
	CostPerPerson   *float64       `json:"cost_per_person,omitempty" yaml:"cost_per_person" validate:"omitempty,gte=0"`
	GroupSize       GroupSizeRange `json:"group_size" yaml:"group_size"`
	Location        string         `json:"location,omitempty" yaml:"location"`
	EmbeddingText   string         `json:"embedding_text" yaml:"embedding_text"`
}

// GroupSizeRange is an inclusive [Min, Max] range of party sizes. The zero
// value places no constraint on group size.
type GroupSizeRange struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gtefield=Min"`
}

// Any reports whether the range accepts every group size.
func (r GroupSizeRange) Any() bool {
	return r.Min == 0 && r.Max == 0
}

// Contains reports whether a party of n fits the range.
func (r GroupSizeRange) Contains(n int) bool {
	if r.Any() {
		return true
	}
	return n >= r.Min && n <= r.Max
}

func (r GroupSizeRange) String() string {
	if r.Any() {
		return "any"
	}
	return strconv.Itoa(r.Min) + "-" + strconv.Itoa(r.Max)
}

// MarshalJSON renders the range as a two-element array, or null when it is
// unconstrained.
func (r GroupSizeRange) MarshalJSON() ([]byte, error) {
	if r.Any() {
		return []byte("null"), nil
	}
	return json.Marshal([2]int{r.Min, r.Max})
}

func (r *GroupSizeRange) UnmarshalJSON(data []byte) error {
	var sizes []int
	if err := json.Unmarshal(data, &sizes); err != nil {
		return fmt.Errorf("group_size: %w", err)
	}
	*r = rangeOf(sizes)
	return nil
}

// UnmarshalYAML accepts either [min, max] or a list of suitable sizes such as
// [2, 4, 6]; the range spans the smallest to the largest entry.
func (r *GroupSizeRange) UnmarshalYAML(node *yaml.Node) error {
	var sizes []int
	if err := node.Decode(&sizes); err != nil {
		return fmt.Errorf("group_size: %w", err)
	}
	*r = rangeOf(sizes)
	return nil
}

func rangeOf(sizes []int) GroupSizeRange {
	if len(sizes) == 0 {
		return GroupSizeRange{}
	}
	r := GroupSizeRange{Min: sizes[0], Max: sizes[0]}
	for _, s := range sizes[1:] {
		r.Min = min(r.Min, s)
		r.Max = max(r.Max, s)
	}
	return r
}

// HasLocation reports whether the item is tied to a particular area.
func (it Item) HasLocation() bool {
	return strings.TrimSpace(it.Location) != ""
}

// describe builds the text an item is embedded from when the catalog does not
// provide one.
func (it Item) describe() string {
	parts := []string{it.Title}
	if it.Description != "" {
		parts = append(parts, it.Description)
	}
	if len(it.Tags) > 0 {
		parts = append(parts, strings.Join(it.Tags, ", "))
	}
	if len(it.MoodTags) > 0 {
		parts = append(parts, "mood: "+strings.Join(it.MoodTags, ", "))
	}
	if len(it.Ambiance) > 0 {
		parts = append(parts, "ambiance: "+strings.Join(it.Ambiance, ", "))
	}
	if it.HasLocation() {
		parts = append(parts, "location: "+it.Location)
	}
	return strings.Join(parts, ". ")
}

// Catalog holds every candidate item, grouped by domain.
type Catalog struct {
	Movies      []Item `json:"movies" yaml:"movies"`
	Restaurants []Item `json:"restaurants" yaml:"restaurants"`
	Activities  []Item `json:"activities" yaml:"activities"`
}

// Items returns the items of one domain in catalog order.
func (c *Catalog) Items(d Domain) []Item {
	switch d {
	case Movie:
		return c.Movies
	case Restaurant:
		return c.Restaurants
	case Activity:
		return c.Activities
	}
	return nil
}

// Len returns the total number of items.
func (c *Catalog) Len() int {
	return len(c.Movies) + len(c.Restaurants) + len(c.Activities)
}

// Prepare stamps each item with its domain, derives missing embedding text,
// normalises locations and validates the result. It must run before the
// catalog is used.
func (c *Catalog) Prepare() error {
	seen := make(map[string]Domain, c.Len())
	for _, d := range Domains {
		items := c.Items(d)
		for i := range items {
			it := &items[i]
			it.Domain = d
			it.Location = strings.ToLower(strings.TrimSpace(it.Location))
			if strings.TrimSpace(it.EmbeddingText) == "" {
				it.EmbeddingText = it.describe()
			}
			if err := validation.Struct(it); err != nil {
				return fmt.Errorf("%s %q: %w", d, it.ID, err)
			}
			if prev, ok := seen[it.ID]; ok {
				return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateID, it.ID, prev, d)
			}
			seen[it.ID] = d
		}
	}
	return nil
}

package extractor

import "strings"

// Occasion is the closed set of occasions the engine understands.
type Occasion string

const (
	DateNight       Occasion = "Date Night"
	FamilyGathering Occasion = "Family Gathering"
	FriendsHangout  Occasion = "Friends Hangout"
	Solo            Occasion = "Solo"
	Business        Occasion = "Business"
	Celebration     Occasion = "Celebration"
	Relaxation      Occasion = "Relaxation"
)

// Occasions lists every valid occasion.
var Occasions = []Occasion{DateNight, FamilyGathering, FriendsHangout, Solo, Business, Celebration, Relaxation}

var occasionAliases = map[string]Occasion{
	"date":        DateNight,
	"romantic":    DateNight,
	"family":      FamilyGathering,
	"friends":     FriendsHangout,
	"hangout":     FriendsHangout,
	"alone":       Solo,
	"work":        Business,
	"birthday":    Celebration,
	"anniversary": Celebration,
	"party":       Celebration,
	"relax":       Relaxation,
	"relaxing":    Relaxation,
}

func occasionKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// ParseOccasion maps free-form model output ("date_night", "family gathering",
// "Birthday") onto an Occasion.
func ParseOccasion(s string) (Occasion, bool) {
	key := occasionKey(s)
	if key == "" {
		return "", false
	}
	for _, o := range Occasions {
		if occasionKey(string(o)) == key {
			return o, true
		}
	}
	o, ok := occasionAliases[key]
	return o, ok
}

// Preferences is the structured reading of a user's request. Nil fields were
// not stated; a present zero (a "free" budget) is a real value.
type Preferences struct {
	Mood      *string   `json:"mood,omitempty"`
	Occasion  *Occasion `json:"occasion,omitempty"`
	Budget    *float64  `json:"budget,omitempty"` // per person, USD
	GroupSize *int      `json:"group_size,omitempty"`
	Location  *string   `json:"location,omitempty"`

	MovieGenres   []string `json:"movie_genres,omitempty"`
	Cuisines      []string `json:"cuisines,omitempty"`
	ActivityTypes []string `json:"activity_types,omitempty"`

	RawText string `json:"raw_text"`
}

// Party returns the group size, or 1 when it was not stated.
func (p Preferences) Party() int {
	if p.GroupSize == nil {
		return 1
	}
	return *p.GroupSize
}

// llmResponse is the JSON contract the model is asked to fill. Numeric fields
// are decoded loosely because models return "$50" as often as 50.
type llmResponse struct {
	Mood          *string  `json:"mood"`
	Occasion      *string  `json:"occasion"`
	Budget        any      `json:"budget"`
	GroupSize     any      `json:"group_size"`
	Location      *string  `json:"location"`
	MovieGenres   []string `json:"movie_genres"`
	Cuisines      []string `json:"cuisines"`
	ActivityTypes []string `json:"activity_types"`
}

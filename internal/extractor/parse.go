package extractor

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

var errNoJSON = errors.New("no JSON object in response")

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"solo": 1, "couple": 2, "pair": 2,
}

// decode pulls the first JSON object out of a model reply, tolerating code
// fences and chatter around it.
func decode(raw string) (llmResponse, error) {
	var resp llmResponse
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return resp, errNoJSON
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return resp, fmt.Errorf("decode preferences: %w", err)
	}
	return resp, nil
}

func (r llmResponse) toPreferences(rawText string) Preferences {
	p := Preferences{
		RawText:       rawText,
		Mood:          cleanString(r.Mood, false),
		Location:      cleanString(r.Location, true),
		Budget:        parseBudget(r.Budget),
		GroupSize:     parseGroupSize(r.GroupSize),
		MovieGenres:   cleanList(r.MovieGenres),
		Cuisines:      cleanList(r.Cuisines),
		ActivityTypes: cleanList(r.ActivityTypes),
	}
	if r.Occasion != nil {
		if o, ok := ParseOccasion(*r.Occasion); ok {
			p.Occasion = &o
		}
	}
	return p
}

func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "null", "none", "unknown", "n/a", "not specified":
		return true
	}
	return false
}

func cleanString(s *string, lower bool) *string {
	if s == nil || isBlank(*s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	if lower {
		v = strings.ToLower(v)
	}
	return &v
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		v := strings.ToLower(strings.TrimSpace(s))
		if isBlank(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// firstNumber finds the first number in s, ignoring currency symbols and
// thousands separators.
func firstNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBudget(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		n, ok := firstNumber(s)
		switch {
		case ok:
			f = n
		case strings.Contains(s, "free"):
			f = 0
		default:
			return nil
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

func parseGroupSize(v any) *int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if n, ok := firstNumber(s); ok {
			f = n
		} else {
			found := false
			for _, w := range strings.Fields(s) {
				if n, ok := numberWords[w]; ok {
					f, found = float64(n), true
					break
				}
			}
			if !found {
				return nil
			}
		}
	default:
		return nil
	}
	if math.IsNaN(f) || f < 1 || f > math.MaxInt32 {
		return nil
	}
	n := int(math.Round(f))
	return &n
}

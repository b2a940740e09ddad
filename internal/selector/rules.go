package selector

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
	"github.com/MikeSquared-Agency/concierge/internal/extractor"
)

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("prefs", cel.DynType),
	)
}

// compileRule turns a CEL expression into a program. The expression must
// produce a bool.
func compileRule(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile rule %q: must return bool, got %s", expr, t)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	return prg, nil
}

func evalRule(prg cel.Program, item catalog.Item, p extractor.Preferences) (bool, error) {
	out, _, err := prg.Eval(map[string]any{
		"item":  itemInput(item),
		"prefs": prefsInput(p),
	})
	if err != nil {
		return false, fmt.Errorf("eval rule: %w", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("eval rule: expected bool, got %T", out.Value())
	}
	return ok, nil
}

// itemInput exposes an item to rules. Absent values are null so rules can
// test them with `item.cost_per_person != null`.
func itemInput(it catalog.Item) map[string]any {
	var cost any
	if it.CostPerPerson != nil {
		cost = *it.CostPerPerson
	}
	return map[string]any{
		"id":               it.ID,
		"domain":           string(it.Domain),
		"title":            it.Title,
		"tags":             stringsOrEmpty(it.Tags),
		"mood_tags":        stringsOrEmpty(it.MoodTags),
		"ambiance":         stringsOrEmpty(it.Ambiance),
		"rating":           it.Rating,
		"duration_minutes": it.DurationMinutes,
		"price_range":      it.PriceRange,
		"cost_per_person":  cost,
		"group_min":        it.GroupSize.Min,
		"group_max":        it.GroupSize.Max,
		"location":         it.Location,
	}
}

func prefsInput(p extractor.Preferences) map[string]any {
	in := map[string]any{
		"mood":           nil,
		"occasion":       nil,
		"budget":         nil,
		"group_size":     nil,
		"location":       nil,
		"movie_genres":   stringsOrEmpty(p.MovieGenres),
		"cuisines":       stringsOrEmpty(p.Cuisines),
		"activity_types": stringsOrEmpty(p.ActivityTypes),
		"raw_text":       p.RawText,
	}
	if p.Mood != nil {
		in["mood"] = *p.Mood
	}
	if p.Occasion != nil {
		in["occasion"] = string(*p.Occasion)
	}
	if p.Budget != nil {
		in["budget"] = *p.Budget
	}
	if p.GroupSize != nil {
		in["group_size"] = *p.GroupSize
	}
	if p.Location != nil {
		in["location"] = *p.Location
	}
	return in
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

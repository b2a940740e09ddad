package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/concierge/internal/catalog"
)

//go:embed schema.sql
var schema string

const itemColumns = `id, domain, title, description, tags, mood_tags, ambiance, rating,
	duration_minutes, price_range, cost_per_person, group_min, group_max, location, embedding_text`

// Migrate creates the catalog table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Load reads the whole catalog. It implements catalog.Loader.
func (s *Store) Load(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+itemColumns+` FROM catalog_items ORDER BY domain, position, id`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var c catalog.Catalog
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		switch it.Domain {
		case catalog.Movie:
			c.Movies = append(c.Movies, it)
		case catalog.Restaurant:
			c.Restaurants = append(c.Restaurants, it)
		case catalog.Activity:
			c.Activities = append(c.Activities, it)
		default:
			return nil, fmt.Errorf("item %s: unknown domain %q", it.ID, it.Domain)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}

	if err := c.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare catalog: %w", err)
	}
	return &c, nil
}

func scanItem(row pgx.Row) (catalog.Item, error) {
	var it catalog.Item
	var domain string
	err := row.Scan(
		&it.ID, &domain, &it.Title, &it.Description, &it.Tags, &it.MoodTags, &it.Ambiance, &it.Rating,
		&it.DurationMinutes, &it.PriceRange, &it.CostPerPerson, &it.GroupSize.Min, &it.GroupSize.Max,
		&it.Location, &it.EmbeddingText,
	)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("scan catalog item: %w", err)
	}
	it.Domain = catalog.Domain(domain)
	return it, nil
}

// Seed upserts every item of c in one transaction. Position keeps catalog
// order so ties in similarity resolve the same way as the source file.
func (s *Store) Seed(ctx context.Context, c *catalog.Catalog) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, d := range catalog.Domains {
		for pos, it := range c.Items(d) {
			batch.Queue(`
				INSERT INTO catalog_items (`+itemColumns+`, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
				ON CONFLICT (id) DO UPDATE SET
					domain = EXCLUDED.domain, title = EXCLUDED.title, description = EXCLUDED.description,
					tags = EXCLUDED.tags, mood_tags = EXCLUDED.mood_tags, ambiance = EXCLUDED.ambiance,
					rating = EXCLUDED.rating, duration_minutes = EXCLUDED.duration_minutes,
					price_range = EXCLUDED.price_range, cost_per_person = EXCLUDED.cost_per_person,
					group_min = EXCLUDED.group_min, group_max = EXCLUDED.group_max,
					location = EXCLUDED.location, embedding_text = EXCLUDED.embedding_text,
					position = EXCLUDED.position`,
				it.ID, string(it.Domain), it.Title, it.Description, nonNil(it.Tags), nonNil(it.MoodTags), nonNil(it.Ambiance),
				it.Rating, it.DurationMinutes, it.PriceRange, it.CostPerPerson, it.GroupSize.Min, it.GroupSize.Max,
				it.Location, it.EmbeddingText, pos,
			)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert catalog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return batch.Len(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package catalogue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yongy146/dota-brain-sub002/internal/herobuild"
)

// Schema is the SQL DDL for the catalogue tables. Execute it via
// [PostgresSource.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS catalogue_abilities (
    id           TEXT PRIMARY KEY,
    hero         TEXT NOT NULL,
    talent       BOOLEAN NOT NULL DEFAULT false,
    talent_level INTEGER NOT NULL DEFAULT 0,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_catalogue_abilities_hero ON catalogue_abilities(hero);

CREATE TABLE IF NOT EXISTS catalogue_items (
    id         TEXT PRIMARY KEY,
    cost       INTEGER NOT NULL CHECK (cost >= 0),
    neutral    BOOLEAN NOT NULL DEFAULT false,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const (
	abilitiesTable = "catalogue_abilities"
	itemsTable     = "catalogue_items"
)

// DB is the database interface used by [PostgresSource]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresSource is a [Source] backed by a PostgreSQL database, for teams that
// publish the catalogues centrally instead of shipping files.
type PostgresSource struct {
	db DB
}

var _ Source = (*PostgresSource)(nil)

// NewPostgresSource creates a [PostgresSource] over the given connection or
// pool. The caller owns db and closes it once Load has returned.
func NewPostgresSource(db DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Migrate executes the [Schema] DDL, creating the catalogue tables if they do
// not already exist.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("catalogue: migrate: %w", err)
	}
	return nil
}

// Load reads both tables in full and freezes them into a [Catalogues].
// Query failures wrap [ErrUnavailable]; an empty or invalid table does not.
func (s *PostgresSource) Load(ctx context.Context) (*Catalogues, error) {
	abilities, err := s.loadAbilities(ctx)
	if err != nil {
		return nil, withPath(fmt.Errorf("%w: %w", ErrUnavailable, err), KindAbilities, abilitiesTable)
	}
	items, err := s.loadItems(ctx)
	if err != nil {
		return nil, withPath(fmt.Errorf("%w: %w", ErrUnavailable, err), KindItems, itemsTable)
	}

	c, err := New(abilities, items)
	if err != nil {
		if le, ok := err.(*CatalogueLoadError); ok {
			if le.Catalogue == KindAbilities {
				le.Path = abilitiesTable
			} else {
				le.Path = itemsTable
			}
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresSource) loadAbilities(ctx context.Context) ([]Ability, error) {
	const query = `
		SELECT id, hero, talent, talent_level
		FROM catalogue_abilities
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []Ability
	for rows.Next() {
		var (
			id, hero string
			talent   bool
			level    int
		)
		if err := rows.Scan(&id, &hero, &talent, &level); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, Ability{ID: herobuild.AbilityID(id), Hero: hero, Talent: talent, TalentLevel: level})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) loadItems(ctx context.Context) ([]Item, error) {
	const query = `
		SELECT id, cost, neutral
		FROM catalogue_items
		ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			id      string
			cost    int
			neutral bool
		)
		if err := rows.Scan(&id, &cost, &neutral); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, Item{ID: herobuild.ItemID(id), Cost: &cost, Neutral: neutral})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Import replaces the contents of both catalogue tables with c and returns
// the number of rows written. Rows whose id is not in c are deleted. The
// import runs in one transaction: on error nothing changes and 0 is returned.
func (s *PostgresSource) Import(ctx context.Context, c *Catalogues) (int, error) {
	const (
		pruneAbilities = `DELETE FROM catalogue_abilities WHERE NOT (id = ANY($1))`
		pruneItems     = `DELETE FROM catalogue_items WHERE NOT (id = ANY($1))`

		abilityQuery = `
		INSERT INTO catalogue_abilities (id, hero, talent, talent_level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			hero = EXCLUDED.hero,
			talent = EXCLUDED.talent,
			talent_level = EXCLUDED.talent_level,
			updated_at = now()`

		itemQuery = `
		INSERT INTO catalogue_items (id, cost, neutral)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			cost = EXCLUDED.cost,
			neutral = EXCLUDED.neutral,
			updated_at = now()`
	)

	abilities, items := c.Abilities(), c.Items()
	abilityIDs := make([]string, len(abilities))
	for i, a := range abilities {
		abilityIDs[i] = string(a.ID)
	}
	itemIDs := make([]string, len(items))
	for i, it := range items {
		itemIDs[i] = string(it.ID)
	}

	n := 0
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pruneAbilities, abilityIDs); err != nil {
			return fmt.Errorf("prune %s: %w", abilitiesTable, err)
		}
		if _, err := tx.Exec(ctx, pruneItems, itemIDs); err != nil {
			return fmt.Errorf("prune %s: %w", itemsTable, err)
		}
		for _, a := range abilities {
			if _, err := tx.Exec(ctx, abilityQuery, string(a.ID), a.Hero, a.Talent, a.TalentLevel); err != nil {
				return fmt.Errorf("ability %q: %w", a.ID, err)
			}
			n++
		}
		for _, it := range items {
			if _, err := tx.Exec(ctx, itemQuery, string(it.ID), it.GoldCost(), it.Neutral); err != nil {
				return fmt.Errorf("item %q: %w", it.ID, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("catalogue: import: %w", err)
	}
	return n, nil
}

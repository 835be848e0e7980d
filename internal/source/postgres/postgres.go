// Package postgres loads a price series from a table through pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"goldforecast/internal/series"
	"goldforecast/internal/source"
)

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source reads every (date, price) row of Table ordered by date.
type Source struct {
	DB          Querier
	Table       string
	DateColumn  string
	PriceColumn string
	SeriesName  string
}

func (s *Source) Name() string { return "postgres:" + s.Table }

// Query returns the SQL issued by Load. Identifiers are quoted, and a
// schema-qualified table name ("public.gold") is split on the dot.
func (s *Source) Query() string {
	date := pgx.Identifier{s.DateColumn}.Sanitize()
	price := pgx.Identifier{s.PriceColumn}.Sanitize()
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
		date, price, tableIdent(s.Table).Sanitize(), price, date)
}

func tableIdent(name string) pgx.Identifier {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return pgx.Identifier{name[:i], name[i+1:]}
		}
	}
	return pgx.Identifier{name}
}

func (s *Source) Load(ctx context.Context) (*series.Series, error) {
	rows, err := s.DB.Query(ctx, s.Query())
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", source.ErrUnavailable, s.Table, err)
	}
	defer rows.Close()

	var obs []series.Observation
	for rows.Next() {
		var (
			date  time.Time
			price float64
		)
		if err := rows.Scan(&date, &price); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		obs = append(obs, series.Observation{Date: date, Price: price})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", source.ErrUnavailable, s.Table, err)
	}

	name := s.SeriesName
	if name == "" {
		name = "Price"
	}
	return series.FromObservations(name, obs)
}

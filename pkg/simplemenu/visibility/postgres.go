package visibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRecords is returned by PostgresPersister.Load when the table is empty.
var ErrNoRecords = errors.New("no visibility records stored")

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresPersister mirrors the document into the menu_visibility table,
// one row per menu item.
type PostgresPersister struct {
	db TxBeginner
}

// NewPostgresPersister creates a persister over db.
func NewPostgresPersister(db TxBeginner) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) Name() string {
	return "postgres:menu_visibility"
}

func (p *PostgresPersister) Load(ctx context.Context) (map[string]Record, error) {
	query := `
		SELECT name, show_normal_watermarked, show_normal_clean,
		       show_premium_watermarked, show_premium_clean
		FROM menu_visibility`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visibility: %w", err)
	}
	defer rows.Close()

	records := make(map[string]Record)
	for rows.Next() {
		var name string
		var r Record
		if err := rows.Scan(&name, &r.ShowNormalWatermarked, &r.ShowNormalClean,
			&r.ShowPremiumWatermarked, &r.ShowPremiumClean); err != nil {
			return nil, fmt.Errorf("failed to scan visibility: %w", err)
		}
		records[name] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate visibility: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func (p *PostgresPersister) Save(ctx context.Context, records map[string]Record) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	upsert := `
		INSERT INTO menu_visibility (
			name, show_normal_watermarked, show_normal_clean,
			show_premium_watermarked, show_premium_clean, updated_at
		) VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (name) DO UPDATE SET
			show_normal_watermarked = EXCLUDED.show_normal_watermarked,
			show_normal_clean = EXCLUDED.show_normal_clean,
			show_premium_watermarked = EXCLUDED.show_premium_watermarked,
			show_premium_clean = EXCLUDED.show_premium_clean,
			updated_at = EXCLUDED.updated_at`

	names := make([]string, 0, len(records))
	for name, r := range records {
		names = append(names, name)
		if _, err := tx.Exec(ctx, upsert, name, r.ShowNormalWatermarked, r.ShowNormalClean,
			r.ShowPremiumWatermarked, r.ShowPremiumClean); err != nil {
			return fmt.Errorf("failed to upsert visibility for %s: %w", name, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM menu_visibility WHERE NOT (name = ANY($1))`, names); err != nil {
		return fmt.Errorf("failed to prune visibility: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit visibility: %w", err)
	}
	return nil
}

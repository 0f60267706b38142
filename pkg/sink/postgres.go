package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"

	"github.com/HatiCode/millboard/pkg/mill"
)

var tableNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// PostgresSink inserts observations into Table, creating it if needed. The
// columns match what PostgresAdapter selects.
type PostgresSink struct {
	DB *sql.DB
	// Table defaults to "observations".
	Table string
	// Truncate empties the table before inserting.
	Truncate bool
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) table() (string, error) {
	table := p.Table
	if table == "" {
		table = "observations"
	}
	if !tableNameRegex.MatchString(table) {
		return "", fmt.Errorf("postgres sink: invalid table name %q", table)
	}
	return table, nil
}

// Write implements Sink. All rows are inserted in one transaction.
func (p *PostgresSink) Write(ctx context.Context, observations []mill.Observation) error {
	table, err := p.table()
	if err != nil {
		return err
	}

	if _, err := p.DB.ExecContext(ctx, createTableSQL(table)); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if p.Truncate {
		if _, err := tx.ExecContext(ctx, "TRUNCATE "+table); err != nil {
			return fmt.Errorf("failed to truncate table: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			date, plant, machine, utilization,
			material_downgrade, quality_downgrade, packing_downgrade,
			machine_energy, utility_energy, bpt
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range observations {
		if _, err := stmt.ExecContext(ctx,
			o.Date, o.Plant, o.Machine, o.Utilization,
			o.Downgrade.Material, o.Downgrade.Quality, o.Downgrade.Packing,
			o.Energy.Machine, o.Energy.Utility, o.BPT,
		); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			date DATE NOT NULL,
			plant TEXT NOT NULL,
			machine TEXT NOT NULL,
			utilization DOUBLE PRECISION NOT NULL,
			material_downgrade DOUBLE PRECISION NOT NULL,
			quality_downgrade DOUBLE PRECISION NOT NULL,
			packing_downgrade DOUBLE PRECISION NOT NULL,
			machine_energy DOUBLE PRECISION NOT NULL,
			utility_energy DOUBLE PRECISION NOT NULL,
			bpt DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (date, plant, machine)
		)
	`, table)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"total-comp/models"
)

// PostgresStore persists one survey dataset to PostgreSQL and loads it back.
type PostgresStore struct {
	db      *sql.DB
	table   string
	columns []models.Column
}

// TableName returns the PostgreSQL table holding the dataset.
func TableName(d models.Dataset) string {
	if d == models.Aggregates {
		return "survey_aggregates"
	}
	return "survey_responses"
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore for the dataset.
func NewPostgresStore(dsn string, dataset models.Dataset) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return NewPostgresStoreWithDB(db, dataset)
}

// NewPostgresStoreWithDB wraps an existing connection pool and runs migrations.
func NewPostgresStoreWithDB(db *sql.DB, dataset models.Dataset) (*PostgresStore, error) {
	ps := &PostgresStore{db: db, table: TableName(dataset), columns: dataset.Columns()}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	defs := make([]string, 0, len(ps.columns)+1)
	defs = append(defs, "id SERIAL PRIMARY KEY")
	for _, c := range ps.columns {
		if c.Kind == models.Numeric {
			defs = append(defs, columnName(c)+" DOUBLE PRECISION")
		} else {
			defs = append(defs, columnName(c)+" TEXT NOT NULL DEFAULT ''")
		}
	}

	_, err := ps.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		);

		CREATE INDEX IF NOT EXISTS idx_%s_level     ON %s(level);
		CREATE INDEX IF NOT EXISTS idx_%s_total_yoe ON %s(total_yoe);
	`, ps.table, strings.Join(defs, ",\n\t\t\t"),
		ps.table, ps.table, ps.table, ps.table))
	return err
}

func columnName(c models.Column) string {
	return strings.ToLower(c.Name)
}

// Write replaces the stored dataset with the rows of t in a single transaction.
func (ps *PostgresStore) Write(ctx context.Context, t *models.Table) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+ps.table); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	rows := t.Rows()
	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ps.insertBatch(ctx, tx, rows[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (ps *PostgresStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Row) error {
	width := len(ps.columns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, r := range batch {
		base := idx * width
		ph := make([]string, width)
		for j, c := range ps.columns {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
			if c.Kind == models.Numeric {
				if v, ok := r.Number[c.Name]; ok {
					valueArgs = append(valueArgs, v)
				} else {
					valueArgs = append(valueArgs, nil)
				}
			} else {
				valueArgs = append(valueArgs, r.Text[c.Name])
			}
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
	}

	names := make([]string, width)
	for j, c := range ps.columns {
		names[j] = columnName(c)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES %s`,
		ps.table, strings.Join(names, ", "), strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// Load retrieves the stored dataset in insertion order. Rows are validated
// the same way the CSV cleaner validates them.
func (ps *PostgresStore) Load(ctx context.Context) (*models.Table, error) {
	names := make([]string, len(ps.columns))
	for j, c := range ps.columns {
		names[j] = columnName(c)
	}

	rows, err := ps.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`,
		strings.Join(names, ", "), ps.table))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var out []*models.Row
	for rows.Next() {
		texts := make([]string, len(ps.columns))
		nums := make([]sql.NullFloat64, len(ps.columns))
		dest := make([]interface{}, len(ps.columns))
		for j, c := range ps.columns {
			if c.Kind == models.Numeric {
				dest[j] = &nums[j]
			} else {
				dest[j] = &texts[j]
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}

		r := models.NewRow()
		for j, c := range ps.columns {
			if c.Kind == models.Numeric {
				if nums[j].Valid {
					r.Number[c.Name] = nums[j].Float64
				}
			} else {
				r.Text[c.Name] = texts[j]
			}
		}
		if err := models.CheckRow(ps.columns, r); err != nil {
			return nil, fmt.Errorf("postgres: %s row %d: %w", ps.table, len(out)+1, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate rows: %w", err)
	}
	return models.NewTable(ps.columns, out), nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

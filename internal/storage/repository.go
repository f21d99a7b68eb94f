// Package storage is the local SQLite warehouse. It is fed by the deposit
// ingest worker and can stand in for BigQuery during development.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"platinum/internal/core"
	applog "platinum/internal/log"
	"platinum/internal/warehouse"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
	logger  *applog.Logger
}

var (
	_ warehouse.Warehouse     = (*SQLiteRepository)(nil)
	_ warehouse.DepositWriter = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the worker and dashctl import share the file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
		logger:  logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Tables() warehouse.Tables {
	return warehouse.Tables{Backend: "sqlite", Targets: "targets", Deposits: "deposits"}
}

func (r *SQLiteRepository) ReadTargets(ctx context.Context) ([]core.RawTargetRow, error) {
	rows, err := r.queries.ListTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	out := make([]core.RawTargetRow, 0, len(rows))
	for _, t := range rows {
		out = append(out, core.RawTargetRow{
			Date:       t.DataMeta,
			Daily:      fromNull(t.MetaDiaria),
			Cumulative: fromNull(t.MetaAcumulada),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) ReadDeposits(ctx context.Context) ([]core.RawDepositRow, error) {
	rows, err := r.queries.ListDepositDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("read deposits: %w", err)
	}
	out := make([]core.RawDepositRow, 0, len(rows))
	for _, d := range rows {
		out = append(out, core.RawDepositRow{
			Date:  d.DtLocal,
			Count: d.QtdDep,
			Sum:   fromNull(d.TotalDeposito),
		})
	}
	return out, nil
}

// InsertDeposit stores one deposit event. Replayed IDs are ignored so the
// ingest worker can redeliver safely.
func (r *SQLiteRepository) InsertDeposit(ctx context.Context, e warehouse.DepositEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	params := InsertDepositParams{
		ID:           e.ID,
		DataDeposito: e.Date.String(),
		Deposito:     e.Amount,
	}
	if !e.ReceivedAt.IsZero() {
		params.ReceivedAt = sql.NullTime{Time: e.ReceivedAt.UTC(), Valid: true}
	}
	n, err := r.queries.InsertDeposit(ctx, params)
	if err != nil {
		return fmt.Errorf("insert deposit %s: %w", e.ID, err)
	}
	if n == 0 {
		r.logger.DebugContext(ctx, "Duplicate deposit ignored", "deposit_id", e.ID)
	}
	return nil
}

// ImportTargets upserts the goal curve in one transaction. Rows whose date
// does not parse are skipped and counted.
func (r *SQLiteRepository) ImportTargets(ctx context.Context, rows []core.RawTargetRow) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	imported, skipped := 0, 0
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			skipped++
			continue
		}
		if err := q.UpsertTarget(ctx, Target{
			DataMeta:      d.String(),
			MetaDiaria:    toNull(row.Daily),
			MetaAcumulada: toNull(row.Cumulative),
		}); err != nil {
			return 0, 0, fmt.Errorf("upsert target %s: %w", d, err)
		}
		imported++
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit targets: %w", err)
	}
	r.logger.InfoContext(ctx, "Targets imported", applog.FieldRows, imported, applog.FieldDropped, skipped)
	return imported, skipped, nil
}

func fromNull(n sql.NullFloat64) core.OptionalFloat {
	if !n.Valid {
		return core.Null()
	}
	return core.Some(n.Float64)
}

func toNull(o core.OptionalFloat) sql.NullFloat64 {
	return sql.NullFloat64{Float64: o.Value, Valid: o.Valid}
}

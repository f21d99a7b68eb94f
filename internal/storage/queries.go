package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Target struct {
	DataMeta      string
	MetaDiaria    sql.NullFloat64
	MetaAcumulada sql.NullFloat64
}

type DepositDay struct {
	DtLocal       string
	QtdDep        int64
	TotalDeposito sql.NullFloat64
}

type InsertDepositParams struct {
	ID           string
	DataDeposito string
	Deposito     float64
	ReceivedAt   sql.NullTime
}

const listTargets = `-- name: ListTargets :many
SELECT data_meta, meta_diaria, meta_acumulada FROM targets ORDER BY data_meta
`

func (q *Queries) ListTargets(ctx context.Context) ([]Target, error) {
	rows, err := q.db.QueryContext(ctx, listTargets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Target
	for rows.Next() {
		var i Target
		if err := rows.Scan(&i.DataMeta, &i.MetaDiaria, &i.MetaAcumulada); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listDepositDays = `-- name: ListDepositDays :many
SELECT data_deposito AS dt_local, COUNT(*) AS qtd_dep, SUM(deposito) AS total_deposito
FROM deposits
WHERE data_deposito IS NOT NULL
GROUP BY dt_local
ORDER BY dt_local
`

func (q *Queries) ListDepositDays(ctx context.Context) ([]DepositDay, error) {
	rows, err := q.db.QueryContext(ctx, listDepositDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DepositDay
	for rows.Next() {
		var i DepositDay
		if err := rows.Scan(&i.DtLocal, &i.QtdDep, &i.TotalDeposito); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertDeposit = `-- name: InsertDeposit :execrows
INSERT INTO deposits (id, data_deposito, deposito, received_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`

func (q *Queries) InsertDeposit(ctx context.Context, arg InsertDepositParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertDeposit, arg.ID, arg.DataDeposito, arg.Deposito, arg.ReceivedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertTarget = `-- name: UpsertTarget :exec
INSERT INTO targets (data_meta, meta_diaria, meta_acumulada)
VALUES (?, ?, ?)
ON CONFLICT(data_meta) DO UPDATE SET
    meta_diaria = excluded.meta_diaria,
    meta_acumulada = excluded.meta_acumulada,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertTarget(ctx context.Context, arg Target) error {
	_, err := q.db.ExecContext(ctx, upsertTarget, arg.DataMeta, arg.MetaDiaria, arg.MetaAcumulada)
	return err
}

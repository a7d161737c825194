package sqlcgen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX matches the minimal interface needed from pgxpool.Pool or pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const getEMSSnapshotByEMS = `-- name: GetEMSSnapshotByEMS :one
SELECT id,
       ems_guid,
       last_communication_config_integration_date,
       captured_at
FROM dwh_ems_snapshots
WHERE ems_guid = $1
ORDER BY captured_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetEMSSnapshotByEMS(ctx context.Context, emsGuid uuid.UUID) (DwhEmsSnapshot, error) {
	row := q.db.QueryRow(ctx, getEMSSnapshotByEMS, emsGuid)
	var i DwhEmsSnapshot
	err := row.Scan(&i.ID, &i.EmsGuid, &i.LastCommunicationConfigIntegrationDate, &i.CapturedAt)
	return i, err
}

const insertEMSSnapshot = `-- name: InsertEMSSnapshot :one
INSERT INTO dwh_ems_snapshots (
  ems_guid,
  last_communication_config_integration_date,
  captured_at
)
VALUES ($1, $2, COALESCE($3, now()))
RETURNING id, ems_guid, last_communication_config_integration_date, captured_at
`

type InsertEMSSnapshotParams struct {
	EmsGuid                                uuid.UUID
	LastCommunicationConfigIntegrationDate *time.Time
	CapturedAt                             *time.Time
}

func (q *Queries) InsertEMSSnapshot(ctx context.Context, arg InsertEMSSnapshotParams) (DwhEmsSnapshot, error) {
	row := q.db.QueryRow(ctx, insertEMSSnapshot, arg.EmsGuid, arg.LastCommunicationConfigIntegrationDate, arg.CapturedAt)
	var i DwhEmsSnapshot
	err := row.Scan(&i.ID, &i.EmsGuid, &i.LastCommunicationConfigIntegrationDate, &i.CapturedAt)
	return i, err
}

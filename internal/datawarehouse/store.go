package datawarehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/metrics"
	"decofer/core-go/internal/sqlcgen"
)

// Queries is the subset of the warehouse queries the Store needs.
// *sqlcgen.Queries satisfies it.
type Queries interface {
	GetEMSSnapshotByEMS(ctx context.Context, emsGuid uuid.UUID) (sqlcgen.DwhEmsSnapshot, error)
}

// Store reads snapshots directly from the warehouse database.
type Store struct {
	q       Queries
	metrics *metrics.Metrics
}

func NewStore(q Queries, m *metrics.Metrics) *Store {
	return &Store{q: q, metrics: m}
}

func (s *Store) GetByEMS(ctx context.Context, guid uuid.UUID) (EMSSnapshot, error) {
	start := time.Now()
	row, err := s.q.GetEMSSnapshotByEMS(ctx, guid)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("ems snapshot %s: %w", guid, apperr.ErrNotFound)
	} else if err != nil {
		err = fmt.Errorf("query ems snapshot %s: %w", guid, err)
	}
	s.metrics.ObserveUpstreamCall(upstreamName, outcome(err), time.Since(start))
	if err != nil {
		return EMSSnapshot{}, err
	}

	return EMSSnapshot{
		EMSGUID:                                row.EmsGuid,
		LastCommunicationConfigIntegrationDate: row.LastCommunicationConfigIntegrationDate,
		CapturedAt:                             row.CapturedAt,
	}, nil
}

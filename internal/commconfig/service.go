// Package commconfig resolves communication configurations from the
// reference-data service and enriches them with the EMS integration date
// held by the data warehouse.
package commconfig

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"decofer/core-go/internal/apperr"
	"decofer/core-go/internal/datawarehouse"
	"decofer/core-go/internal/dto"
	"decofer/core-go/internal/metrics"
	"decofer/core-go/internal/reference"
)

const tracerName = "decofer/core-go/internal/commconfig"

// ReferenceClient looks up configuration records. *reference.Client satisfies it.
type ReferenceClient interface {
	GetCommunicationConfigByID(ctx context.Context, id int64) (reference.CommunicationConfig, error)
}

// SnapshotClient looks up warehouse snapshots by EMS GUID.
// *datawarehouse.Client and *datawarehouse.Store satisfy it.
type SnapshotClient interface {
	GetByEMS(ctx context.Context, guid uuid.UUID) (datawarehouse.EMSSnapshot, error)
}

// Mapper converts a reference record into its change DTO.
type Mapper interface {
	ToDTO(cfg reference.CommunicationConfig) dto.ChangeCommunicationConfig
}

// Enrichment outcomes reported to metrics.
const (
	OutcomeDated             = "dated"
	OutcomeUndated           = "undated"
	OutcomeMissingDependency = "missing_dependency"
	OutcomeError             = "error"
)

// Service resolves communication configs and enriches them with warehouse snapshot dates.
type Service struct {
	log       zerolog.Logger
	reference ReferenceClient
	snapshots SnapshotClient
	mapper    Mapper
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Options holds the optional collaborators of a Service.
type Options struct {
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
}

// NewService builds a Service. A nil TracerProvider falls back to the global one.
func NewService(log zerolog.Logger, ref ReferenceClient, snapshots SnapshotClient, mapper Mapper, opts Options) *Service {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Service{
		log:       log,
		reference: ref,
		snapshots: snapshots,
		mapper:    mapper,
		metrics:   opts.Metrics,
		tracer:    tp.Tracer(tracerName),
	}
}

// FindByID returns the reference record for id unchanged, errors included.
func (s *Service) FindByID(ctx context.Context, id int64) (reference.CommunicationConfig, error) {
	ctx, span := s.tracer.Start(ctx, "commconfig.FindByID",
		trace.WithAttributes(attribute.Int64("communication_config.id", id)))
	defer span.End()

	cfg, err := s.reference.GetCommunicationConfigByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference lookup failed")
		return reference.CommunicationConfig{}, err
	}
	return cfg, nil
}

// FindByIDAndConvertToChangeDTO resolves the record for id and returns its
// outward view with Date set from the warehouse snapshot of the record's EMS.
//
// The snapshot is looked up by the EMS GUID carried by the record. A record
// without EMS GUID fails with apperr.ErrMissingDependency. A missing snapshot,
// or one without integration date, leaves Date nil.
func (s *Service) FindByIDAndConvertToChangeDTO(ctx context.Context, id int64) (dto.ChangeCommunicationConfig, error) {
	ctx, span := s.tracer.Start(ctx, "commconfig.FindByIDAndConvertToChangeDTO",
		trace.WithAttributes(attribute.Int64("communication_config.id", id)))
	defer span.End()

	fail := func(outcome, msg string, err error) (dto.ChangeCommunicationConfig, error) {
		s.metrics.IncEnrichment(outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return dto.ChangeCommunicationConfig{}, err
	}

	cfg, err := s.reference.GetCommunicationConfigByID(ctx, id)
	if err != nil {
		return fail(OutcomeError, "reference lookup failed", err)
	}

	guid, ok := cfg.EMSGUID()
	if !ok {
		s.log.Warn().Int64("id", id).Msg("communication config has no ems guid")
		return fail(OutcomeMissingDependency, "ems guid missing",
			fmt.Errorf("communication config %d: ems guid: %w", id, apperr.ErrMissingDependency))
	}
	span.SetAttributes(attribute.String("ems.guid", guid.String()))

	snap, err := s.snapshots.GetByEMS(ctx, guid)
	switch {
	case apperr.IsNotFound(err):
		s.log.Debug().Int64("id", id).Str("ems_guid", guid.String()).Msg("no warehouse snapshot for ems")
		snap = datawarehouse.EMSSnapshot{}
	case err != nil:
		return fail(OutcomeError, "snapshot lookup failed", err)
	}

	out := s.mapper.ToDTO(cfg)
	out.Date = nil
	if d := snap.LastCommunicationConfigIntegrationDate; d != nil {
		date := *d
		out.Date = &date
		s.metrics.IncEnrichment(OutcomeDated)
	} else {
		s.metrics.IncEnrichment(OutcomeUndated)
	}

	s.log.Debug().Int64("id", id).Str("ems_guid", guid.String()).Bool("dated", out.Date != nil).Msg("communication config enriched")
	return out, nil
}

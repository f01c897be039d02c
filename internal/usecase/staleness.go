package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/chive-pub/chive-sub016/internal/domain"
)

// StalenessVerifier answers whether an indexed record still matches its origin
// copy. Checks are read-only, computed fresh per call, and best-effort: any
// failure along the way lands in the result value instead of an error return,
// with IsStale set conservatively.
type StalenessVerifier struct {
	records   RecordReader
	resolver  EndpointResolver
	client    OriginClient
	threshold time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewStalenessVerifier(records RecordReader, resolver EndpointResolver, client OriginClient, threshold time.Duration, logger *slog.Logger) *StalenessVerifier {
	if threshold <= 0 {
		threshold = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StalenessVerifier{
		records:   records,
		resolver:  resolver,
		client:    client,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckStaleness compares the indexed CID of uri against the CID its origin
// currently reports. It never returns an error: an unreachable origin, a
// deleted record, or a resolution failure all produce IsStale=true with Error
// populated, so callers always get an answer.
func (v *StalenessVerifier) CheckStaleness(ctx context.Context, uri string) domain.StalenessCheck {
	check := domain.StalenessCheck{RecordURI: uri, IsStale: true}

	record, err := v.records.GetRecord(ctx, uri)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	check.IndexedCID = record.CID

	identity := record.DID
	if identity == "" {
		parsed, err := domain.ParseAtURI(uri)
		if err != nil {
			check.Error = err.Error()
			return check
		}
		identity = parsed.DID
	}

	endpoint, err := v.resolver.ResolveOriginEndpoint(ctx, identity)
	if err != nil {
		v.logger.Debug("staleness check could not resolve origin", "uri", uri, "identity", identity, "error", err)
		check.Error = err.Error()
		return check
	}

	originCID, err := v.client.FetchRecordCID(ctx, endpoint, uri)
	if err != nil {
		v.logger.Debug("staleness check could not reach origin", "uri", uri, "endpoint", endpoint, "error", err)
		check.Error = err.Error()
		return check
	}

	check.OriginCID = originCID
	check.IsStale = originCID == "" || originCID != record.CID
	return check
}

// VerifySync is the query-facing view: indexed / in-sync flags plus the age of
// the indexed copy in days once it exceeds the staleness threshold.
func (v *StalenessVerifier) VerifySync(ctx context.Context, uri string) domain.SyncStatus {
	status := domain.SyncStatus{RecordURI: uri}

	record, err := v.records.GetRecord(ctx, uri)
	if err != nil {
		return status
	}
	status.Indexed = true

	check := v.CheckStaleness(ctx, uri)
	status.InSync = !check.IsStale

	age := v.now().Sub(record.IndexedAt)
	if age > v.threshold {
		days := int(age.Hours() / 24)
		status.StaleDays = &days
	}
	return status
}
